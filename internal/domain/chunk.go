package domain

import "time"

// MetadataTotalChunks is the metadata key carrying the size of the chunk's
// parent document.
const MetadataTotalChunks = "total_chunks"

// Chunk represents a bounded segment of an ingested document, the unit of
// storage and retrieval. The triple (ChannelID, ThreadTS, ChunkIndex) is
// unique: re-ingesting a thread overwrites matching rows in place.
type Chunk struct {
	ID          int64
	ChannelID   string
	ThreadTS    string
	ChunkIndex  int
	Content     string
	SenderName  string
	SenderTitle string
	Metadata    map[string]any
	Embedding   []float32
	CreatedAt   time.Time
}

// TotalChunks reads the parent document size from metadata, or 0 if absent.
func (c *Chunk) TotalChunks() int {
	if c.Metadata == nil {
		return 0
	}
	switch v := c.Metadata[MetadataTotalChunks].(type) {
	case int:
		return v
	case float64:
		// json round-trips numbers as float64
		return int(v)
	}
	return 0
}
