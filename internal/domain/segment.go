package domain

import (
	"fmt"
	"strings"
)

// SegmentKind classifies where a document segment came from.
type SegmentKind string

const (
	SegmentMessage SegmentKind = "message"
	SegmentLink    SegmentKind = "link"
	SegmentFile    SegmentKind = "file"
)

// segmentDivider separates segments in the rendered document.
const segmentDivider = "\n\n---\n\n"

// Segment is one provenance-tagged piece of an assembled document: a
// message's own text, the extracted content of a linked URL, or the
// extracted content of an attached file. Extraction failures are carried
// as failed segments so rendering can surface a placeholder instead of
// aborting the enclosing ingestion.
type Segment struct {
	Kind    SegmentKind
	Source  string // URL or filename for link/file segments
	Content string
	Summary string
	Failed  bool
	Reason  string
}

// MessageSegment builds a segment for plain message text.
func MessageSegment(text string) Segment {
	return Segment{Kind: SegmentMessage, Content: text}
}

// LinkSegment builds a segment for successfully extracted link content.
func LinkSegment(url, content, summary string) Segment {
	return Segment{Kind: SegmentLink, Source: url, Content: content, Summary: summary}
}

// FileSegment builds a segment for successfully extracted file content.
func FileSegment(name, content, summary string) Segment {
	return Segment{Kind: SegmentFile, Source: name, Content: content, Summary: summary}
}

// FailedSegment builds a placeholder segment for a link or file whose
// extraction failed.
func FailedSegment(kind SegmentKind, source, reason string) Segment {
	return Segment{Kind: kind, Source: source, Failed: true, Reason: reason}
}

func (s Segment) render() string {
	switch s.Kind {
	case SegmentLink:
		if s.Failed {
			return fmt.Sprintf("Contents of Link: %s\n(couldn't process this link)", s.Source)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Contents of Link: %s", s.Source)
		if s.Summary != "" {
			fmt.Fprintf(&b, "\nSummary: %s", s.Summary)
		}
		if s.Content != "" {
			fmt.Fprintf(&b, "\nContent: %s", s.Content)
		}
		return b.String()
	case SegmentFile:
		if s.Failed {
			return fmt.Sprintf("Contents of File: %s\n(couldn't process this file)", s.Source)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Contents of File: %s", s.Source)
		if s.Summary != "" {
			fmt.Fprintf(&b, "\nSummary: %s", s.Summary)
		}
		if s.Content != "" {
			fmt.Fprintf(&b, "\nContent: %s", s.Content)
		}
		return b.String()
	default:
		return s.Content
	}
}

// RenderSegments flattens an ordered segment sequence into the document
// text handed to the chunker. Empty segments are skipped.
func RenderSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.render())
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, segmentDivider)
}
