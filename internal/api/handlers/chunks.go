package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/loreweave/loreweave/internal/api"
	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/pagination"
)

type ChunkLister interface {
	ListByChannel(ctx context.Context, channelID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Chunk], error)
}

type ChannelDeleter interface {
	DeleteChannel(ctx context.Context, channelID string) (int64, error)
}

type ChunkHandler struct {
	lister  ChunkLister
	deleter ChannelDeleter
}

func NewChunkHandler(lister ChunkLister, deleter ChannelDeleter) *ChunkHandler {
	return &ChunkHandler{lister: lister, deleter: deleter}
}

type ChunkResponse struct {
	ID          int64          `json:"id"`
	ChannelID   string         `json:"channel_id"`
	ThreadTS    string         `json:"thread_ts"`
	ChunkIndex  int            `json:"chunk_index"`
	Content     string         `json:"content"`
	SenderName  string         `json:"sender_name,omitempty"`
	SenderTitle string         `json:"sender_title,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

func chunkToResponse(c *domain.Chunk) *ChunkResponse {
	return &ChunkResponse{
		ID:          c.ID,
		ChannelID:   c.ChannelID,
		ThreadTS:    c.ThreadTS,
		ChunkIndex:  c.ChunkIndex,
		Content:     c.Content,
		SenderName:  c.SenderName,
		SenderTitle: c.SenderTitle,
		Metadata:    c.Metadata,
		CreatedAt:   c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

type ChunkListResponse struct {
	Items   []*ChunkResponse `json:"items"`
	Cursor  string           `json:"cursor,omitempty"`
	HasMore bool             `json:"has_more"`
}

func (h *ChunkHandler) List(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if channel == "" {
		api.Error(w, http.StatusBadRequest, "channel is required")
		return
	}

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	page, err := h.lister.ListByChannel(r.Context(), channel, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ChunkResponse, len(page.Items))
	for i, c := range page.Items {
		responses[i] = chunkToResponse(c)
	}

	api.Success(w, http.StatusOK, ChunkListResponse{
		Items:   responses,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

type DeleteChannelResponse struct {
	Channel string `json:"channel"`
	Deleted int64  `json:"deleted"`
}

func (h *ChunkHandler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if channel == "" {
		api.Error(w, http.StatusBadRequest, "channel is required")
		return
	}

	deleted, err := h.deleter.DeleteChannel(r.Context(), channel)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DeleteChannelResponse{
		Channel: channel,
		Deleted: deleted,
	})
}
