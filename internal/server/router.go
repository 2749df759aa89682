package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/loreweave/loreweave/internal/api"
	"github.com/loreweave/loreweave/internal/api/handlers"
	"github.com/loreweave/loreweave/internal/api/middleware"
)

type RouterConfig struct {
	SigningSecret string
	EventHandler  *handlers.EventHandler
	ChunkHandler  *handlers.ChunkHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.VerifySlackSignature(cfg.SigningSecret))
		r.Post("/slack/events", cfg.EventHandler.Receive)
	})

	r.Route("/channels/{channel}", func(r chi.Router) {
		r.Get("/chunks", cfg.ChunkHandler.List)
		r.Delete("/", cfg.ChunkHandler.DeleteChannel)
	})

	return r
}
