// Package handlers implements the HTTP boundary: route handlers, the admin
// authentication middleware, and the mapping from domain errors to HTTP
// statuses.
package handlers

import (
	"time"

	"github.com/apadua/MeTransfer/internal/archive"
	"github.com/apadua/MeTransfer/internal/config"
	"github.com/apadua/MeTransfer/internal/media"
	"github.com/apadua/MeTransfer/internal/service"
)

// Handlers holds the dependencies shared by all route handlers.
type Handlers struct {
	svc       *service.Service
	generator *media.Generator
	streamer  *archive.Streamer
	config    *config.Config
	startedAt time.Time
}

// New creates the handler set.
func New(svc *service.Service, streamer *archive.Streamer, cfg *config.Config) *Handlers {
	return &Handlers{
		svc:       svc,
		generator: svc.Generator(),
		streamer:  streamer,
		config:    cfg,
		startedAt: time.Now(),
	}
}
