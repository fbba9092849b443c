// Package httpapi exposes the game engine to the web UI as a JSON API.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/osa030/blindbox/internal/app/game"
	"github.com/osa030/blindbox/internal/app/notify"
)

// Handler serves the game API.
type Handler struct {
	machine *game.Machine
	notify  *notify.Manager
}

// NewHandler creates a handler around the machine and event manager.
func NewHandler(machine *game.Machine, notifyMgr *notify.Manager) *Handler {
	return &Handler{
		machine: machine,
		notify:  notifyMgr,
	}
}

// Router builds the chi router for the API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/playlists", h.listPlaylists)
		r.Route("/game", func(r chi.Router) {
			r.Get("/state", h.gameState)
			r.Get("/events", h.gameEvents)
			r.Post("/select", h.selectPlaylist)
			r.Post("/answer", h.submitAnswer)
			r.Post("/next", h.nextQuestion)
			r.Post("/restart", h.restart)
		})
	})

	return r
}
