package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindbox/internal/app/game"
	"github.com/osa030/blindbox/internal/domain/quiz"
)

type selectRequest struct {
	PlaylistID string `json:"playlistId"`
}

type answerRequest struct {
	OptionIndex int `json:"optionIndex"`
}

type answerResponse struct {
	Correct  bool          `json:"correct"`
	Snapshot game.Snapshot `json:"state"`
}

type playlistsResponse struct {
	Items any `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// listPlaylists triggers a playlist load and returns the result.
func (h *Handler) listPlaylists(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.LoadPlaylists(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	snap := h.machine.Snapshot()
	h.writeJSON(w, http.StatusOK, playlistsResponse{Items: snap.Playlists})
}

// gameState returns the current snapshot.
func (h *Handler) gameState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.machine.Snapshot())
}

// selectPlaylist starts a session from the chosen playlist.
func (h *Handler) selectPlaylist(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlaylistID == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "playlistId is required"})
		return
	}
	if err := h.machine.SelectPlaylist(r.Context(), req.PlaylistID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.machine.Snapshot())
}

// submitAnswer scores an option index against the live question.
func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	correct, err := h.machine.SubmitAnswer(r.Context(), req.OptionIndex)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, answerResponse{
		Correct:  correct,
		Snapshot: h.machine.Snapshot(),
	})
}

// nextQuestion advances to the next question or the final summary.
func (h *Handler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.NextQuestion(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.machine.Snapshot())
}

// restart discards the session and returns to playlist selection.
func (h *Handler) restart(w http.ResponseWriter, r *http.Request) {
	h.machine.Restart(r.Context())
	h.writeJSON(w, http.StatusOK, h.machine.Snapshot())
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Msgf("httpapi: failed to encode response: %v", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, quiz.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, quiz.ErrInsufficientTracks):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, quiz.ErrPlaybackUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, quiz.ErrProviderFetch):
		status = http.StatusBadGateway
	case errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrNoLiveQuestion),
		errors.Is(err, game.ErrNotAnswered):
		status = http.StatusConflict
	case errors.Is(err, game.ErrInvalidOption):
		status = http.StatusBadRequest
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
