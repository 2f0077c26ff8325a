package server

import (
	"fmt"
	"net/http"

	"github.com/debemdeboas/draftdesk/internal/config"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/repository"
	"github.com/debemdeboas/draftdesk/internal/routes"
	"github.com/debemdeboas/draftdesk/internal/sse"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		serverLogger.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeInput(w http.ResponseWriter, r *http.Request) (model.PostInput, error) {
	var in model.PostInput

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, errors.Wrap(err, "invalid request body")
	}
	return in, nil
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request) {
	posts, err := s.repo.List(r.Context())
	if err != nil {
		serverLogger.Error().Stack().Err(err).Msg("Failed to list posts")
		writeError(w, http.StatusInternalServerError, "failed to list blogs")
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) serveSaveDraft(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if in.IsBlank() {
		writeError(w, http.StatusBadRequest, "title or content is required")
		return
	}

	post, err := s.repo.SaveDraft(r.Context(), in)
	if err != nil {
		serverLogger.Error().Stack().Err(err).Str("post_id", string(in.ID)).Msg("Failed to save draft")
		writeError(w, http.StatusInternalServerError, "failed to save draft")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (s *Server) servePublish(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := model.ValidateForPublish(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := s.repo.Publish(r.Context(), in)
	if err != nil {
		serverLogger.Error().Stack().Err(err).Str("post_id", string(in.ID)).Msg("Failed to publish")
		writeError(w, http.StatusInternalServerError, "failed to publish")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (s *Server) serveDelete(w http.ResponseWriter, r *http.Request) {
	id := model.PostID(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	err := s.repo.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	} else if err != nil {
		serverLogger.Error().Stack().Err(err).Str("post_id", string(id)).Msg("Failed to delete")
		writeError(w, http.StatusInternalServerError, "failed to delete blog")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// serveEvents streams a "changed" event, carrying the post id, whenever a
// post is saved, published or deleted.
func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set(config.HCType, config.CTypeEventStream)
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	fmt.Fprintf(w, "event: %s\ndata: SSE connection established\n\n", routes.EventConnected)
	flusher.Flush()

	client := sse.NewClient()
	s.clients.Add(client)

	serverLogger.Debug().Int("clients", s.clients.Len()).Msg("New SSE client connected")

	defer func() {
		s.clients.Delete(client)
		serverLogger.Debug().Msg("SSE client disconnected")
	}()

	done := r.Context().Done()
	for {
		select {
		case ev := <-client.Msg:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		case <-done:
			return
		}
	}
}
