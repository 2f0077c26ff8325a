// Package server exposes the post repository as the blogs REST API.
package server

import (
	"net/http"

	"github.com/debemdeboas/draftdesk/internal/config"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/repository"
	"github.com/debemdeboas/draftdesk/internal/routes"
	"github.com/debemdeboas/draftdesk/internal/sse"
	"github.com/rs/zerolog"
)

var serverLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	serverLogger = l
}

// Request bodies larger than this are rejected.
const maxBodyBytes = 4 << 20

type Server struct {
	repo    repository.PostRepository
	clients *sse.SSEClients
	cfg     config.ServerConfig

	mux *http.ServeMux
}

// New wires the API routes and subscribes the event feed to repository changes.
func New(repo repository.PostRepository, clients *sse.SSEClients, cfg config.ServerConfig) *Server {
	s := &Server{
		repo:    repo,
		clients: clients,
		cfg:     cfg,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc(routes.APIBlogs, s.serveList)
	s.mux.HandleFunc(routes.APIBlogsSaveDraft, s.serveSaveDraft)
	s.mux.HandleFunc(routes.APIBlogsPublish, s.servePublish)
	s.mux.HandleFunc(routes.APIBlogDelete, s.serveDelete)
	s.mux.HandleFunc(routes.APIBlogsEvents, s.serveEvents)
	s.mux.HandleFunc(routes.Health, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	repo.SetChangeNotifier(s.handlePostChanged)

	return s
}

// Handler returns the mux wrapped in the response middleware.
func (s *Server) Handler() http.Handler {
	return logRequests(cors(s.cfg.CORSOrigin, noCache(secureHeaders(s.mux.ServeHTTP))))
}

func (s *Server) handlePostChanged(id model.PostID) {
	go s.clients.Broadcast(sse.Event{Name: routes.EventChanged, Data: string(id)})
}
