package api

import (
	"net/http"

	"incident-tracker/api/handlers"
	"incident-tracker/config"
	"incident-tracker/core/incidents"
	"incident-tracker/core/store"
	"incident-tracker/core/utils"

	"github.com/go-chi/chi/v5"
)

type ServerDeps struct {
	Incidents    store.IncidentsStore
	IncidentsSvc *incidents.Service
	Logger       *utils.Logger
}

type Server struct {
	cfg    *config.AppConfig
	store  store.IncidentsStore
	svc    *incidents.Service
	logger *utils.Logger
	router chi.Router
}

func NewServer(cfg *config.AppConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:    cfg,
		store:  deps.Incidents,
		svc:    deps.IncidentsSvc,
		logger: deps.Logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.cfg.ListenAddr, s.router)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)
	r.Use(s.corsMiddleware)

	h := handlers.NewIncidentsHandler(s.cfg, s.store, s.svc, s.logger)

	r.MethodFunc(http.MethodGet, "/health", handlers.Health)
	r.MethodFunc(http.MethodPost, "/api/incidents", h.Create)
	r.MethodFunc(http.MethodGet, "/api/incidents", h.List)
	r.MethodFunc(http.MethodGet, "/api/incidents/{id:[0-9]+}", h.Get)
	r.MethodFunc(http.MethodPatch, "/api/incidents/{id:[0-9]+}", h.Update)
	return r
}
