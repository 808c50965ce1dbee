package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klabast/wb-services/groupie-dates/internal/artists"
	"github.com/klabast/wb-services/groupie-dates/internal/cards"
	"github.com/klabast/wb-services/groupie-dates/internal/dates"
	"go.uber.org/zap"
)

// Server serves the /dates API and the rendered dates page
type Server struct {
	cfg     Config
	store   Store
	auth    *Auth
	loader  *cards.Loader
	artists *artists.Client
	logger  *zap.Logger
}

// NewServer wires a Server. auth may be nil outside edit mode.
func NewServer(cfg Config, store Store, auth *Auth, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auth == nil {
		auth = &Auth{logger: logger}
	}
	return &Server{
		cfg:   cfg,
		store: store,
		auth:  auth,
		loader: &cards.Loader{
			Client: &http.Client{},
			URL:    cfg.SourceURL(),
			Logger: logger,
		},
		artists: &artists.Client{
			HTTP:    &http.Client{Timeout: 30 * time.Second},
			BaseURL: cfg.ArtistsBaseURL(),
		},
		logger: logger,
	}
}

// Routes returns the HTTP handler for the service
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.ServeIndex)
	r.Get("/healthz", s.HandleHealth)
	r.Get("/dates", s.HandleDates)
	r.Get("/api/download", s.HandleDownload)
	r.Get("/api/config", s.HandleConfig)
	r.Get("/artists", s.HandleArtists)
	r.Get("/artist/{id}", s.HandleArtist)

	// Edit mode routes (protected with Basic Auth)
	if s.cfg.EditMode {
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require)
			r.Get("/edit", s.ServeEdit)
			r.Post("/api/dates", s.HandleAddDate)
			r.Delete("/api/dates/{id}", s.HandleDeleteDate)
			r.Post("/api/dates/move", s.HandleMoveDate)
			r.Get("/api/dates/status", s.HandleStatus)
			r.Post("/api/dates/commit", s.HandleCommit)
			r.Post("/api/dates/revert", s.HandleRevert)
		})
	}

	return r
}

// HandleConfig returns the settings the pages run with
func (s *Server) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"mode":        s.cfg.Mode(),
		"editMode":    s.cfg.EditMode,
		"datesSource": s.loader.URL,
		"containerId": cards.ContainerID,
		"cardClass":   cards.CardClass,
		"hasChanges":  s.hasChanges(),
	})
}

// HandleHealth reports liveness
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.Error("Error writing health response", zap.Error(err))
	}
}

// HandleDates returns all records as a JSON array in store order
func (s *Server) HandleDates(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("Error listing dates", zap.Error(err))
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, records)
}

// HandleAddDate adds a record (edit mode only)
// Body: {"data": {"key": "value", ...}}
func (s *Server) HandleAddDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data dates.Data `json:"data"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	rec, err := s.store.Add(r.Context(), req.Data)
	if err != nil {
		s.logger.Error("Error saving date", zap.Error(err))
		http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
		return
	}

	s.logger.Info("Date added", zap.Stringer("id", rec.ID), zap.Int("keys", rec.Data.Len()))
	writeJSON(w, s.logger, http.StatusCreated, rec)
}

// HandleDeleteDate deletes a record by ID (edit mode only)
func (s *Server) HandleDeleteDate(w http.ResponseWriter, r *http.Request) {
	id := dates.ID(chi.URLParam(r, "id"))

	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, ErrRecordNotFound, http.StatusNotFound)
			return
		}
		s.logger.Error("Error deleting date", zap.Stringer("id", id), zap.Error(err))
		http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
		return
	}

	s.logger.Info("Date deleted", zap.Stringer("id", id))
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleMoveDate moves a record to a new list position (edit mode only)
// Body: {"id": 3, "position": 0}
func (s *Server) HandleMoveDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       dates.ID `json:"id"`
		Position *int     `json:"position"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil || req.Position == nil {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	if err := s.store.Move(r.Context(), req.ID, *req.Position); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, ErrRecordNotFound, http.StatusNotFound)
		case errors.Is(err, ErrPosition):
			http.Error(w, ErrInvalidMove, http.StatusBadRequest)
		default:
			s.logger.Error("Error moving date", zap.Stringer("id", req.ID), zap.Error(err))
			http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
		}
		return
	}

	s.logger.Info("Date moved", zap.Stringer("id", req.ID), zap.Int("position", *req.Position))
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStatus returns whether there are staged changes
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]bool{"has_changes": s.hasChanges()})
}

// HandleCommit publishes staged changes
func (s *Server) HandleCommit(w http.ResponseWriter, r *http.Request) {
	s.handleStaged(w, "commit", Stager.Commit)
}

// HandleRevert discards staged changes
func (s *Server) HandleRevert(w http.ResponseWriter, r *http.Request) {
	s.handleStaged(w, "revert", Stager.Revert)
}

func (s *Server) handleStaged(w http.ResponseWriter, action string, apply func(Stager) error) {
	stager, ok := s.store.(Stager)
	if !ok {
		http.Error(w, ErrNotStaged, http.StatusNotImplemented)
		return
	}

	if err := apply(stager); err != nil {
		if errors.Is(err, ErrNoStagedChanges) {
			http.Error(w, ErrNoChanges, http.StatusConflict)
			return
		}
		s.logger.Error("Error applying staged changes", zap.String("action", action), zap.Error(err))
		http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) hasChanges() bool {
	stager, ok := s.store.(Stager)
	return ok && stager.HasChanges()
}

// NewHTTPServer returns an http.Server for the service with sane timeouts
func (s *Server) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
