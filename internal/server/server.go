// Package server exposes the operator console's read/control API: batch
// status, contact browsing, retry, and settings.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/pipeline"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

// Server serves the console API over the shared table store.
type Server struct {
	st  store.Store
	cfg config.ServerConfig
}

// New returns a console server.
func New(st store.Store, cfg config.ServerConfig) *Server {
	return &Server{st: st, cfg: cfg}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/contacts", s.handleListContacts)
		r.Get("/contacts/{id}", s.handleGetContact)
		r.Post("/contacts/{id}/retry", s.handleRetryContact)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings/{key}", s.handlePutSetting)
	})
	return r
}

// ListenAndServe runs the API until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: listening", zap.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := pipeline.ReadSnapshot(r.Context(), s.st)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, snap)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	q := store.ContactQuery{
		Filter:           store.FilterAll,
		Limit:            100,
		IncludeProcessed: true,
	}
	switch r.URL.Query().Get("filter") {
	case "pending":
		q.Filter = store.FilterPending
		q.IncludeProcessed = false
	case "failed":
		q.Filter = store.FilterFailed
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			q.Limit = n
		}
	}

	contacts, err := s.st.ListContacts(r.Context(), q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"contacts": contacts, "count": len(contacts)})
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := s.st.GetContact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, err)
		return
	}
	respond(w, http.StatusOK, contact)
}

// handleRetryContact clears the submission fields so the next failed-filter
// batch picks the contact up again.
func (s *Server) handleRetryContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.st.GetContact(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, err)
		return
	}
	if err := s.st.ResetSubmissionFields(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "reset", "id": id})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.st.GetSettings(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	// Credentials never leave the process.
	redacted := make(map[string]string, len(settings))
	for k, v := range settings {
		if k == model.KeyLinkedInPassword {
			v = "********"
		}
		redacted[k] = v
	}
	respond(w, http.StatusOK, redacted)
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return
	}
	if err := s.st.SetSetting(r.Context(), key, body.Value); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "saved", "key": key})
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, code int, err error) {
	respond(w, code, map[string]string{"error": err.Error()})
}
