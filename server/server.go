// Package server exposes PII detection and anonymization over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"

	"github.com/hannes/pii-mask/config"
	"github.com/hannes/pii-mask/pii"
	"github.com/hannes/pii-mask/pii/detectors"
	"github.com/hannes/pii-mask/pii/operators"
)

// maxRequestBody bounds the accepted request size (1 MiB).
const maxRequestBody = 1 << 20

// Server is the HTTP API over a Masker.
type Server struct {
	cfg    config.ServerConfig
	masker *pii.Masker
}

// NewServer creates a server around the given masker.
func NewServer(cfg config.ServerConfig, masker *pii.Masker) *Server {
	return &Server{cfg: cfg, masker: masker}
}

// Handler returns the routed and middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/entities", s.handleEntities)
	mux.HandleFunc("/api/detect", s.handleDetect)
	mux.HandleFunc("/api/anonymize", s.handleAnonymize)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(s.cfg.RateLimit, s.cfg.RateBurst, handler)
	handler = requestIDMiddleware(handler)
	handler = recoverMiddleware(handler)
	return handler
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting PII masking API", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	}
}

type detectRequest struct {
	Text        string   `json:"text"`
	EntityTypes []string `json:"entity_types,omitempty"`
}

type detectResponse struct {
	Entities []detectors.Entity `json:"entities"`
}

type anonymizeRequest struct {
	Text        string                    `json:"text"`
	EntityTypes []string                  `json:"entity_types,omitempty"`
	Operators   map[string]operators.Spec `json:"operators,omitempty"`
}

type anonymizeResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"entity_types": detectors.SupportedLabels()})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entities, err := s.masker.Detect(r.Context(), req.Text, req.EntityTypes)
	if err != nil {
		reportError(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if entities == nil {
		entities = []detectors.Entity{}
	}
	writeJSON(w, http.StatusOK, detectResponse{Entities: entities})
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	var req anonymizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text, err := s.masker.Anonymize(r.Context(), req.Text, req.EntityTypes, req.Operators)
	if err != nil {
		reportError(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, anonymizeResponse{Text: text})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("failed to encode response", "err", err)
	}
}

// reportError forwards server-side failures to sentry when configured.
func reportError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
