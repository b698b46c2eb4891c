// Package server exposes the message dispatcher and the bundle store over
// HTTP.
//
// Routes:
//
//	POST   /v1/messages              dispatch an export or import request
//	GET    /v1/bundles               list stored bundles
//	POST   /v1/bundles               store an uploaded bundle (?name=)
//	GET    /v1/bundles/{id}          fetch a bundle (?format=json|yaml|zip)
//	DELETE /v1/bundles/{id}          delete a bundle
//	POST   /v1/bundles/{id}/import   import a stored bundle into the host
//	GET    /healthz                  liveness
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/canvasport/pkg/buildinfo"
	"github.com/matzehuels/canvasport/pkg/dispatch"
	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/observability"
	"github.com/matzehuels/canvasport/pkg/storage"
)

// MaxBodySize bounds request bodies.
const MaxBodySize = 256 << 20

// Server routes HTTP requests to a dispatcher and a bundle store.
type Server struct {
	dispatcher *dispatch.Dispatcher
	store      storage.Store
	logger     *log.Logger
	router     chi.Router
}

// New returns a Server. store may be nil, in which case the bundle routes
// answer 503.
func New(d *dispatch.Dispatcher, store storage.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{dispatcher: d, store: store, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/messages", s.handleMessage)
		r.Route("/bundles", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Get("/", s.handleListBundles)
			r.Post("/", s.handlePutBundle)
			r.Get("/{id}", s.handleGetBundle)
			r.Delete("/{id}", s.handleDeleteBundle)
			r.Post("/{id}/import", s.handleImportBundle)
		})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// observe reports requests to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, errors.New(errors.ErrCodeInternal, "bundle storage is not configured"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case "":
		return http.StatusOK
	case errors.ErrCodeInvalidMessage, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeEmptySelection, errors.ErrCodeEmptyContainer, errors.ErrCodeUnsupportedKind:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeBundleNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func errStatus(err error) int {
	code := errors.GetCode(err)
	if code == "" {
		return http.StatusInternalServerError
	}
	return statusFor(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with a dispatch-shaped error body.
func writeError(w http.ResponseWriter, status int, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, dispatch.Response{
		Type:    "error",
		Message: errors.UserMessage(err),
		Code:    code,
	})
}
