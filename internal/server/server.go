// Package server is the HTTP grading and execution gateway behind
// `studypod serve`.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/grading"
)

// Options tunes the HTTP surface.
type Options struct {
	Environment    string
	Production     bool
	RateLimit      int
	RateWindow     time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Server routes gateway requests to the grading service and the course
// library.
type Server struct {
	grading *grading.Service
	courses *course.Library
	log     *zap.Logger
	opts    Options
	now     func() time.Time
}

func New(g *grading.Service, lib *course.Library, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &Server{grading: g, courses: lib, log: log, opts: opts, now: time.Now}
}

// Routes builds the router. Everything lives under /api.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog(s.log))
	r.Use(Recover(s.log))
	r.Use(CORS(s.opts.AllowedOrigins))
	if s.opts.RateLimit > 0 {
		window := s.opts.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.LimitByIP(s.opts.RateLimit, window))
	}
	r.Use(LimitBody(s.opts.MaxBodyBytes))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/run-code", s.handleRunCode)
		r.Post("/submit-code", s.handleSubmitCode)
		r.Post("/open-question-feedback", s.handleOpenQuestionFeedback)
		r.Post("/chat", s.handleChat)

		r.Get("/courses", s.handleCourses)
		r.Get("/courses/{courseID}/outline", s.handleOutline)
		r.Get("/courses/{courseID}/topics/{topicID}", s.handleTopic)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// run and submit wait on the sandbox and the model
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gateway listening",
			zap.String("addr", addr),
			zap.String("environment", s.opts.Environment),
			zap.String("api_version", gateway.APIVersion),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
