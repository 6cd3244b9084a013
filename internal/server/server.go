// Package server exposes the dictation pipeline over HTTP.
//
// Routes:
//
//   - POST /v1/process: one utterance in, processed text and edits out.
//   - GET  /v1/stream: WebSocket; one utterance per text frame.
//   - GET  /v1/journal: recent or matching journal entries, when configured.
//   - GET  /healthz, /readyz: see package health.
//   - GET  /metrics: Prometheus scrape endpoint, when configured.
//
// Every route is wrapped in [observe.Middleware].
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrWong99/dictee/internal/health"
	"github.com/MrWong99/dictee/internal/observe"
	"github.com/MrWong99/dictee/internal/transcript"
	"github.com/MrWong99/dictee/pkg/journal"
	"github.com/MrWong99/dictee/pkg/types"
)

// maxBodyBytes bounds a single request body or WebSocket message.
const maxBodyBytes = 1 << 20

const defaultShutdownTimeout = 10 * time.Second

// Recorder journals finalised utterances. [journal.Recorder] satisfies it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) bool
}

// Option configures a [Server].
type Option func(*Server)

// WithRecorder journals every final utterance through r.
func WithRecorder(r Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithJournalReader serves GET /v1/journal from j.
func WithJournalReader(j JournalReader) Option {
	return func(s *Server) { s.journal = j }
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth registers /healthz and /readyz from h.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// Server is the HTTP front end. Create one with [New].
type Server struct {
	processor      func() transcript.Processor
	recorder       Recorder
	journal        JournalReader
	metrics        *observe.Metrics
	health         *health.Handler
	metricsHandler http.Handler

	handler http.Handler

	// base is cancelled by Close; open streams are tied to it because
	// http.Server.Shutdown does not track hijacked connections.
	base   context.Context
	cancel context.CancelFunc
}

// New creates a Server. processor is called once per utterance and returns
// the pipeline currently in effect, so a hot-reloaded pipeline applies to
// the next request or stream frame.
func New(processor func() transcript.Processor, opts ...Option) *Server {
	s := &Server{processor: processor}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	s.base, s.cancel = context.WithCancel(context.Background())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/process", s.handleProcess)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	if s.journal != nil {
		mux.HandleFunc("GET /v1/journal", s.handleJournal)
	}
	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	s.handler = observe.Middleware(s.metrics)(mux)
	return s
}

// Handler returns the root handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close ends every open stream with a going-away status. It does not stop
// an [http.Server] serving [Server.Handler].
func (s *Server) Close() {
	s.cancel()
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully within shutdownTimeout. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("server: listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return nil
}

// process runs one utterance through the current pipeline and journals it
// when final.
func (s *Server) process(ctx context.Context, t types.Transcript, source string) (*transcript.Result, error) {
	res, err := s.processor().Process(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("server: process: %w", err)
	}
	s.metrics.RecordTranscript(ctx, source)

	if t.IsFinal && s.recorder != nil {
		s.recorder.Record(ctx, journal.Entry{
			SessionID: t.SessionID,
			RawText:   t.Text,
			Text:      res.Text,
			Edits:     len(res.Edits),
		})
	}
	return res, nil
}

// isCanceled reports whether err stems from the request going away.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
