// Package app wires the dictee subsystems into a running application.
//
// The App struct owns the full lifecycle: New builds the pipeline, connects
// the optional journal and assembles the HTTP server; Run serves until the
// context is cancelled; Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithJournalStore,
// WithMetrics). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/dictee/internal/config"
	"github.com/MrWong99/dictee/internal/health"
	"github.com/MrWong99/dictee/internal/observe"
	"github.com/MrWong99/dictee/internal/resilience"
	"github.com/MrWong99/dictee/internal/server"
	"github.com/MrWong99/dictee/internal/transcript"
	"github.com/MrWong99/dictee/internal/transcript/phonetic"
	"github.com/MrWong99/dictee/pkg/journal"
	"github.com/MrWong99/dictee/pkg/journal/postgres"
	"github.com/MrWong99/dictee/pkg/types"
)

// canaryInput is run through the live pipeline by the readiness probe.
const canaryInput = "vingt et un"

// activePipeline pairs the current pipeline with the canary output expected
// from its settings. Both are swapped together.
type activePipeline struct {
	pipeline   *transcript.Pipeline
	canaryWant string
}

// App owns all subsystem lifetimes.
type App struct {
	cfg     *config.Config
	metrics *observe.Metrics
	level   *slog.LevelVar

	active atomic.Pointer[activePipeline]

	store          journal.Store
	recorder       *journal.Recorder
	breaker        *resilience.CircuitBreaker
	metricsHandler http.Handler
	server         *server.Server

	watchPath string
	watchOpts []config.WatcherOption
	watcher   *config.Watcher

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithJournalStore injects a journal store instead of connecting to
// journal.postgres_dsn.
func WithJournalStore(s journal.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLevelVar lets a config reload adjust the level of the caller's logger.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithMetricsHandler overrides the /metrics handler. Defaults to
// promhttp.Handler() when observe.metrics is enabled.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithConfigWatch hot-reloads the config file at path while [App.Run] is
// active.
func WithConfigWatch(path string, opts ...config.WatcherOption) Option {
	return func(a *App) {
		a.watchPath = path
		a.watchOpts = opts
	}
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from cfg. It connects to the journal database when one
// is configured and fails if it cannot.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.level == nil {
		a.level = new(slog.LevelVar)
		a.level.Set(cfg.Server.LogLevel.Level())
	}

	a.installPipeline(cfg.Pipeline)

	if err := a.initJournal(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init journal: %w", err)
	}

	if a.watchPath != "" {
		w, err := config.NewWatcher(a.watchPath, a.Reload, a.watchOpts...)
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("app: %w", err)
		}
		a.watcher = w
	}

	a.initServer()
	return a, nil
}

// NewPipeline builds a [transcript.Pipeline] from pc.
func NewPipeline(pc config.PipelineConfig, m *observe.Metrics) *transcript.Pipeline {
	pre, post, cleanup := pc.Rules()
	opts := []transcript.Option{
		transcript.WithPreRules(pre),
		transcript.WithPostRules(post),
		transcript.WithCleanupRules(cleanup),
		transcript.WithNumbers(pc.Numbers),
		transcript.WithMetrics(m),
	}
	if len(pc.Vocabulary) > 0 {
		matcher := phonetic.New(
			phonetic.WithPhoneticThreshold(pc.PhoneticThreshold),
			phonetic.WithFuzzyThreshold(pc.FuzzyThreshold),
		)
		opts = append(opts,
			transcript.WithVocabulary(matcher, pc.Vocabulary),
			transcript.WithVocabularyMinConfidence(pc.VocabularyMinConfidence),
		)
	}
	return transcript.New(opts...)
}

func (a *App) initJournal(ctx context.Context) error {
	if a.store == nil {
		if a.cfg.Journal.PostgresDSN == "" {
			return nil
		}
		store, err := postgres.NewStore(ctx, a.cfg.Journal.PostgresDSN)
		if err != nil {
			return err
		}
		a.store = store
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		slog.Info("journal connected")
	}

	a.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:         "journal",
		MaxFailures:  a.cfg.Journal.MaxFailures,
		ResetTimeout: a.cfg.Journal.ResetTimeout,
	})
	a.recorder = journal.NewRecorder(a.store,
		journal.WithBreaker(a.breaker),
		journal.WithErrorHook(func(ctx context.Context, op string, _ error) {
			a.metrics.RecordJournalError(ctx, op)
		}),
	)
	return nil
}

func (a *App) initServer() {
	checkers := []health.Checker{
		health.Canary("pipeline",
			func(s string) string { return a.Pipeline().Apply(s) },
			canaryInput,
			func() string { return a.active.Load().canaryWant },
		),
	}
	opts := []server.Option{server.WithMetrics(a.metrics)}
	if a.recorder != nil {
		checkers = append(checkers, health.Checker{Name: "journal", Check: a.recorder.Ping})
		opts = append(opts, server.WithRecorder(a.recorder), server.WithJournalReader(a.recorder))
	}
	opts = append(opts, server.WithHealth(health.New(checkers...)))

	if a.metricsHandler == nil && a.cfg.Observe.Metrics {
		a.metricsHandler = promhttp.Handler()
	}
	if a.metricsHandler != nil {
		opts = append(opts, server.WithMetricsHandler(a.metricsHandler))
	}

	a.server = server.New(func() transcript.Processor { return a.Pipeline() }, opts...)
	a.closers = append(a.closers, func() error {
		a.server.Close()
		return nil
	})
}

// installPipeline builds the pipeline for pc and makes it current. The
// canary expectation comes from a separate metrics-free instance built from
// the same settings, so the probe follows rule and stage changes.
func (a *App) installPipeline(pc config.PipelineConfig) {
	a.active.Store(&activePipeline{
		pipeline:   NewPipeline(pc, a.metrics),
		canaryWant: NewPipeline(pc, nil).Apply(canaryInput),
	})
}

// Pipeline returns the pipeline currently in effect.
func (a *App) Pipeline() *transcript.Pipeline {
	return a.active.Load().pipeline
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// ─── CLI path ────────────────────────────────────────────────────────────────

// ProcessLine runs one line of dictation through the current pipeline and
// journals it. It is the entry point for the command-line filter mode.
func (a *App) ProcessLine(ctx context.Context, line string) (string, error) {
	t := types.Transcript{Text: line, IsFinal: true}
	res, err := a.Pipeline().Process(ctx, t)
	if err != nil {
		return "", fmt.Errorf("app: process line: %w", err)
	}
	a.metrics.RecordTranscript(ctx, "cli")
	if a.recorder != nil && line != "" {
		a.recorder.Record(ctx, journal.Entry{RawText: line, Text: res.Text, Edits: len(res.Edits)})
	}
	return res.Text, nil
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP on server.listen_addr and, when configured, watches the
// config file. It blocks until ctx is cancelled or the server fails, and
// returns nil after a clean stop.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.ListenAndServe(ctx, a.cfg.Server.ListenAddr, a.cfg.Server.ShutdownTimeout)
	})
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(ctx) })
	}

	slog.Info("app running",
		"listen_addr", a.cfg.Server.ListenAddr,
		"journal", a.recorder != nil,
		"watch", a.watchPath,
	)
	return g.Wait()
}

// Reload applies a changed configuration. Log level and pipeline settings
// take effect immediately; anything else is logged as needing a restart.
// It is the [config.Watcher] callback.
func (a *App) Reload(old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged {
		a.level.Set(d.NewLogLevel.Level())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.PipelineChanged {
		a.installPipeline(new.Pipeline)
		slog.Info("pipeline reloaded",
			"numbers", new.Pipeline.Numbers,
			"default_rules", new.Pipeline.DefaultRules,
			"vocabulary", len(new.Pipeline.Vocabulary),
		)
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes require a restart to take effect", "settings", d.RestartRequired)
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.watcher != nil {
			a.watcher.Stop()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// closeAll releases what a failed New already opened.
func (a *App) closeAll() {
	for _, closer := range a.closers {
		_ = closer()
	}
}
