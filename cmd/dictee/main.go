// Command dictee post-processes French dictation: spelled-out numbers become
// digits and spoken punctuation becomes symbols.
//
// Usage:
//
//	dictee -text "il y a vingt et un chats point"   # one-shot
//	dictee < raw.txt                                # line filter
//	dictee -serve                                   # HTTP + WebSocket API
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/dictee/internal/app"
	"github.com/MrWong99/dictee/internal/config"
	"github.com/MrWong99/dictee/internal/observe"
)

// version is set at build time via -ldflags "-X main.version=…".
var version = "dev"

const defaultConfigPath = "dictee.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", defaultConfigPath, "path to the YAML configuration file")
	text := flag.String("text", "", "process this text, print the result and exit")
	serve := flag.Bool("serve", false, "serve the HTTP and WebSocket API")
	flag.Usage = usage
	flag.Parse()

	explicitConfig := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicitConfig = true
		}
	})

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, watchPath, err := loadConfig(*configPath, explicitConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dictee: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(cfg.Server.LogLevel.Level())
	slog.SetDefault(newLogger(level))

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry (server mode only) ──────────────────────────────────────────
	opts := []app.Option{app.WithLevelVar(level)}
	if *serve {
		tel, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    cfg.Observe.ServiceName,
			ServiceVersion: version,
		})
		if err != nil {
			slog.Error("failed to initialise telemetry", "err", err)
			return 1
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tel.Shutdown(sctx); err != nil {
				slog.Warn("telemetry shutdown error", "err", err)
			}
		}()
		if cfg.Observe.Metrics {
			opts = append(opts, app.WithMetricsHandler(tel.MetricsHandler()))
		}
		if watchPath != "" {
			opts = append(opts, app.WithConfigWatch(watchPath))
		}
	}

	application, err := app.New(ctx, cfg, opts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+time.Second)
		defer cancel()
		if err := application.Shutdown(sctx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	switch {
	case *serve:
		slog.Info("dictee starting",
			"version", version,
			"config", watchPath,
			"listen_addr", cfg.Server.ListenAddr,
			"log_level", cfg.Server.LogLevel,
		)
		if err := application.Run(ctx); err != nil {
			slog.Error("run error", "err", err)
			return 1
		}
		slog.Info("shutdown signal received, stopping…")

	case *text != "":
		out, err := application.ProcessLine(ctx, *text)
		if err != nil {
			slog.Error("process failed", "err", err)
			return 1
		}
		fmt.Println(out)

	default:
		if err := filter(ctx, application, os.Stdin, os.Stdout); err != nil {
			slog.Error("filter failed", "err", err)
			return 1
		}
	}
	return 0
}

// loadConfig reads the config file. A missing file at the default path means
// built-in defaults with no file to watch; a missing file the user named
// explicitly is an error.
func loadConfig(path string, explicit bool) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	switch {
	case err == nil:
		return cfg, path, nil
	case errors.Is(err, config.ErrNoConfig) && !explicit:
		cfg, err := config.LoadDefaults()
		if err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	default:
		return nil, "", err
	}
}

// filter processes r line by line, writing one output line per input line.
// It stops at EOF or when ctx is cancelled.
func filter(ctx context.Context, a *app.App, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for sc.Scan() {
		out, err := a.ProcessLine(ctx, sc.Text())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(bw, out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		// Flush per line so interactive hosts see each result immediately.
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags]\n\n", os.Args[0])
	fmt.Fprintln(out, "Without -text or -serve, dictee reads stdin and writes one processed line per input line.")
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	config.Usage(out)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger writes text logs to stderr so stdout stays reserved for output.
func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
