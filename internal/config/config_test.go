package config_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/dictee/internal/config"
	"github.com/MrWong99/dictee/pkg/phrase"
)

const fullYAML = `
server:
  listen_addr: "127.0.0.1:9000"
  log_level: debug
  shutdown_timeout: 3s
pipeline:
  numbers: true
  default_rules: true
  pre_rules:
    - from: " hashtag"
      to: "#"
  post_rules:
    - from: " point final"
      to: "."
  vocabulary:
    - Kubernetes
    - PostgreSQL
  vocabulary_min_confidence: 0.4
  phonetic_threshold: 0.75
  fuzzy_threshold: 0.9
journal:
  postgres_dsn: "postgres://localhost/dictee"
  max_failures: 3
  reset_timeout: 1m
observe:
  service_name: dictee-test
  metrics: false
`

func TestLoadFromReader_Full(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(fullYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	want := &config.Config{
		Server: config.ServerConfig{
			ListenAddr:      "127.0.0.1:9000",
			LogLevel:        config.LogDebug,
			ShutdownTimeout: 3 * time.Second,
		},
		Pipeline: config.PipelineConfig{
			Numbers:                 true,
			DefaultRules:            true,
			PreRules:                phrase.Rules{{From: " hashtag", To: "#"}},
			PostRules:               phrase.Rules{{From: " point final", To: "."}},
			Vocabulary:              []string{"Kubernetes", "PostgreSQL"},
			VocabularyMinConfidence: 0.4,
			PhoneticThreshold:       0.75,
			FuzzyThreshold:          0.9,
		},
		Journal: config.JournalConfig{
			PostgresDSN:  "postgres://localhost/dictee",
			MaxFailures:  3,
			ResetTimeout: time.Minute,
		},
		Observe: config.ObserveConfig{
			ServiceName: "dictee-test",
			Metrics:     false,
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromReader_EmptyUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromReader_PartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader("pipeline:\n  numbers: false\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Pipeline.Numbers {
		t.Error("pipeline.numbers = true, want false")
	}
	if !cfg.Pipeline.DefaultRules || cfg.Server.ListenAddr != ":8765" || cfg.Pipeline.PhoneticThreshold != 0.70 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("pipeline:\n  numbres: false\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
	if !strings.Contains(err.Error(), "numbres") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	yaml := `
server:
  listen_addr: ""
  log_level: bananas
pipeline:
  pre_rules:
    - from: ""
      to: "x"
  vocabulary: ["Grafana", "  "]
  vocabulary_min_confidence: 1.5
  phonetic_threshold: 0
journal:
  max_failures: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{
		"server.listen_addr",
		"server.log_level",
		"pipeline.pre_rules",
		"pipeline.vocabulary[1]",
		"pipeline.vocabulary_min_confidence",
		"pipeline.phonetic_threshold",
		"journal.max_failures",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got: %v", want, err)
		}
	}
}

func TestValidate_Default(t *testing.T) {
	t.Parallel()

	if err := config.Validate(config.Default()); err != nil {
		t.Errorf("Validate(Default()) = %v, want nil", err)
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q.IsValid() = false", l)
		}
	}
	if config.LogLevel("trace").IsValid() {
		t.Error(`"trace".IsValid() = true`)
	}
}

func TestPipelineConfig_Rules(t *testing.T) {
	t.Parallel()

	custom := phrase.Rules{{From: " hashtag", To: "#"}}

	p := config.Default().Pipeline
	p.PreRules = custom
	pre, post, cleanup := p.Rules()
	if len(pre) != len(phrase.DefaultPre)+1 || pre[0] != custom[0] {
		t.Errorf("pre rules = %d (first %+v), want custom rule first then defaults", len(pre), pre[0])
	}
	if len(post) != len(phrase.DefaultPost) || len(cleanup) != len(phrase.DefaultCleanup) {
		t.Errorf("post/cleanup = %d/%d, want defaults", len(post), len(cleanup))
	}

	p.DefaultRules = false
	pre, post, cleanup = p.Rules()
	if diff := cmp.Diff(custom, pre); diff != "" {
		t.Errorf("pre without defaults (-want +got):\n%s", diff)
	}
	if len(post) != 0 || len(cleanup) != 0 {
		t.Errorf("post/cleanup without defaults = %d/%d, want 0/0", len(post), len(cleanup))
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, config.ErrNoConfig) {
		t.Fatalf("Load(missing) error = %v, want ErrNoConfig", err)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dictee.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("listen_addr = %q, want %q", cfg.Server.ListenAddr, "127.0.0.1:9000")
	}
}

// Environment tests mutate process state and must not run in parallel.

func TestLoadFromReader_EnvOverridesYAML(t *testing.T) {
	t.Setenv("DICTEE_LISTEN_ADDR", ":7000")
	t.Setenv("DICTEE_LOG_LEVEL", "warn")
	t.Setenv("DICTEE_JOURNAL_DSN", "postgres://env/dictee")

	cfg, err := config.LoadFromReader(strings.NewReader(fullYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":7000" {
		t.Errorf("listen_addr = %q, want %q", cfg.Server.ListenAddr, ":7000")
	}
	if cfg.Server.LogLevel != config.LogWarn {
		t.Errorf("log_level = %q, want %q", cfg.Server.LogLevel, config.LogWarn)
	}
	if cfg.Journal.PostgresDSN != "postgres://env/dictee" {
		t.Errorf("postgres_dsn = %q, want env value", cfg.Journal.PostgresDSN)
	}
	// Values without an env override keep the YAML.
	if cfg.Observe.ServiceName != "dictee-test" {
		t.Errorf("service_name = %q, want %q", cfg.Observe.ServiceName, "dictee-test")
	}
}

func TestLoadDefaults_Env(t *testing.T) {
	t.Setenv("DICTEE_LOG_LEVEL", "error")

	cfg, err := config.LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if cfg.Server.LogLevel != config.LogError {
		t.Errorf("log_level = %q, want %q", cfg.Server.LogLevel, config.LogError)
	}

	t.Setenv("DICTEE_LISTEN_ADDR", ":7000")
	t.Setenv("DICTEE_JOURNAL_DSN", "postgres://env/dictee")
	t.Setenv("DICTEE_SHUTDOWN_TIMEOUT", "3s")
	cfg, err = config.LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if cfg.Server.ListenAddr != ":7000" || cfg.Journal.PostgresDSN != "postgres://env/dictee" {
		t.Errorf("listen_addr, postgres_dsn = %q, %q, want env values", cfg.Server.ListenAddr, cfg.Journal.PostgresDSN)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("shutdown_timeout = %s, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Pipeline.FuzzyThreshold != config.Default().Pipeline.FuzzyThreshold {
		t.Errorf("fuzzy_threshold = %v, want default", cfg.Pipeline.FuzzyThreshold)
	}

	t.Setenv("DICTEE_LOG_LEVEL", "loud")
	if _, err := config.LoadDefaults(); err == nil {
		t.Error("LoadDefaults with invalid env log level: want error")
	}
}

func TestUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	config.Usage(&buf)
	for _, env := range []string{"DICTEE_LISTEN_ADDR", "DICTEE_LOG_LEVEL", "DICTEE_JOURNAL_DSN"} {
		if !strings.Contains(buf.String(), env) {
			t.Errorf("usage missing %s:\n%s", env, buf.String())
		}
	}
}
