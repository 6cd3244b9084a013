package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned by [Load] when the config file does not exist.
// Callers that fall back to built-in defaults check for it with [errors.Is].
var ErrNoConfig = errors.New("config: file not found")

// Load reads the YAML configuration file at path, applies environment
// overrides and returns a validated [Config].
// Priority: ENV > YAML > [Default].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNoConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadDefaults returns [Default] with environment overrides applied, for
// running without a config file.
func LoadDefaults() (*Config, error) {
	cfg := Default()
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default], applies
// environment overrides and validates the result. Unknown keys are rejected.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Usage writes the supported environment variables to w.
func Usage(w io.Writer) {
	cleanenv.FUsage(w, Default(), nil)()
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", cfg.Server.ShutdownTimeout))
	}

	// Pipeline
	p := cfg.Pipeline
	if err := p.PreRules.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.pre_rules: %w", err))
	}
	if err := p.PostRules.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.post_rules: %w", err))
	}
	if p.VocabularyMinConfidence < 0 || p.VocabularyMinConfidence > 1 {
		errs = append(errs, fmt.Errorf("pipeline.vocabulary_min_confidence %.2f is out of range [0, 1]", p.VocabularyMinConfidence))
	}
	if p.PhoneticThreshold <= 0 || p.PhoneticThreshold > 1 {
		errs = append(errs, fmt.Errorf("pipeline.phonetic_threshold %.2f is out of range (0, 1]", p.PhoneticThreshold))
	}
	if p.FuzzyThreshold <= 0 || p.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("pipeline.fuzzy_threshold %.2f is out of range (0, 1]", p.FuzzyThreshold))
	}
	if p.FuzzyThreshold > 0 && p.FuzzyThreshold < p.PhoneticThreshold {
		slog.Warn("pipeline.fuzzy_threshold is below phonetic_threshold; spelling-only matches will be looser than phonetic ones",
			"fuzzy_threshold", p.FuzzyThreshold,
			"phonetic_threshold", p.PhoneticThreshold,
		)
	}

	// Vocabulary duplicate detection
	seen := make(map[string]int, len(p.Vocabulary))
	for i, term := range p.Vocabulary {
		key := strings.ToLower(strings.TrimSpace(term))
		if key == "" {
			errs = append(errs, fmt.Errorf("pipeline.vocabulary[%d] is empty", i))
			continue
		}
		if prev, ok := seen[key]; ok {
			slog.Warn("duplicate vocabulary term; the first spelling wins",
				"term", term,
				"index", i,
				"first", prev,
			)
			continue
		}
		seen[key] = i
	}

	if !p.DefaultRules && len(p.PreRules) == 0 && len(p.PostRules) == 0 && !p.Numbers {
		slog.Warn("pipeline has no active stage; text will pass through unchanged")
	}

	// Journal
	if cfg.Journal.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("journal.max_failures %d must not be negative", cfg.Journal.MaxFailures))
	}
	if cfg.Journal.ResetTimeout < 0 {
		errs = append(errs, fmt.Errorf("journal.reset_timeout %s must not be negative", cfg.Journal.ResetTimeout))
	}

	return errors.Join(errs...)
}
