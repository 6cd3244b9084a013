package config_test

import (
	"slices"
	"testing"
	"time"

	"github.com/MrWong99/dictee/internal/config"
	"github.com/MrWong99/dictee/pkg/phrase"
)

func TestDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mutate       func(*config.Config)
		wantLevel    config.LogLevel
		wantPipeline bool
		wantRestart  []string
	}{
		{
			name:   "no changes",
			mutate: func(*config.Config) {},
		},
		{
			name:      "log level",
			mutate:    func(c *config.Config) { c.Server.LogLevel = config.LogDebug },
			wantLevel: config.LogDebug,
		},
		{
			name:         "vocabulary added",
			mutate:       func(c *config.Config) { c.Pipeline.Vocabulary = []string{"Grafana"} },
			wantPipeline: true,
		},
		{
			name: "rule edited",
			mutate: func(c *config.Config) {
				c.Pipeline.PostRules = phrase.Rules{{From: " point final", To: "."}}
			},
			wantPipeline: true,
		},
		{
			name:         "threshold",
			mutate:       func(c *config.Config) { c.Pipeline.FuzzyThreshold = 0.9 },
			wantPipeline: true,
		},
		{
			name: "restart-only settings",
			mutate: func(c *config.Config) {
				c.Server.ListenAddr = ":9999"
				c.Journal.PostgresDSN = "postgres://localhost/dictee"
				c.Observe.Metrics = false
			},
			wantRestart: []string{"server.listen_addr", "journal", "observe"},
		},
		{
			name:        "shutdown timeout",
			mutate:      func(c *config.Config) { c.Server.ShutdownTimeout = time.Minute },
			wantRestart: []string{"server.shutdown_timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			old := config.Default()
			updated := config.Default()
			tt.mutate(updated)

			d := config.Diff(old, updated)
			if d.LogLevelChanged != (tt.wantLevel != "") || d.NewLogLevel != tt.wantLevel {
				t.Errorf("log level diff = (%v, %q), want %q", d.LogLevelChanged, d.NewLogLevel, tt.wantLevel)
			}
			if d.PipelineChanged != tt.wantPipeline {
				t.Errorf("PipelineChanged = %v, want %v", d.PipelineChanged, tt.wantPipeline)
			}
			if !slices.Equal(d.RestartRequired, tt.wantRestart) {
				t.Errorf("RestartRequired = %v, want %v", d.RestartRequired, tt.wantRestart)
			}
		})
	}
}
