package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/crev/internal/analysis"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CREV_MODEL_PROVIDER", "CREV_MODEL_ID", "BEDROCK_MODEL_ID",
		"CREV_REGION", "AWS_REGION", "CREV_NARRATIVE_TIMEOUT",
		"CREV_LOG_LEVEL", "CREV_ADDR",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, analysis.DefaultPolicy(), cfg.Policy)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDefaultPath(t *testing.T) {
	clearEnv(t)
	dir, err := Dir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadOverlaysFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  addr: ":9000"
review:
  narrative_timeout: 5s
  progress_events: true
policy:
  max_findings_per_rule: 2
  quality:
    max_function_lines: 80
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Review.NarrativeTimeout)
	assert.True(t, cfg.Review.ProgressEvents)
	assert.Equal(t, 2, cfg.Policy.MaxFindingsPerRule)
	assert.Equal(t, 80, cfg.Policy.Quality.MaxFunctionLines)

	// Untouched keys keep their defaults.
	def := Default()
	assert.Equal(t, def.Policy.Quality.MaxLineLength, cfg.Policy.Quality.MaxLineLength)
	assert.Equal(t, def.Policy.SeverityWeights, cfg.Policy.SeverityWeights)
	assert.Equal(t, def.Review.MaxSubmissionBytes, cfg.Review.MaxSubmissionBytes)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "review:\n  narative_timeout: 5s\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"negative timeout": "review:\n  narrative_timeout: -1s\n",
		"zero cap":         "policy:\n  max_findings_per_rule: 0\n",
		"bad level":        "log:\n  level: loud\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-5-sonnet-20240620-v1:0")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("CREV_NARRATIVE_TIMEOUT", "15s")
	t.Setenv("CREV_LOG_LEVEL", "warn")

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, "anthropic.claude-3-5-sonnet-20240620-v1:0", cfg.Model.ID)
	assert.Equal(t, "eu-west-1", cfg.Model.Region)
	assert.Equal(t, 15*time.Second, cfg.Review.NarrativeTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Setenv("CREV_MODEL_ID", "claude-opus")
	t.Setenv("CREV_REGION", "us-west-2")
	t.Setenv("CREV_MODEL_PROVIDER", "none")
	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, "claude-opus", cfg.Model.ID)
	assert.Equal(t, "us-west-2", cfg.Model.Region)
	assert.Equal(t, "none", cfg.Model.Provider)
}

func TestApplyEnvBadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("CREV_NARRATIVE_TIMEOUT", "soon")

	cfg := Default()
	assert.Error(t, ApplyEnv(&cfg))
}

func TestMarshalRoundTrip(t *testing.T) {
	clearEnv(t)
	want := Default()
	want.Review.NarrativeTimeout = 90 * time.Second
	want.Policy.Complexity.MaxNestingDepth = 4

	data, err := Marshal(want)
	require.NoError(t, err)

	got, err := Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
