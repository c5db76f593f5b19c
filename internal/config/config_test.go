package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "funnel-analyzer", cfg.Service.Name)
	assert.Equal(t, 15, cfg.Funnel.MinEngagementSec)
	assert.Equal(t, "sign_up_complete", cfg.Funnel.ConversionEvent)
	assert.Len(t, cfg.Funnel.StageRules, 4)
	assert.Equal(t, domain.StageAwareness, cfg.Funnel.StageRules[0].Stage)
	assert.Equal(t, domain.StageConversion, cfg.Funnel.StageRules[3].Stage)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
service:
  port: 9000
funnel:
  min_engagement_sec: 30
  conversion_event: purchase_complete
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("FUNNEL_MIN_ENGAGEMENT_SEC", "45")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Service.Port)
	assert.Equal(t, "purchase_complete", cfg.Funnel.ConversionEvent)
	// Env always wins over YAML.
	assert.Equal(t, 45, cfg.Funnel.MinEngagementSec)
}

func TestLoad_CustomStageRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
funnel:
  stage_rules:
    - stage: AWARENESS
      trigger_events: [landing]
      trigger_pages: ["/"]
      priority: 1
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Funnel.StageRules, 1)
	assert.True(t, cfg.Funnel.StageRules[0].HasTriggerEvent("landing"))
}
