package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, Default().Broker.SourceQueueName, cfg.Broker.SourceQueueName)
}

func TestLoadReadsJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"broker":{"host":"queue.example.com","port":4222},"catalog":{"driver":"mysql"}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "queue.example.com", cfg.Broker.Host)
	assert.Equal(t, "mysql", cfg.Catalog.Driver)
}

func TestLoadEnvOverlayWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"broker":{"host":"from-file"}}`), 0o644))

	t.Setenv("BROKER_HOST", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Broker.Host)
}

func TestLoadEnvOverlayOverridesBrokerPort(t *testing.T) {
	t.Setenv("BROKER_PORT", "4223")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4223, cfg.Broker.Port)
}

func TestLoadEnvOverlayIgnoresMalformedBrokerPort(t *testing.T) {
	t.Setenv("BROKER_PORT", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Broker.Port, cfg.Broker.Port)
}
