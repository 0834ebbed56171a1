package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "https://api.line.me", cfg.Line.APIEndpoint)
	assert.Equal(t, "https://api-data.line.me", cfg.Line.ContentEndpoint)
	assert.Equal(t, "models/cloud_classifier.onnx", cfg.Model.Path)
	assert.Equal(t, "models/labels.json", cfg.Model.LabelsPath)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: \"8081\"\nline:\n  access_token: file-token\nmodel:\n  labels_path: data/labels.json\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "file-token", cfg.Line.AccessToken)
	assert.Equal(t, "data/labels.json", cfg.Model.LabelsPath)
	assert.Equal(t, "models/cloud_classifier.onnx", cfg.Model.Path)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"8081\"\n"), 0o600))

	t.Setenv("PORT", "9000")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "env-token")
	t.Setenv("CHANNEL_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "env-token", cfg.Line.AccessToken)
	assert.Equal(t, "env-secret", cfg.Line.ChannelSecret)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
