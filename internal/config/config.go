package config

import (
	"errors"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every recognized process setting. Values come from an
// optional config.yaml, then environment variables override field by field.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Line   LineConfig   `koanf:"line"`
	Model  ModelConfig  `koanf:"model"`
}

type ServerConfig struct {
	Port string `koanf:"port"`
}

type LineConfig struct {
	AccessToken     string `koanf:"access_token"`
	ChannelSecret   string `koanf:"channel_secret"`
	APIEndpoint     string `koanf:"api_endpoint"`
	ContentEndpoint string `koanf:"content_endpoint"`
}

type ModelConfig struct {
	Path       string `koanf:"path"`
	LabelsPath string `koanf:"labels_path"`
}

// Load reads configFile when it exists and applies environment overrides.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Server.Port = firstEnv(cfg.Server.Port, "PORT")
	cfg.Line.AccessToken = firstEnv(cfg.Line.AccessToken, "LINE_CHANNEL_ACCESS_TOKEN", "ACCESS_TOKEN")
	cfg.Line.ChannelSecret = firstEnv(cfg.Line.ChannelSecret, "LINE_CHANNEL_SECRET", "CHANNEL_SECRET")
	cfg.Model.Path = firstEnv(cfg.Model.Path, "MODEL_PATH")
	cfg.Model.LabelsPath = firstEnv(cfg.Model.LabelsPath, "MODEL_LABELS_PATH")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "3000"
	}
	if cfg.Line.APIEndpoint == "" {
		cfg.Line.APIEndpoint = "https://api.line.me"
	}
	if cfg.Line.ContentEndpoint == "" {
		cfg.Line.ContentEndpoint = "https://api-data.line.me"
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = "models/cloud_classifier.onnx"
	}
	if cfg.Model.LabelsPath == "" {
		cfg.Model.LabelsPath = "models/labels.json"
	}
}

func firstEnv(current string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return current
}
