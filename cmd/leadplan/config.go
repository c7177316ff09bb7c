package main

import (
	"strings"

	"leadplan/engine/internal/engine"
	"leadplan/engine/internal/envutil"
	"leadplan/engine/internal/logging"
	"leadplan/engine/internal/settings"
)

const fakeAPIKey = "sk-fake-local"

// runConfig is everything a command needs, resolved once. Environment values
// win over the stored key, which wins over the settings file.
type runConfig struct {
	Engine         engine.Config
	ListenAddr     string
	AllowedOrigins []string
	Fake           bool
	KeySource      string
}

func (s *session) resolveConfig() (runConfig, error) {
	stored, err := s.settings.Load()
	if err != nil {
		return runConfig{}, err
	}
	storedKey, err := s.secrets.GetOpenAIKey()
	if err != nil {
		s.logger.Warn("leadplan.secrets_unreadable", "error", err.Error())
		storedKey = ""
	}
	cfg := buildRunConfig(stored, storedKey)
	s.logger.Debug("leadplan.config_resolved",
		"model", cfg.Engine.Model,
		"key_source", cfg.KeySource,
		"api_key", logging.RedactValue(cfg.Engine.APIKey),
		"fake", cfg.Fake,
		"listen_addr", cfg.ListenAddr,
	)
	return cfg, nil
}

func buildRunConfig(stored *settings.Settings, storedKey string) runConfig {
	cfg := runConfig{
		Engine: engine.Config{
			Model:           envutil.String("OPENAI_MODEL", stored.Model),
			BaseURL:         envutil.String("OPENAI_BASE_URL", stored.BaseURL),
			ReasoningEffort: settings.NormalizeReasoningEffort(envutil.String("LEADPLAN_REASONING_EFFORT", stored.ReasoningEffort)),
			RequestTimeout:  envutil.Duration("LEADPLAN_REQUEST_TIMEOUT", stored.RequestTimeout()),
		},
		ListenAddr:     envutil.String("LEADPLAN_LISTEN_ADDR", stored.ListenAddr),
		AllowedOrigins: stored.AllowedOrigins,
		Fake:           envutil.Bool("LEADPLAN_FAKE_OPENAI"),
	}
	if origins := envutil.String("LEADPLAN_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitCSV(origins)
	}
	switch key := envutil.String("OPENAI_API_KEY", ""); {
	case key != "":
		cfg.Engine.APIKey, cfg.KeySource = key, "env"
	case strings.TrimSpace(storedKey) != "":
		cfg.Engine.APIKey, cfg.KeySource = strings.TrimSpace(storedKey), "secrets"
	case cfg.Fake:
		cfg.Engine.APIKey, cfg.KeySource = fakeAPIKey, "fake"
	default:
		cfg.KeySource = "none"
	}
	if cfg.Engine.RequestTimeout <= 0 {
		cfg.Engine.RequestTimeout = engine.DefaultRequestTimeout
	}
	return cfg
}

func (s *session) newEngine(cfg runConfig) *engine.Engine {
	opts := []engine.Option{engine.WithLogger(s.logger.With("component", "engine"))}
	if cfg.Fake {
		opts = append(opts, engine.WithClient(engine.NewFakeClient()))
	}
	return engine.New(cfg.Engine, opts...)
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
