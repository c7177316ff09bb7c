package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const schemaVersion = 1

const (
	DefaultModel                 = "gpt-4.1-mini"
	DefaultListenAddr            = ":8080"
	DefaultRequestTimeoutSeconds = 60

	reasoningEffortNone    = "none"
	reasoningEffortMinimal = "minimal"
	reasoningEffortLow     = "low"
	reasoningEffortMedium  = "medium"
	reasoningEffortHigh    = "high"
)

type Settings struct {
	SchemaVersion         int      `json:"schema_version"`
	Model                 string   `json:"model"`
	BaseURL               string   `json:"base_url,omitempty"`
	ReasoningEffort       string   `json:"reasoning_effort"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds"`
	ListenAddr            string   `json:"listen_addr"`
	AllowedOrigins        []string `json:"allowed_origins"`
}

// RequestTimeout bounds a single call to the completion service.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSettings(), nil
		}
		return nil, err
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	backfillSettings(&settings)
	return &settings, nil
}

func (s *Store) Save(settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	backfillSettings(settings)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *Store) Update(fn func(*Settings)) (*Settings, error) {
	settings, err := s.Load()
	if err != nil {
		return nil, err
	}
	fn(settings)
	return settings, s.Save(settings)
}

func defaultSettings() *Settings {
	settings := &Settings{}
	backfillSettings(settings)
	return settings
}

func backfillSettings(settings *Settings) {
	if settings.SchemaVersion == 0 {
		settings.SchemaVersion = schemaVersion
	}
	settings.Model = strings.TrimSpace(settings.Model)
	if settings.Model == "" {
		settings.Model = DefaultModel
	}
	settings.BaseURL = strings.TrimSpace(settings.BaseURL)
	settings.ReasoningEffort = NormalizeReasoningEffort(settings.ReasoningEffort)
	if settings.RequestTimeoutSeconds <= 0 {
		settings.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if strings.TrimSpace(settings.ListenAddr) == "" {
		settings.ListenAddr = DefaultListenAddr
	}
	origins := settings.AllowedOrigins[:0]
	for _, origin := range settings.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	settings.AllowedOrigins = origins
}

// NormalizeReasoningEffort maps unknown values to medium.
func NormalizeReasoningEffort(value string) string {
	effort := strings.ToLower(strings.TrimSpace(value))
	switch effort {
	case reasoningEffortNone, reasoningEffortMinimal, reasoningEffortLow, reasoningEffortMedium, reasoningEffortHigh:
		return effort
	}
	return reasoningEffortMedium
}
