// Package config persists the tool's settings as a JSON file and fills in
// defaults for anything missing, so a fresh install works with no setup.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Cache    CacheSettings    `json:"cache"`
	Metadata MetadataSettings `json:"metadata"`
	Torrents TorrentSettings  `json:"torrents"`
	History  HistorySettings  `json:"history"`
	Display  DisplaySettings  `json:"display"`
	Log      LogConfig        `json:"log"`
}

// CacheSettings locates the per-fingerprint show-fact cache.
type CacheSettings struct {
	Directory string `json:"directory"`
}

type MetadataSettings struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type TorrentSettings struct {
	BaseURL    string `json:"baseUrl"`
	MaxResults int    `json:"maxResults"`
}

type HistorySettings struct {
	DatabasePath string `json:"databasePath"`
}

// DisplaySettings holds the defaults for per-run presentation choices; the
// matching CLI flags override them for one invocation.
type DisplaySettings struct {
	// Delay shifts all air dates one day forward, for timezones where
	// episodes land the day after their listed date.
	Delay      bool `json:"delay"`
	AiringOnly bool `json:"airingOnly"`
}

type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxBackups int    `json:"maxBackups"`
	MaxAge     int    `json:"maxAge"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		Cache:    CacheSettings{Directory: defaultCacheDir()},
		Metadata: MetadataSettings{BaseURL: "https://api.tvmaze.com", TimeoutSeconds: 15},
		Torrents: TorrentSettings{BaseURL: "https://torrentproject.se", MaxResults: 5},
		History:  HistorySettings{DatabasePath: filepath.Join(defaultCacheDir(), "history.db")},
		Display:  DisplaySettings{},
		Log:      LogConfig{MaxSize: 10, MaxBackups: 3, MaxAge: 30},
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".seasonwatch"
	}
	return filepath.Join(base, "seasonwatch")
}

// DefaultPath resolves the settings file location: the SEASONWATCH_CONFIG
// env var when set, otherwise the user config directory.
func DefaultPath() string {
	if p := os.Getenv("SEASONWATCH_CONFIG"); p != "" {
		return p
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "settings.json"
	}
	return filepath.Join(base, "seasonwatch", "settings.json")
}

// Manager loads and saves one settings file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// Load reads the settings file, creating it with defaults when missing.
// Zero-valued fields from older config files are backfilled with defaults.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}

	defaults := DefaultSettings()
	if s.Cache.Directory == "" {
		s.Cache.Directory = defaults.Cache.Directory
	}
	if s.Metadata.BaseURL == "" {
		s.Metadata.BaseURL = defaults.Metadata.BaseURL
	}
	if s.Metadata.TimeoutSeconds <= 0 {
		s.Metadata.TimeoutSeconds = defaults.Metadata.TimeoutSeconds
	}
	if s.Torrents.BaseURL == "" {
		s.Torrents.BaseURL = defaults.Torrents.BaseURL
	}
	if s.Torrents.MaxResults <= 0 {
		s.Torrents.MaxResults = defaults.Torrents.MaxResults
	}
	if s.History.DatabasePath == "" {
		s.History.DatabasePath = defaults.History.DatabasePath
	}
	return s, nil
}

// Save writes the settings file, creating its directory if needed.
func (m *Manager) Save(s Settings) error {
	dir := filepath.Dir(m.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
