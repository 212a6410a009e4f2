package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration file is looked up
const DefaultPath = "config/config.yaml"

// Config represents the application configuration
type Config struct {
	Server struct {
		Port        int    `yaml:"port"`
		Host        string `yaml:"host"`
		BodyLimitMB int    `yaml:"body_limit_mb"`
	} `yaml:"server"`

	Storage struct {
		Database string `yaml:"database"`
	} `yaml:"storage"`

	OpenAI struct {
		APIKey    string `yaml:"api_key"`
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
	} `yaml:"openai"`

	Logging struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`

	Client struct {
		ServerURL      string `yaml:"server_url"`
		APIKey         string `yaml:"api_key"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		ExportDir      string `yaml:"export_dir"`
		Language       string `yaml:"language"`
	} `yaml:"client"`

	Speech struct {
		Engine       string `yaml:"engine"`
		ChromePath   string `yaml:"chrome_path"`
		Headless     bool   `yaml:"headless"`
		WhisperModel string `yaml:"whisper_model"`
		AudioFile    string `yaml:"audio_file"`
		TempDir      string `yaml:"temp_dir"`
	} `yaml:"speech"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 5000
	cfg.Server.BodyLimitMB = 4

	cfg.Storage.Database = "meetings.db"

	cfg.OpenAI.Model = "gpt-3.5-turbo"
	cfg.OpenAI.MaxTokens = 600

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Logging.MaxSizeMB = 50
	cfg.Logging.MaxBackups = 3
	cfg.Logging.MaxAgeDays = 14

	cfg.Client.ServerURL = "http://127.0.0.1:5000"
	cfg.Client.TimeoutSeconds = 120
	cfg.Client.ExportDir = "exports"
	cfg.Client.Language = "en-US"

	cfg.Speech.Engine = "auto"
	cfg.Speech.Headless = true
	cfg.Speech.WhisperModel = "small"
	cfg.Speech.TempDir = "temp"

	cfg.Cleanup.IntervalMinutes = 30
	cfg.Cleanup.MaxAgeHours = 24

	cfg.GoogleDrive.TokenFile = "token.json"
	cfg.GoogleDrive.FolderName = "Meeting Summaries"
	return cfg
}

// Load reads .env, the YAML file at path and environment overrides.
// A missing file is not an error; defaults are used instead.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("MEETING_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("MEETING_SERVER_URL"); v != "" {
		cfg.Client.ServerURL = v
	}
	if v := os.Getenv("MEETING_DB_PATH"); v != "" {
		cfg.Storage.Database = expandTilde(v)
	}
	if v := os.Getenv("MEETING_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MEETING_EXPORT_DIR"); v != "" {
		cfg.Client.ExportDir = expandTilde(v)
	}
	if v := os.Getenv("MEETING_SPEECH_ENGINE"); v != "" {
		cfg.Speech.Engine = strings.ToLower(v)
	}
}

// Addr is the listen address of the server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ClientTimeout is the HTTP timeout used by the client
func (c *Config) ClientTimeout() time.Duration {
	if c.Client.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Client.TimeoutSeconds) * time.Second
}

// DriveEnabled reports whether Google Drive credentials are configured and present
func (c *Config) DriveEnabled() bool {
	if c.GoogleDrive.CredentialsFile == "" {
		return false
	}
	_, err := os.Stat(c.GoogleDrive.CredentialsFile)
	return err == nil
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
