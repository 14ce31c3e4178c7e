package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DataPath     string
	UploadPath   string
	PropsPath    string
	RenderPath   string
	DBPath       string
	CORSOrigins  []string
	MaxUploadMB  int64
	PollInterval time.Duration

	TranscribeProvider string
	AssemblyAIKey      string
	OpenAIKey          string
	GeminiKey          string
	AnthropicKey       string
}

// LoadEnvFiles preloads variables from .env files. Missing files are
// skipped and variables already set in the environment win.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "5000"))
	if err != nil || port <= 0 {
		return nil, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "512"), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB %q", os.Getenv("MAX_UPLOAD_MB"))
	}

	poll, err := time.ParseDuration(getEnv("POLL_INTERVAL", "3s"))
	if err != nil || poll <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL %q", os.Getenv("POLL_INTERVAL"))
	}

	dataPath := getEnv("DATA_PATH", "./data")

	return &Config{
		Port:         port,
		DataPath:     dataPath,
		UploadPath:   getEnv("UPLOAD_PATH", filepath.Join(dataPath, "uploads")),
		PropsPath:    getEnv("PROPS_PATH", filepath.Join(dataPath, "props")),
		RenderPath:   getEnv("RENDER_PATH", filepath.Join(dataPath, "renders")),
		DBPath:       getEnv("DB_PATH", filepath.Join(dataPath, "capgen.db")),
		CORSOrigins:  splitList(os.Getenv("CORS_ORIGINS"), []string{"*"}),
		MaxUploadMB:  maxUpload,
		PollInterval: poll,

		TranscribeProvider: getEnv("TRANSCRIBE_PROVIDER", "assemblyai"),
		AssemblyAIKey:      os.Getenv("ASSEMBLYAI_API_KEY"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		GeminiKey:          os.Getenv("GEMINI_API_KEY"),
		AnthropicKey:       os.Getenv("ANTHROPIC_API_KEY"),
	}, nil
}

// MaxUploadBytes is the multipart body limit for media uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// APIKey returns the configured key for a provider name.
func (c *Config) APIKey(provider string) string {
	switch strings.ToLower(provider) {
	case "assemblyai", "":
		return c.AssemblyAIKey
	case "openai":
		return c.OpenAIKey
	case "gemini":
		return c.GeminiKey
	case "anthropic":
		return c.AnthropicKey
	}
	return ""
}

// EnsureDirs creates every directory the server writes into.
func (c *Config) EnsureDirs() error {
	dirs := []string{c.DataPath, c.UploadPath, c.PropsPath, c.RenderPath, filepath.Dir(c.DBPath)}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}
	return nil
}

// comma-separated list, blanks dropped
func splitList(v string, fallback []string) []string {
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
