// Package config loads server settings from an optional YAML file, a .env
// file and the process environment, in that order of increasing precedence.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// TelemetryConfig selects the trace exporter: "stdout", "otlp" or empty for none.
type TelemetryConfig struct {
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

type Config struct {
	Port         string `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	JWTSecret    string `yaml:"jwt_secret"`
	// AnonKey is the public key every API request must present.
	AnonKey          string          `yaml:"anon_key"`
	OpenAI           OpenAIConfig    `yaml:"openai"`
	SMTP             SMTPConfig      `yaml:"smtp"`
	CORSOrigins      []string        `yaml:"cors_origins"`
	Telemetry        TelemetryConfig `yaml:"telemetry"`
	BackfillSchedule string          `yaml:"backfill_schedule"`
	LogLevel         string          `yaml:"log_level"`
}

// DefaultJWTSecret is the development signing secret used when none is configured.
const DefaultJWTSecret = "your-default-secret-key-change-in-production"

func defaultConfig() Config {
	return Config{
		Port:         "3001",
		DatabasePath: "./taskflow.db",
		JWTSecret:    DefaultJWTSecret,
		OpenAI: OpenAIConfig{
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o-mini",
		},
		CORSOrigins:      []string{"*"},
		BackfillSchedule: "*/10 * * * *",
		LogLevel:         "info",
	}
}

// Load reads the YAML file at path (skipped when path is empty) and applies
// environment overrides on top of it.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.Port, "PORT")
	set(&cfg.DatabasePath, "DATABASE_PATH")
	set(&cfg.JWTSecret, "JWT_SECRET")
	set(&cfg.AnonKey, "ANON_KEY")
	set(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	set(&cfg.OpenAI.EmbeddingModel, "EMBEDDING_MODEL")
	set(&cfg.OpenAI.ChatModel, "CHAT_MODEL")
	set(&cfg.SMTP.Host, "SMTP_HOST")
	set(&cfg.SMTP.Port, "SMTP_PORT")
	set(&cfg.SMTP.Username, "SMTP_USERNAME")
	set(&cfg.SMTP.Password, "SMTP_PASSWORD")
	set(&cfg.SMTP.From, "SMTP_FROM")
	set(&cfg.Telemetry.Exporter, "OTEL_EXPORTER")
	set(&cfg.Telemetry.Endpoint, "OTEL_ENDPOINT")
	set(&cfg.BackfillSchedule, "BACKFILL_SCHEDULE")
	set(&cfg.LogLevel, "LOG_LEVEL")

	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
}

// LoadEnv loads environment variables from a .env file. A missing file is
// not an error.
func LoadEnv(filename string) error {
	file, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		os.Setenv(key, value)
	}

	return scanner.Err()
}
