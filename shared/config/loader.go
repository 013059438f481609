package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultModel          = "gpt-3.5-turbo"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultPort           = "5000"
	DefaultPublicDir      = "public"
	DefaultMaxTokens      = 600
	DefaultTemperature    = 0.75
	DefaultTimeout        = 30 * time.Second
	DefaultProbeMaxTokens = 20
	DefaultProbeMessage   = "Reply with the single word: pong"
)

// Config is the process-wide configuration. It is read once at startup and
// never mutated afterwards.
type Config struct {
	APIKey      string        `yaml:"-"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`

	// AllowEmptyReply returns a blank upstream completion as a 200 instead of
	// treating it as a failure.
	AllowEmptyReply bool `yaml:"allow_empty_reply"`

	ProbeMessage   string `yaml:"probe_message"`
	ProbeMaxTokens int    `yaml:"probe_max_tokens"`

	Port        string   `yaml:"port"`
	PublicDir   string   `yaml:"public_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
	LogFile     string   `yaml:"log_file"`

	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig selects the span exporter. Exporter is one of "none",
// "stdout" or "otlp".
type TracingConfig struct {
	Exporter    string `yaml:"exporter"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// RelayEnabled reports whether an upstream API key is configured.
func (c *Config) RelayEnabled() bool {
	return c != nil && c.APIKey != ""
}

// Default returns a Config populated with built-in defaults only.
func Default() *Config {
	return &Config{
		Model:          DefaultModel,
		BaseURL:        DefaultBaseURL,
		MaxTokens:      DefaultMaxTokens,
		Temperature:    DefaultTemperature,
		Timeout:        DefaultTimeout,
		ProbeMessage:   DefaultProbeMessage,
		ProbeMaxTokens: DefaultProbeMaxTokens,
		Port:           DefaultPort,
		PublicDir:      DefaultPublicDir,
		CORSOrigins:    []string{"*"},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "relai-chat",
		},
	}
}

// LoadConfig builds the configuration from, in increasing precedence:
// built-in defaults, the YAML file at path (or $RELAI_CONFIG), and the
// process environment. A local .env file is loaded into the environment
// first without overriding variables that are already set. A missing YAML
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("RELAI_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	log.Printf("Configuration loaded from %s", path)
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.Model = getEnvOrDefault("OPENAI_MODEL", cfg.Model)
	cfg.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", cfg.BaseURL)
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.PublicDir = getEnvOrDefault("PUBLIC_DIR", cfg.PublicDir)
	cfg.LogFile = getEnvOrDefault("LOG_FILE", cfg.LogFile)
	cfg.ProbeMessage = getEnvOrDefault("PROBE_MESSAGE", cfg.ProbeMessage)
	cfg.Tracing.Exporter = getEnvOrDefault("OTEL_TRACES_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.ServiceName = getEnvOrDefault("OTEL_SERVICE_NAME", cfg.Tracing.ServiceName)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	var err error
	if cfg.MaxTokens, err = getEnvAsInt("OPENAI_MAX_TOKENS", cfg.MaxTokens); err != nil {
		return err
	}
	if cfg.ProbeMaxTokens, err = getEnvAsInt("PROBE_MAX_TOKENS", cfg.ProbeMaxTokens); err != nil {
		return err
	}
	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid OPENAI_TEMPERATURE %q: %w", v, err)
		}
		cfg.Temperature = float32(t)
	}
	if v := os.Getenv("OPENAI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid OPENAI_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("ALLOW_EMPTY_REPLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ALLOW_EMPTY_REPLY %q: %w", v, err)
		}
		cfg.AllowEmptyReply = b
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
