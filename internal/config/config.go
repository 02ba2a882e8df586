// Package config holds service configuration with layered resolution:
// documented defaults, an optional YAML file, then environment overrides.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	// DefaultPort is the HTTP listen port.
	DefaultPort = "8080"

	// DefaultDBPath stores comparison history next to the binary.
	DefaultDBPath = "ghosted.db"

	// DefaultSaplingURL is the hosted Sapling AI detector endpoint.
	DefaultSaplingURL = "https://api.sapling.ai/api/v1/aidetect"

	// DefaultSaplingDailyQuota caps Sapling usage at the free tier's
	// daily character allowance.
	DefaultSaplingDailyQuota = 50_000

	// DefaultHFURL is the Hugging Face inference API root.
	DefaultHFURL = "https://api-inference.huggingface.co/models"

	// DefaultOllamaURL points at a local Ollama daemon.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultOllamaModel is the LLM used by the judge detectors.
	DefaultOllamaModel = "llama3.1:8b"

	// DefaultDetectTimeout bounds a single detector call. LLM judges on
	// modest hardware can take a while, so this is generous.
	DefaultDetectTimeout = 60 * time.Second

	// DefaultMaxScanChars limits scan and clean request bodies.
	DefaultMaxScanChars = 50_000

	// DefaultMaxDetectChars limits detect and compare request bodies,
	// which fan out to external services.
	DefaultMaxDetectChars = 10_000

	// DefaultExperimentResultsPath is where pre-generated experiment
	// data is read from.
	DefaultExperimentResultsPath = "data/experiment_results.json"
)

// Duration decodes YAML durations written in time.ParseDuration
// syntax, e.g. "90s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config is the resolved service configuration.
type Config struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	// RedisAddr enables the async job queue when non-empty.
	RedisAddr string `yaml:"redis_addr"`

	// CORSOrigins lists allowed origins; empty means allow all.
	CORSOrigins []string `yaml:"cors_origins"`

	SaplingAPIKey     string `yaml:"sapling_api_key"`
	SaplingURL        string `yaml:"sapling_url"`
	SaplingDailyQuota int    `yaml:"sapling_daily_quota"`

	HFToken string `yaml:"hf_token"`
	HFURL   string `yaml:"hf_url"`

	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`
	UseOllama   bool   `yaml:"use_ollama"`

	DetectTimeout  Duration `yaml:"detect_timeout"`
	MaxScanChars   int      `yaml:"max_scan_chars"`
	MaxDetectChars int      `yaml:"max_detect_chars"`

	ExperimentResultsPath string `yaml:"experiment_results_path"`
}

// NewDefault returns a Config populated with documented defaults.
func NewDefault() *Config {
	return &Config{
		Port:                  DefaultPort,
		DBPath:                DefaultDBPath,
		SaplingURL:            DefaultSaplingURL,
		SaplingDailyQuota:     DefaultSaplingDailyQuota,
		HFURL:                 DefaultHFURL,
		OllamaURL:             DefaultOllamaURL,
		OllamaModel:           DefaultOllamaModel,
		UseOllama:             true,
		DetectTimeout:         Duration(DefaultDetectTimeout),
		MaxScanChars:          DefaultMaxScanChars,
		MaxDetectChars:        DefaultMaxDetectChars,
		ExperimentResultsPath: DefaultExperimentResultsPath,
	}
}

// Load resolves the configuration. A missing file at path is not an
// error; the defaults plus environment overrides still apply. An
// unreadable or malformed file is.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables on top of whatever the file
// set. Every knob has an env name so container deployments never need
// the file.
func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitAndTrim(origins)
	}

	c.SaplingAPIKey = getEnv("SAPLING_API_KEY", c.SaplingAPIKey)
	c.SaplingURL = getEnv("SAPLING_URL", c.SaplingURL)
	c.SaplingDailyQuota = getEnvInt("SAPLING_DAILY_QUOTA", c.SaplingDailyQuota)

	c.HFToken = getEnv("HF_TOKEN", c.HFToken)
	c.HFURL = getEnv("HF_URL", c.HFURL)

	c.OllamaURL = getEnv("OLLAMA_URL", c.OllamaURL)
	c.OllamaModel = getEnv("OLLAMA_MODEL", c.OllamaModel)
	c.UseOllama = getEnvBool("USE_OLLAMA", c.UseOllama)

	c.DetectTimeout = Duration(getEnvDuration("DETECT_TIMEOUT", time.Duration(c.DetectTimeout)))
	c.MaxScanChars = getEnvInt("MAX_SCAN_CHARS", c.MaxScanChars)
	c.MaxDetectChars = getEnvInt("MAX_DETECT_CHARS", c.MaxDetectChars)

	c.ExperimentResultsPath = getEnv("EXPERIMENT_RESULTS_PATH", c.ExperimentResultsPath)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
