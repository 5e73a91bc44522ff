package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. GIGSTATS_DATA_PATH.
const EnvPrefix = "GIGSTATS"

const dirName = ".gigstats"

// Global configuration structure.
type Global struct {
	// Dataset
	DataPath string `mapstructure:"data_path" yaml:"data_path"`

	// Narrative generation
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	ContextTokens   int     `mapstructure:"context_tokens" yaml:"context_tokens"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"data_path",
	"api_key",
	"default_provider",
	"default_model",
	"max_tokens",
	"temperature",
	"context_tokens",
	"http_timeout_sec",
	"retry_max_attempts",
	"retry_base_delay_ms",
	"retry_max_delay_ms",
	"ollama_host",
	"ollama_timeout_sec",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_path", "")
	v.SetDefault("api_key", "")
	v.SetDefault("default_provider", "ollama")
	v.SetDefault("default_model", "deepseek-r1:14b")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("context_tokens", 0)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_timeout_sec", 180)
}

// DefaultPath returns ~/.gigstats/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Load loads configuration from defaults, the config file, a .env file in the
// working directory and the environment.
// Precedence: env (including .env) > config file > defaults. Command flags are
// applied on top by the caller.
func Load(cfgFile string) (*Global, error) {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// OPENROUTER_API_KEY is the conventional name; honor it as a fallback.
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "OPENROUTER_API_KEY")
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Save writes the configuration to cfgFile, or to DefaultPath when empty,
// creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Set assigns a single key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	switch key {
	case "data_path":
		c.DataPath = val
	case "api_key":
		c.APIKey = val
	case "default_provider":
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "openrouter":
			c.DefaultProvider = "openrouter"
		case "ollama", "local":
			c.DefaultProvider = "ollama"
		default:
			return fmt.Errorf("invalid default_provider: %s (use openrouter or ollama)", val)
		}
	case "default_model":
		c.DefaultModel = val
	case "ollama_host":
		c.OllamaHost = val
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid temperature: %q (want 0..2)", val)
		}
		c.Temperature = f
	case "max_tokens", "context_tokens", "http_timeout_sec", "retry_max_attempts",
		"retry_base_delay_ms", "retry_max_delay_ms", "ollama_timeout_sec":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid non-negative int for %s: %q", key, val)
		}
		*c.intField(key) = i
	default:
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

func (c *Global) intField(key string) *int {
	switch key {
	case "max_tokens":
		return &c.MaxTokens
	case "context_tokens":
		return &c.ContextTokens
	case "http_timeout_sec":
		return &c.HTTPTimeoutSec
	case "retry_max_attempts":
		return &c.RetryMaxAttempts
	case "retry_base_delay_ms":
		return &c.RetryBaseDelayMs
	case "retry_max_delay_ms":
		return &c.RetryMaxDelayMs
	case "ollama_timeout_sec":
		return &c.OllamaTimeoutSec
	}
	return nil
}

// Get returns the string form of a key, masking the API key.
func (c *Global) Get(key string) (string, bool) {
	switch key {
	case "data_path":
		return c.DataPath, true
	case "api_key":
		return mask(c.APIKey), true
	case "default_provider":
		return c.DefaultProvider, true
	case "default_model":
		return c.DefaultModel, true
	case "ollama_host":
		return c.OllamaHost, true
	case "temperature":
		return strconv.FormatFloat(c.Temperature, 'f', -1, 64), true
	}
	if p := c.intField(key); p != nil {
		return strconv.Itoa(*p), true
	}
	return "", false
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
