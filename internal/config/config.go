// Package config loads settings from defaults, an optional YAML file and
// PATHWISE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/pathwise/internal/auth"
	"github.com/abhisek/pathwise/internal/llm"
	"github.com/abhisek/pathwise/internal/logging"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/store/gcsrepo"
	"github.com/abhisek/pathwise/internal/store/redisrepo"
	"github.com/abhisek/pathwise/internal/tutor"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PATHWISE"

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendGCS    = "gcs"
)

type Config struct {
	LLM   LLMConfig   `mapstructure:"llm"`
	Store StoreConfig `mapstructure:"store"`
	Auth  AuthConfig  `mapstructure:"auth"`
	Log   LogConfig   `mapstructure:"log"`
	Audio AudioConfig `mapstructure:"audio"`
	Tutor TutorConfig `mapstructure:"tutor"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

type LLMConfig struct {
	Provider          string         `mapstructure:"provider"`
	Timeout           time.Duration  `mapstructure:"timeout"`
	MaxAttempts       int            `mapstructure:"max_attempts"`
	RequestsPerMinute int            `mapstructure:"requests_per_minute"`
	Burst             int            `mapstructure:"burst"`
	Gemini            ProviderConfig `mapstructure:"gemini"`
	OpenAI            ProviderConfig `mapstructure:"openai"`
	Anthropic         ProviderConfig `mapstructure:"anthropic"`
	OpenRouter        ProviderConfig `mapstructure:"openrouter"`
}

type ProviderConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	BaseURL     string `mapstructure:"base_url"`
	SpeechModel string `mapstructure:"speech_model"`
	Voice       string `mapstructure:"voice"`
}

type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	DBPath  string      `mapstructure:"db_path"`
	Redis   RedisConfig `mapstructure:"redis"`
	GCS     GCSConfig   `mapstructure:"gcs"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	EmulatorHost    string `mapstructure:"emulator_host"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AuthConfig struct {
	// Mode is "mock" (guest sign-in) or "local" (signed profile token).
	Mode      string        `mapstructure:"mode"`
	Name      string        `mapstructure:"name"`
	Email     string        `mapstructure:"email"`
	PhotoURL  string        `mapstructure:"photo_url"`
	Secret    string        `mapstructure:"secret"`
	TokenPath string        `mapstructure:"token_path"`
	TTL       time.Duration `mapstructure:"ttl"`
	MockDelay time.Duration `mapstructure:"mock_delay"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type AudioConfig struct {
	// Output is "device" (play through the sound card, falling back to
	// files) or "file" (always write WAV files to Dir).
	Output string `mapstructure:"output"`
	Dir    string `mapstructure:"dir"`
}

type TutorConfig struct {
	MaxTokens         int `mapstructure:"max_tokens"`
	CompressThreshold int `mapstructure:"compress_threshold"`
	KeepRecent        int `mapstructure:"keep_recent"`
}

func setDefaults(v *viper.Viper) {
	llmDef := llm.DefaultConfig()
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.timeout", llmDef.Timeout)
	v.SetDefault("llm.max_attempts", llmDef.Retry.MaxAttempts)
	v.SetDefault("llm.requests_per_minute", llmDef.RateLimit.RequestsPerMinute)
	v.SetDefault("llm.burst", llmDef.RateLimit.Burst)
	for _, p := range []string{"gemini", "openai", "anthropic", "openrouter"} {
		for _, k := range []string{"api_key", "model", "base_url", "speech_model", "voice"} {
			v.SetDefault("llm."+p+"."+k, "")
		}
	}

	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.db_path", "")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "pathwise")
	v.SetDefault("store.gcs.bucket", "")
	v.SetDefault("store.gcs.prefix", "")
	v.SetDefault("store.gcs.emulator_host", "")
	v.SetDefault("store.gcs.credentials_file", "")

	v.SetDefault("auth.mode", "mock")
	v.SetDefault("auth.name", "")
	v.SetDefault("auth.email", "")
	v.SetDefault("auth.photo_url", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_path", "")
	v.SetDefault("auth.ttl", 30*24*time.Hour)
	v.SetDefault("auth.mock_delay", 800*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("audio.output", "device")
	v.SetDefault("audio.dir", "")

	tutorDef := tutor.DefaultConfig()
	v.SetDefault("tutor.max_tokens", tutorDef.MaxTokens)
	v.SetDefault("tutor.compress_threshold", tutorDef.CompressThreshold)
	v.SetDefault("tutor.keep_recent", tutorDef.KeepRecent)
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml in Dir() is read when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short forms for the keys people set most.
	_ = v.BindEnv("llm.gemini.api_key", "PATHWISE_GEMINI_API_KEY", "PATHWISE_LLM_GEMINI_API_KEY")
	_ = v.BindEnv("llm.openai.api_key", "PATHWISE_OPENAI_API_KEY", "PATHWISE_LLM_OPENAI_API_KEY")
	_ = v.BindEnv("llm.anthropic.api_key", "PATHWISE_ANTHROPIC_API_KEY", "PATHWISE_LLM_ANTHROPIC_API_KEY")
	_ = v.BindEnv("llm.openrouter.api_key", "PATHWISE_OPENROUTER_API_KEY", "PATHWISE_LLM_OPENROUTER_API_KEY")
	_ = v.BindEnv("store.db_path", "PATHWISE_DB", "PATHWISE_STORE_DB_PATH")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.fillPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Dir is the pathwise directory under the XDG config home.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".pathwise")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pathwise")
}

func (c *Config) fillPaths() error {
	if c.Store.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		c.Store.DBPath = p
	}
	dataDir, err := store.DataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if c.Auth.TokenPath == "" {
		c.Auth.TokenPath = filepath.Join(dataDir, "session.jwt")
	}
	if c.Log.File == "" {
		c.Log.File = logging.DefaultFile()
	}
	if c.Audio.Dir == "" {
		c.Audio.Dir = filepath.Join(dataDir, "audio")
	}
	return nil
}

// Validate rejects unknown enumerations and missing required settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis backend")
		}
	case BackendGCS:
		if c.Store.GCS.Bucket == "" {
			return errors.New("store.gcs.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Auth.Mode {
	case "mock":
	case "local":
		if strings.TrimSpace(c.Auth.Name) == "" {
			return errors.New("auth.name is required for local sign-in")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}

	switch c.Audio.Output {
	case "device", "file":
	default:
		return fmt.Errorf("unknown audio output %q", c.Audio.Output)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// LLMConfig converts the llm section, falling back to the standard
// provider key variables when no provider is named.
func (c *Config) LLMConfig() (llm.Config, bool) {
	out := llm.DefaultConfig()
	provider := c.LLM.Provider

	if provider == "" {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			discovered, ok = c.keyedProvider()
		}
		if !ok {
			return out, false
		}
		out = discovered
		provider = discovered.Provider
	}
	out.Provider = provider

	overlay(&out.Gemini.APIKey, c.LLM.Gemini.APIKey)
	overlay(&out.Gemini.Model, c.LLM.Gemini.Model)
	overlay(&out.Gemini.SpeechModel, c.LLM.Gemini.SpeechModel)
	overlay(&out.Gemini.Voice, c.LLM.Gemini.Voice)

	overlay(&out.OpenAI.APIKey, c.LLM.OpenAI.APIKey)
	overlay(&out.OpenAI.Model, c.LLM.OpenAI.Model)
	overlay(&out.OpenAI.BaseURL, c.LLM.OpenAI.BaseURL)
	overlay(&out.OpenAI.SpeechModel, c.LLM.OpenAI.SpeechModel)
	overlay(&out.OpenAI.Voice, c.LLM.OpenAI.Voice)

	overlay(&out.Anthropic.APIKey, c.LLM.Anthropic.APIKey)
	overlay(&out.Anthropic.Model, c.LLM.Anthropic.Model)

	overlay(&out.OpenRouter.APIKey, c.LLM.OpenRouter.APIKey)
	overlay(&out.OpenRouter.Model, c.LLM.OpenRouter.Model)
	overlay(&out.OpenRouter.BaseURL, c.LLM.OpenRouter.BaseURL)

	if c.LLM.Timeout > 0 {
		out.Timeout = c.LLM.Timeout
	}
	if c.LLM.MaxAttempts > 0 {
		out.Retry.MaxAttempts = c.LLM.MaxAttempts
	}
	out.RateLimit.RequestsPerMinute = c.LLM.RequestsPerMinute
	if c.LLM.Burst > 0 {
		out.RateLimit.Burst = c.LLM.Burst
	}
	return out, true
}

// keyedProvider picks the first provider with a key in the config file.
func (c *Config) keyedProvider() (llm.Config, bool) {
	out := llm.DefaultConfig()
	switch {
	case c.LLM.Gemini.APIKey != "":
		out.Provider = "gemini"
	case c.LLM.OpenAI.APIKey != "":
		out.Provider = "openai"
	case c.LLM.Anthropic.APIKey != "":
		out.Provider = "anthropic"
	case c.LLM.OpenRouter.APIKey != "":
		out.Provider = "openrouter"
	default:
		return out, false
	}
	return out, true
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// TutorConfig converts the tutor section.
func (c *Config) TutorConfig() tutor.Config {
	out := tutor.DefaultConfig()
	if c.Tutor.MaxTokens > 0 {
		out.MaxTokens = c.Tutor.MaxTokens
	}
	if c.Tutor.CompressThreshold > 0 {
		out.CompressThreshold = c.Tutor.CompressThreshold
	}
	if c.Tutor.KeepRecent > 0 {
		out.KeepRecent = c.Tutor.KeepRecent
	}
	return out
}

// LoggingOptions converts the log section.
func (c *Config) LoggingOptions(console bool) logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Console:    console,
	}
}

// LocalAuth converts the auth section for auth.NewLocalProvider.
func (c *Config) LocalAuth() auth.LocalOptions {
	return auth.LocalOptions{
		Profile: auth.Profile{
			Name:     c.Auth.Name,
			Email:    c.Auth.Email,
			PhotoURL: c.Auth.PhotoURL,
		},
		TokenPath: c.Auth.TokenPath,
		Secret:    c.Auth.Secret,
		TTL:       c.Auth.TTL,
	}
}

// RedisOptions converts the redis store section.
func (c *Config) RedisOptions() redisrepo.Options {
	r := c.Store.Redis
	return redisrepo.Options{Addr: r.Addr, Password: r.Password, DB: r.DB, KeyPrefix: r.KeyPrefix}
}

// GCSOptions converts the gcs store section.
func (c *Config) GCSOptions() gcsrepo.Options {
	g := c.Store.GCS
	return gcsrepo.Options{
		Bucket:          g.Bucket,
		Prefix:          g.Prefix,
		EmulatorHost:    g.EmulatorHost,
		CredentialsFile: g.CredentialsFile,
	}
}
