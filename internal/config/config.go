package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Model     ModelConfig     `mapstructure:"model"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Doubao    DoubaoConfig    `mapstructure:"doubao"`
	Qwen      QwenConfig      `mapstructure:"qwen"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Retry     RetryConfig     `mapstructure:"retry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Render    RenderConfig    `mapstructure:"render"`
	Display   DisplayConfig   `mapstructure:"display"`
	Storage   StorageConfig   `mapstructure:"storage"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type ModelConfig struct {
	Provider string `mapstructure:"provider"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type DoubaoConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type QwenConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float32       `mapstructure:"temperature"`
	TopP         float32       `mapstructure:"top_p"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

type AgentConfig struct {
	SystemPrompt     string  `mapstructure:"system_prompt"`
	SystemPromptFile string  `mapstructure:"system_prompt_file"`
	CritiquePrompt   string  `mapstructure:"critique_prompt"`
	CritiqueEnabled  bool    `mapstructure:"critique_enabled"`
	MaxRounds        int     `mapstructure:"max_rounds"`
	SnapshotScale    float64 `mapstructure:"snapshot_scale"`
	SnapshotQuality  int     `mapstructure:"snapshot_quality"`
	LogDebug         bool    `mapstructure:"log_debug"`
}

type RetryConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type RenderConfig struct {
	FontPath       string `mapstructure:"font_path"`
	EmojiFontPath  string `mapstructure:"emoji_font_path"`
	FontSize       int    `mapstructure:"font_size"`
	MaxDimension   int    `mapstructure:"max_dimension"`
	ImageBaseDir   string `mapstructure:"image_base_dir"`
	ImageCacheSize int    `mapstructure:"image_cache_size"`
}

type DisplayConfig struct {
	Backend       string        `mapstructure:"backend"`
	Tick          time.Duration `mapstructure:"tick"`
	PressDuration time.Duration `mapstructure:"press_duration"`
	SnapshotDir   string        `mapstructure:"snapshot_dir"`
}

type StorageConfig struct {
	Type           string        `mapstructure:"type"`
	DataDir        string        `mapstructure:"data_dir"`
	CacheSize      int           `mapstructure:"cache_size"`
	BackupInterval time.Duration `mapstructure:"backup_interval"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Font size bounds accepted from configuration.
const (
	MinFontSize = 8
	MaxFontSize = 72
)

var ErrMissingAPIKey = errors.New("missing API key")

var cfg *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("model.provider", "openai")
	for _, p := range []string{"openai", "doubao", "qwen"} {
		v.SetDefault(p+".api_key", "")
		v.SetDefault(p+".base_url", "")
		v.SetDefault(p+".model", "")
	}
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", "120s")
	v.SetDefault("doubao.timeout", "120s")
	v.SetDefault("qwen.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("qwen.model", "qwen-vl-max")
	v.SetDefault("qwen.max_tokens", 4096)
	v.SetDefault("qwen.temperature", 0.2)
	v.SetDefault("qwen.top_p", 0.9)
	v.SetDefault("qwen.timeout", "120s")

	v.SetDefault("agent.system_prompt_file", "prompts/system.txt")
	v.SetDefault("agent.critique_enabled", true)
	v.SetDefault("agent.max_rounds", 4)
	v.SetDefault("agent.snapshot_scale", 0.5)
	v.SetDefault("agent.snapshot_quality", 70)

	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", "2s")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 1)

	v.SetDefault("render.font_size", 24)
	v.SetDefault("render.max_dimension", 8192)
	v.SetDefault("render.image_base_dir", ".")
	v.SetDefault("render.image_cache_size", 16)

	v.SetDefault("display.backend", "glfw")
	v.SetDefault("display.tick", "16ms")
	v.SetDefault("display.press_duration", "120ms")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.cache_size", 64)
	v.SetDefault("storage.backup_interval", "0s")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
}

// Load reads configPath (yaml). A missing file is not an error: defaults and
// AGD_* environment variables still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AGD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyEnvFallbacks(c)
	cfg = c
	return c, nil
}

// applyEnvFallbacks fills credentials and the font size from the provider's
// conventional environment variables when the config leaves them empty.
func applyEnvFallbacks(c *Config) {
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if c.Doubao.APIKey == "" {
		if apiKey := os.Getenv("DOUBAO_API_KEY"); apiKey != "" {
			c.Doubao.APIKey = apiKey
		}
		if apiKey := os.Getenv("ARK_API_KEY"); apiKey != "" {
			c.Doubao.APIKey = apiKey
		}
	}
	if c.Qwen.APIKey == "" {
		c.Qwen.APIKey = os.Getenv("DASHSCOPE_API_KEY")
	}
	if s := os.Getenv("AGD_RENDER_FONT_SIZE"); s != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			c.Render.FontSize = n
		}
	}
	if c.Render.FontSize < MinFontSize || c.Render.FontSize > MaxFontSize {
		c.Render.FontSize = 24
	}
}

// APIKey returns the credential of the selected provider.
func (c *Config) APIKey() string {
	switch c.Model.Provider {
	case "openai":
		return c.OpenAI.APIKey
	case "doubao":
		return c.Doubao.APIKey
	case "qwen":
		return c.Qwen.APIKey
	}
	return ""
}

// Validate reports configuration the process cannot start without.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "openai", "doubao", "qwen":
	default:
		return fmt.Errorf("unsupported model provider %q", c.Model.Provider)
	}
	if c.APIKey() == "" {
		return fmt.Errorf("%w for provider %s", ErrMissingAPIKey, c.Model.Provider)
	}
	if c.Agent.MaxRounds < 1 {
		return fmt.Errorf("agent.max_rounds must be at least 1")
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1")
	}
	switch c.Display.Backend {
	case "glfw", "headless":
	default:
		return fmt.Errorf("unsupported display backend %q", c.Display.Backend)
	}
	switch c.Storage.Type {
	case "memory", "disk":
	default:
		return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
	}
	return nil
}

func Get() *Config {
	return cfg
}
