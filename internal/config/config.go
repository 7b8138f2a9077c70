package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const (
	ProviderGemini = "gemini" // REST generateContent
	ProviderGenAI  = "genai"  // google.golang.org/genai SDK
	ProviderMock   = "mock"

	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

type Config struct {
	Mode     Mode   `mapstructure:"mode"`
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	Provider        string        `mapstructure:"provider"` // "gemini", "genai" or "mock"
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	GeminiBaseURL   string        `mapstructure:"gemini_base_url"`
	GeminiModel     string        `mapstructure:"gemini_model"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	UseVertex       bool          `mapstructure:"use_vertex"`

	GCPProjectID string `mapstructure:"gcp_project"`
	GCPLocation  string `mapstructure:"gcp_location"`

	// Empty means application default credentials.
	GCPCredentialsFile string `mapstructure:"gcp_credentials_file"`

	ProfileBackend  string `mapstructure:"profile_backend"` // "memory", "sqlite" or "firestore"
	SQLitePath      string `mapstructure:"sqlite_path"`
	AllowDemoSignIn bool   `mapstructure:"allow_demo_signin"`

	NewsAPIKey      string        `mapstructure:"news_api_key"`
	NewsBaseURL     string        `mapstructure:"news_base_url"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	ArticleCacheTTL time.Duration `mapstructure:"article_cache_ttl"`

	CatalogFile string `mapstructure:"catalog_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeLocal))
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("provider", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("provider_timeout", 60*time.Second)
	v.SetDefault("use_vertex", false)

	v.SetDefault("gcp_project", "")
	v.SetDefault("gcp_location", "us-central1")
	v.SetDefault("gcp_credentials_file", "")

	v.SetDefault("profile_backend", BackendMemory)
	v.SetDefault("sqlite_path", "idefend.sqlite")
	v.SetDefault("allow_demo_signin", false)

	v.SetDefault("news_api_key", "")
	v.SetDefault("news_base_url", "https://newsapi.org/v2")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("article_cache_ttl", 15*time.Minute)

	v.SetDefault("catalog_file", "")
}

// Load reads IDEFEND_* environment variables, plus an optional YAML file
// named by IDEFEND_CONFIG_FILE, and builds the config.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("IDEFEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keys commonly exported without our prefix
	_ = v.BindEnv("gemini_api_key", "IDEFEND_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("news_api_key", "IDEFEND_NEWS_API_KEY", "NEWS_API_KEY")
	_ = v.BindEnv("port", "IDEFEND_PORT", "PORT")
	_ = v.BindEnv("config_file", "IDEFEND_CONFIG_FILE")

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	switch Mode(strings.ToLower(string(c.Mode))) {
	case ModeGCP:
		c.Mode = ModeGCP
	default:
		c.Mode = ModeLocal
	}

	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		// Without credentials local mode talks to the mock.
		switch {
		case c.GeminiAPIKey != "":
			c.Provider = ProviderGemini
		case c.UseVertex:
			c.Provider = ProviderGenAI
		default:
			c.Provider = ProviderMock
		}
	}
	c.ProfileBackend = strings.ToLower(strings.TrimSpace(c.ProfileBackend))
}

// Validate checks the combinations that would fail later at startup.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderMock:
	case ProviderGenAI:
		if c.UseVertex && c.GCPProjectID == "" {
			return fmt.Errorf("IDEFEND_GCP_PROJECT must be set to use Vertex AI")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.ProfileBackend {
	case BackendMemory, BackendSQLite:
	case BackendFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("IDEFEND_GCP_PROJECT is required for the firestore profile backend")
		}
	default:
		return fmt.Errorf("unknown profile backend %q", c.ProfileBackend)
	}

	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return fmt.Errorf("IDEFEND_GCP_PROJECT must be set in gcp mode")
	}
	return nil
}
