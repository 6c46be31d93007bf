package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the ice breaker service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Search    SearchConfig    `mapstructure:"search"`
	Identify  IdentifyConfig  `mapstructure:"identify"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Index     IndexConfig     `mapstructure:"index"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address     string `mapstructure:"address"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	AuthEnabled bool   `mapstructure:"auth_enabled"`
}

func (s ServerConfig) Validate() error {
	if s.AuthEnabled && strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret required when auth is enabled")
	}
	return nil
}

// SearchConfig selects and configures the external search provider.
// Exactly one provider is used per deployment.
type SearchConfig struct {
	Provider     string        `mapstructure:"provider"` // serpapi or googlecse
	SerpAPIKey   string        `mapstructure:"serpapi_key"`
	GoogleAPIKey string        `mapstructure:"google_api_key"`
	GoogleCSEID  string        `mapstructure:"google_cse_id"`
	MaxResults   int           `mapstructure:"max_results"`
	Retries      int           `mapstructure:"retries"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func (s SearchConfig) Validate() error {
	switch s.Provider {
	case "serpapi":
		if strings.TrimSpace(s.SerpAPIKey) == "" {
			return fmt.Errorf("search.serpapi_key required for serpapi provider")
		}
	case "googlecse":
		if strings.TrimSpace(s.GoogleAPIKey) == "" || strings.TrimSpace(s.GoogleCSEID) == "" {
			return fmt.Errorf("search.google_api_key and search.google_cse_id required for googlecse provider")
		}
	default:
		return fmt.Errorf("unsupported search provider: %s", s.Provider)
	}
	return nil
}

// IdentifyConfig bounds profile selection.
type IdentifyConfig struct {
	MaxProfiles int `mapstructure:"max_profiles"`
}

func (i IdentifyConfig) Normalize() IdentifyConfig {
	if i.MaxProfiles <= 0 {
		i.MaxProfiles = 5
	}
	return i
}

// ScrapeConfig controls profile fetching.
type ScrapeConfig struct {
	Mode            string             `mapstructure:"mode"` // http or browser
	Timeout         time.Duration      `mapstructure:"timeout"`
	MaxContentChars int                `mapstructure:"max_content_chars"`
	Concurrency     int                `mapstructure:"concurrency"`
	UserAgent       string             `mapstructure:"user_agent"`
	Policy          ScrapePolicyConfig `mapstructure:"policy"`
}

func (s ScrapeConfig) Validate() error {
	if s.Mode != "http" && s.Mode != "browser" {
		return fmt.Errorf("unsupported scrape mode: %s", s.Mode)
	}
	return s.Policy.Validate()
}

// LLMConfig selects the model backend: a remote OpenAI-compatible API or a
// local Ollama daemon serving file-backed models.
type LLMConfig struct {
	Backend string       `mapstructure:"backend"` // openai or ollama
	OpenAI  OpenAIConfig `mapstructure:"openai"`
	Ollama  OllamaConfig `mapstructure:"ollama"`
}

// OpenAIConfig configures the remote chat-completions backend.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// OllamaConfig configures the local model backend.
type OllamaConfig struct {
	Host        string        `mapstructure:"host"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	switch l.Backend {
	case "openai":
		if strings.TrimSpace(l.OpenAI.APIKey) == "" {
			return fmt.Errorf("llm.openai.api_key required for openai backend")
		}
	case "ollama":
		if strings.TrimSpace(l.Ollama.Model) == "" {
			return fmt.Errorf("llm.ollama.model required for ollama backend")
		}
	default:
		return fmt.Errorf("unsupported llm backend: %s", l.Backend)
	}
	return nil
}

// AgentConfig bounds the orchestration loop.
type AgentConfig struct {
	MaxIterations    int           `mapstructure:"max_iterations"`
	MaxExecutionTime time.Duration `mapstructure:"max_execution_time"`
	PromptCharBudget int           `mapstructure:"prompt_char_budget"`
}

func (a AgentConfig) Normalize() AgentConfig {
	if a.MaxIterations <= 0 {
		a.MaxIterations = 5
	}
	if a.MaxExecutionTime <= 0 {
		a.MaxExecutionTime = 60 * time.Second
	}
	if a.PromptCharBudget <= 0 {
		a.PromptCharBudget = 12000
	}
	return a
}

// StorageConfig selects the task store backend.
type StorageConfig struct {
	Backend         string         `mapstructure:"backend"` // memory, redis or postgres
	ResultTTL       time.Duration  `mapstructure:"result_ttl"`
	CleanupSchedule string         `mapstructure:"cleanup_schedule"`
	Redis           RedisConfig    `mapstructure:"redis"`
	Postgres        PostgresConfig `mapstructure:"postgres"`
}

func (s StorageConfig) Validate() error {
	switch s.Backend {
	case "memory":
		return nil
	case "redis":
		return s.Redis.Validate()
	case "postgres":
		return s.Postgres.Validate()
	default:
		return fmt.Errorf("unsupported storage backend: %s", s.Backend)
	}
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN renders a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// IndexConfig controls the optional full-text index over completed results.
type IndexConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // empty means in-memory
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from file, environment (ICEBREAK_*) and defaults.
// A missing config file is fine; anything else fatal.
func LoadConfig(path string) *Config {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("server.auth_enabled", false)
	viper.SetDefault("search.provider", "serpapi")
	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.retries", 2)
	viper.SetDefault("search.timeout", 15*time.Second)
	viper.SetDefault("identify.max_profiles", 5)
	viper.SetDefault("scrape.mode", "http")
	viper.SetDefault("scrape.timeout", 10*time.Second)
	viper.SetDefault("scrape.max_content_chars", 4000)
	viper.SetDefault("scrape.concurrency", 5)
	viper.SetDefault("scrape.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	viper.SetDefault("llm.backend", "openai")
	viper.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.openai.model", "gpt-4o-mini")
	viper.SetDefault("llm.openai.temperature", 0.7)
	viper.SetDefault("llm.openai.max_tokens", 2000)
	viper.SetDefault("llm.openai.timeout", 45*time.Second)
	viper.SetDefault("llm.ollama.host", "http://127.0.0.1:11434")
	viper.SetDefault("llm.ollama.model", "mistral")
	viper.SetDefault("llm.ollama.temperature", 0.7)
	viper.SetDefault("llm.ollama.timeout", 45*time.Second)
	viper.SetDefault("agent.max_iterations", 5)
	viper.SetDefault("agent.max_execution_time", 60*time.Second)
	viper.SetDefault("agent.prompt_char_budget", 12000)
	viper.SetDefault("storage.backend", "memory")
	viper.SetDefault("storage.result_ttl", time.Hour)
	viper.SetDefault("storage.cleanup_schedule", "0 * * * *")
	viper.SetDefault("index.enabled", false)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("ICEBREAK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Identify = config.Identify.Normalize()
	config.Agent = config.Agent.Normalize()

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.Scrape.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Validate(); err != nil {
		panic(err)
	}
	return &config
}
