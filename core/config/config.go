package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App       AppConfig
	MCP       MCPConfig
	Paths     PathsConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Scheduler SchedulerConfig
	Social    SocialConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
	ServerID           string
}

type MCPConfig struct {
	Port string
	Host string
}

type PathsConfig struct {
	Storages string
	Statics  string
	Media    string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

// LLMConfig points at the local inference server. LM Studio exposes an
// OpenAI-compatible API, so BaseURL is handed straight to the client.
type LLMConfig struct {
	Provider       string // "lmstudio" (default) or "gemini"
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
	MaxRetries     int
	GeminiAPIKey   string
	GeminiModel    string
}

type SchedulerConfig struct {
	Enabled         bool
	IntervalSeconds int
	Workers         int
	QueueSize       int
	LockTTLSeconds  int
}

type SocialConfig struct {
	MaxMediaSize int64
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	storages := getEnv("PATH_STORAGES", "storages")

	var basicAuth []string
	if v := getEnv("APP_BASIC_AUTH", ""); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := getEnv("APP_CORS_ALLOWED_ORIGINS", ""); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.4.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              getEnvBool("APP_DEBUG", false),
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
	}
	if v := getEnv("APP_TRUSTED_PROXIES", ""); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		Storages: storages,
		Statics:  getEnv("PATH_STATICS", "statics"),
		Media:    getEnv("PATH_MEDIA", filepath.Join("statics", "media")),
	}

	dbCfg := DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Name:            getEnv("DB_NAME", filepath.Join(storages, "inkwell.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "inkwell:"),
	}

	llmCfg := LLMConfig{
		Provider:       getEnv("LLM_PROVIDER", "lmstudio"),
		BaseURL:        getEnv("LM_STUDIO_API_URL", "http://localhost:1234/v1"),
		APIKey:         getEnv("LM_STUDIO_API_KEY", "lm-studio"),
		Model:          getEnv("LM_STUDIO_MODEL", ""),
		TimeoutSeconds: getEnvInt("LM_STUDIO_TIMEOUT", 30),
		MaxRetries:     getEnvInt("LM_STUDIO_RETRIES", 3),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
	}

	schedCfg := SchedulerConfig{
		Enabled:         getEnvBool("SCHEDULER_ENABLED", true),
		IntervalSeconds: getEnvInt("SCHEDULER_INTERVAL", 60),
		Workers:         getEnvInt("SCHEDULER_WORKERS", 4),
		QueueSize:       getEnvInt("SCHEDULER_QUEUE_SIZE", 100),
		LockTTLSeconds:  getEnvInt("SCHEDULER_LOCK_TTL", 120),
	}

	cfg := &Config{
		App:       appCfg,
		MCP:       MCPConfig{Port: getEnv("MCP_PORT", "8080"), Host: getEnv("MCP_HOST", "localhost")},
		Paths:     pathsCfg,
		Database:  dbCfg,
		LLM:       llmCfg,
		Scheduler: schedCfg,
		Social:    SocialConfig{MaxMediaSize: getEnvInt64("SOCIAL_MAX_MEDIA_SIZE", 20000000)},
	}

	Global = cfg
	return cfg, nil
}

// PostgresDSN builds the connection string used for the gorm connection
// and the LISTEN/NOTIFY wake listener.
func (c *DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port)
}
