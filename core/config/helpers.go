package config

import (
	"os"
	"strconv"
	"strings"
)

// GetAllSettings returns a map of the live configuration values exposed on
// the settings endpoint for diagnostics.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":        Global.App.Version,
		"app_debug":          Global.App.Debug,
		"app_environment":    Global.App.Environment,
		"db_driver":          Global.Database.Driver,
		"llm_provider":       Global.LLM.Provider,
		"llm_base_url":       Global.LLM.BaseURL,
		"llm_model":          Global.LLM.Model,
		"scheduler_enabled":  Global.Scheduler.Enabled,
		"scheduler_interval": Global.Scheduler.IntervalSeconds,
		"scheduler_workers":  Global.Scheduler.Workers,
		"valkey_enabled":     Global.Database.ValkeyEnabled,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}
