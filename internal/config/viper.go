// Package config reads launchsync settings through Viper.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentstation/launchsync/internal/resilient"
	"github.com/agentstation/launchsync/pkg/errors"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	// Check OS env directly first
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// GetAPIKey returns the first non-empty value among keys. Each key is
// looked up as given and as an upper-case environment variable name, so
// "spacedevs.api_key" also finds SPACEDEVS_API_KEY.
func GetAPIKey(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(GetString(key)); v != "" {
			return v
		}
		env := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return ""
}

// Resilience returns the breaker, retry, and limit policy for the named
// dependency. Values under "resilience.<name>" override the defaults
// field by field.
func Resilience(v *viper.Viper, name string) (resilient.Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	cfg := resilient.DefaultConfig(name)
	key := "resilience." + name
	if !v.IsSet(key) {
		return cfg, nil
	}
	if err := v.UnmarshalKey(key, &cfg); err != nil {
		return cfg, errors.NewConfigError(key, "invalid resilience settings", err)
	}
	cfg.Name = name
	return cfg, nil
}
