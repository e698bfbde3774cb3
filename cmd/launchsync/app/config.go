package app

import (
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/launchsync/internal/config"
	"github.com/agentstation/launchsync/internal/resilient"
	"github.com/agentstation/launchsync/internal/server"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Storage
	DatabaseDriver string
	DatabaseDSN    string

	// Providers
	SpaceDevsURL    string
	SpaceDevsAPIKey string
	LedgerEnabled   bool
	LedgerURL       string
	TruthThreshold  float64
	FactCacheTTL    time.Duration
	Resilience      []resilient.Config

	// Sync
	SyncLimit        int
	AutoSyncInterval time.Duration

	// HTTP server
	Server server.Config

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// setDefaults registers the default of every key so env vars and config
// files only need to name what they change.
func setDefaults(v *viper.Viper) {
	srv := server.DefaultConfig()

	v.SetDefault("database.driver", constants.DefaultDatabaseDriver)
	v.SetDefault("database.dsn", constants.DefaultDatabaseDSN)
	v.SetDefault("spacedevs.base_url", constants.SpaceDevsBaseURL)
	v.SetDefault("spacedevs.rate_per_second", constants.SpaceDevsRatePerSecond)
	v.SetDefault("truthledger.enabled", true)
	v.SetDefault("truthledger.base_url", constants.TruthLedgerBaseURL)
	v.SetDefault("truthledger.rate_per_second", constants.TruthLedgerRatePerSecond)
	v.SetDefault("truthledger.threshold", constants.DefaultTruthThreshold)
	v.SetDefault("truthledger.fact_cache_ttl", constants.FactCacheTTL)
	v.SetDefault("sync.limit", constants.DefaultSyncLimit)
	v.SetDefault("sync.interval", time.Duration(0))
	v.SetDefault("server.host", srv.Host)
	v.SetDefault("server.port", srv.Port)
	v.SetDefault("server.path_prefix", srv.PathPrefix)
	v.SetDefault("server.metrics", srv.MetricsEnabled)
	v.SetDefault("server.sync_timeout", srv.SyncTimeout)
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (path, or ~/.launchsync.yaml and ./.launchsync.yaml)
// 5. Defaults
func LoadConfig(path string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.GetViper()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".launchsync")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "cannot read "+path, err)
		}
	}

	cfg := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		DatabaseDriver: v.GetString("database.driver"),
		DatabaseDSN:    v.GetString("database.dsn"),

		SpaceDevsURL:    v.GetString("spacedevs.base_url"),
		SpaceDevsAPIKey: config.GetAPIKey("spacedevs.api_key", "SPACEDEVS_API_KEY"),
		LedgerEnabled:   v.GetBool("truthledger.enabled"),
		LedgerURL:       v.GetString("truthledger.base_url"),
		TruthThreshold:  v.GetFloat64("truthledger.threshold"),
		FactCacheTTL:    v.GetDuration("truthledger.fact_cache_ttl"),

		SyncLimit:        v.GetInt("sync.limit"),
		AutoSyncInterval: v.GetDuration("sync.interval"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	cfg.Server = server.DefaultConfig()
	cfg.Server.Host = v.GetString("server.host")
	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.PathPrefix = v.GetString("server.path_prefix")
	cfg.Server.MetricsEnabled = v.GetBool("server.metrics")
	cfg.Server.SyncTimeout = v.GetDuration("server.sync_timeout")
	if cfg.Server.WriteTimeout < cfg.Server.SyncTimeout {
		cfg.Server.WriteTimeout = cfg.Server.SyncTimeout + time.Minute
	}

	// A provider's rate_per_second applies unless its resilience block sets one
	for _, name := range []string{constants.SourceSpaceDevs, constants.SourceTruthLedger} {
		rc, err := config.Resilience(v, name)
		if err != nil {
			return nil, err
		}
		if !v.IsSet("resilience." + name + ".limit.rate_per_second") {
			rc.Limit.RatePerSecond = v.GetFloat64(name + ".rate_per_second")
		}
		cfg.Resilience = append(cfg.Resilience, rc)
	}

	return cfg, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		// godotenv.Load never overrides a variable that is already set
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
