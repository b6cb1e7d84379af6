/*
config.go - Server configuration

PURPOSE:
  Resolves the server settings from, in order of precedence:
  command-line flags, environment variables, an optional config file,
  then built-in defaults.

KEYS (env var is the upper-case key):
  host               127.0.0.1
  port               8000
  database_url       transactsync.db   (sqlite path, sqlite://, postgres://)
  api_key            ""                (empty disables the access gate)
  cors_origins       *                 (comma separated)
  log_level          info              (debug, info, warn, error)
  log_format         console           (console, json)
  db_max_open_conns  10                (postgres only)

SEE ALSO:
  - cmd/server/main.go: Flag registration and startup
*/
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyHost           = "host"
	KeyPort           = "port"
	KeyDatabaseURL    = "database_url"
	KeyAPIKey         = "api_key"
	KeyCORSOrigins    = "cors_origins"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyDBMaxOpenConns = "db_max_open_conns"
)

// Config holds the resolved server settings.
type Config struct {
	Host           string
	Port           int
	DatabaseURL    string
	APIKey         string
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string
	DBMaxOpenConns int
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RegisterFlags adds the server flags to fs and binds each to its key in v.
func RegisterFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("host", "127.0.0.1", "interface to listen on")
	fs.Int("port", 8000, "HTTP server port")
	fs.String("database-url", "transactsync.db", "database URL or SQLite path (use :memory: for an in-memory database)")
	fs.String("api-key", "", "shared secret required in X-API-Key (empty disables the check)")
	fs.String("cors-origins", "*", "comma separated list of allowed CORS origins")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "console", "log format (console, json)")
	fs.Int("db-max-open-conns", 10, "maximum open connections (postgres only)")

	for key, flag := range map[string]string{
		KeyHost:           "host",
		KeyPort:           "port",
		KeyDatabaseURL:    "database-url",
		KeyAPIKey:         "api-key",
		KeyCORSOrigins:    "cors-origins",
		KeyLogLevel:       "log-level",
		KeyLogFormat:      "log-format",
		KeyDBMaxOpenConns: "db-max-open-conns",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load resolves the configuration from v. configFile is optional; when set
// it must exist and parse.
func Load(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{
		Host:           v.GetString(KeyHost),
		Port:           v.GetInt(KeyPort),
		DatabaseURL:    v.GetString(KeyDatabaseURL),
		APIKey:         v.GetString(KeyAPIKey),
		CORSOrigins:    splitList(v.GetStringSlice(KeyCORSOrigins)),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:      strings.ToLower(v.GetString(KeyLogFormat)),
		DBMaxOpenConns: v.GetInt(KeyDBMaxOpenConns),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %q", c.LogFormat)
	}
	if c.DBMaxOpenConns < 1 {
		return fmt.Errorf("invalid db_max_open_conns: %d", c.DBMaxOpenConns)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHost, "127.0.0.1")
	v.SetDefault(KeyPort, 8000)
	v.SetDefault(KeyDatabaseURL, "transactsync.db")
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyCORSOrigins, "*")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyDBMaxOpenConns, 10)
}

// splitList accepts both list values (config file) and comma separated
// strings (env, flags).
func splitList(values []string) []string {
	parts := lo.FlatMap(values, func(s string, _ int) []string {
		return strings.Split(s, ",")
	})
	return lo.Compact(lo.Map(parts, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}
