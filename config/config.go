package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system,
// such as server settings, storage backend selection and market data acquisition.
//
// Example YAML/ENV equivalent:
//
//	SERVER_PORT=8080
//	STORAGE_BACKEND=postgres
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=tfpulse
//	POSTGRES_SSLMODE=disable
//	CLICKHOUSE_HOST=localhost
//	CLICKHOUSE_PORT=9000
//	PROVIDER_BASE_URL=https://data.example.com
//	PROVIDER_CACHE_DIR=.cache
type Config struct {
	Server     ServerConfig     // HTTP server configuration
	Storage    StorageConfig    // Which bar store backs the service
	Postgres   PostgresConfig   // PostgreSQL connection settings
	ClickHouse ClickHouseConfig // ClickHouse connection settings
	Provider   ProviderConfig   // Remote market data acquisition
	Export     ExportConfig     // Default series export format
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string // The TCP port the HTTP server will listen on (e.g., "8080")
}

// StorageConfig selects the bar repository backend.
//
// Backend is either "postgres" or "clickhouse".
type StorageConfig struct {
	Backend string
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// ClickHouseConfig defines connection details for ClickHouse.
//
// Addr is the computed "host:port" native-protocol address.
type ClickHouseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Addr     string
}

// ProviderConfig configures the remote bar provider used by fetch mode.
//
// Fields:
//   - BaseURL: root of the aggregates HTTP API. Empty disables fetching.
//   - APIKey: bearer token sent with each request, if the API wants one.
//   - RatePerSecond: client-side request rate cap.
//   - CacheDir: directory for the on-disk fetch cache.
//   - TimeoutSeconds: per-request HTTP timeout.
type ProviderConfig struct {
	BaseURL        string
	APIKey         string
	RatePerSecond  float64
	CacheDir       string
	TimeoutSeconds int
}

// ExportConfig holds the default format for series downloads
// ("csv", "json", "parquet" or "arrow").
type ExportConfig struct {
	Format string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
// All services should import this package and read from AppConfig instead of
// reloading environment variables directly.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Behavior:
//   - Sets defaults for all required fields.
//   - Reads environment variables automatically with viper.AutomaticEnv().
//   - Constructs the PostgreSQL DSN and the ClickHouse address.
//   - Calls validateConfig() to ensure required fields are present.
//
// Fatal exit:
//   - If required variables are missing, validateConfig() will terminate the app
//     with a descriptive log message.
func LoadConfig() {
	// Default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("STORAGE_BACKEND", "postgres")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "tfpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("CLICKHOUSE_HOST", "localhost")
	viper.SetDefault("CLICKHOUSE_PORT", 9000)
	viper.SetDefault("CLICKHOUSE_USER", "default")
	viper.SetDefault("CLICKHOUSE_PASSWORD", "")
	viper.SetDefault("CLICKHOUSE_DB", "tfpulse")

	viper.SetDefault("PROVIDER_BASE_URL", "")
	viper.SetDefault("PROVIDER_API_KEY", "")
	viper.SetDefault("PROVIDER_RATE_PER_SECOND", 5.0)
	viper.SetDefault("PROVIDER_CACHE_DIR", ".cache")
	viper.SetDefault("PROVIDER_TIMEOUT_SECONDS", 30)

	viper.SetDefault("EXPORT_FORMAT", "csv")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	// Populate global config instance
	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Storage: StorageConfig{
			Backend: viper.GetString("STORAGE_BACKEND"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		ClickHouse: ClickHouseConfig{
			Host:     viper.GetString("CLICKHOUSE_HOST"),
			Port:     viper.GetInt("CLICKHOUSE_PORT"),
			User:     viper.GetString("CLICKHOUSE_USER"),
			Password: viper.GetString("CLICKHOUSE_PASSWORD"),
			DBName:   viper.GetString("CLICKHOUSE_DB"),
		},
		Provider: ProviderConfig{
			BaseURL:        viper.GetString("PROVIDER_BASE_URL"),
			APIKey:         viper.GetString("PROVIDER_API_KEY"),
			RatePerSecond:  viper.GetFloat64("PROVIDER_RATE_PER_SECOND"),
			CacheDir:       viper.GetString("PROVIDER_CACHE_DIR"),
			TimeoutSeconds: viper.GetInt("PROVIDER_TIMEOUT_SECONDS"),
		},
		Export: ExportConfig{
			Format: viper.GetString("EXPORT_FORMAT"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	// ClickHouse native-protocol address
	AppConfig.ClickHouse.Addr = fmt.Sprintf("%s:%d", AppConfig.ClickHouse.Host, AppConfig.ClickHouse.Port)

	// Validate critical fields
	validateConfig()
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// This avoids unexpected runtime failures due to incomplete configuration.
//
// Behavior:
//   - Checks each critical field of AppConfig, scoped to the selected
//     storage backend.
//   - Collects missing ones in a slice.
//   - If any are missing, logs them and terminates the app with log.Fatalf().
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}

	switch AppConfig.Storage.Backend {
	case "postgres":
		if AppConfig.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if AppConfig.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if AppConfig.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if AppConfig.Postgres.Password == "" {
			missing = append(missing, "POSTGRES_PASSWORD")
		}
		if AppConfig.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	case "clickhouse":
		if AppConfig.ClickHouse.Host == "" {
			missing = append(missing, "CLICKHOUSE_HOST")
		}
		if AppConfig.ClickHouse.Port == 0 {
			missing = append(missing, "CLICKHOUSE_PORT")
		}
		if AppConfig.ClickHouse.User == "" {
			missing = append(missing, "CLICKHOUSE_USER")
		}
		if AppConfig.ClickHouse.DBName == "" {
			missing = append(missing, "CLICKHOUSE_DB")
		}
	default:
		missing = append(missing, "STORAGE_BACKEND (postgres|clickhouse)")
	}

	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}
}
