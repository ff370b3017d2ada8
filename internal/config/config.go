package config

import (
	"os"
	"strconv"
	"strings"

	"evdash/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Columns  ColumnConfig   `yaml:"columns"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Upload   UploadConfig   `yaml:"upload"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

// DataConfig holds the fixed input files and how to decode them. Demo serves
// generated fixture data when no files are configured.
type DataConfig struct {
	EVFile      string   `yaml:"ev_file"`
	ChargerFile string   `yaml:"charger_file"`
	Sheet       string   `yaml:"sheet"`
	Encoding    string   `yaml:"encoding"`
	DateLayouts []string `yaml:"date_layouts"`
	Demo        bool     `yaml:"demo"`
}

// ColumnConfig names the columns the loader expects
type ColumnConfig struct {
	Region        string `yaml:"region"`
	Registrations string `yaml:"registrations"`
	Chargers      string `yaml:"chargers"`
	SlowChargers  string `yaml:"slow_chargers"`
	FastChargers  string `yaml:"fast_chargers"`
	Date          string `yaml:"date"`
}

// DatabaseConfig holds the optional PostgreSQL source
type DatabaseConfig struct {
	URL   string `yaml:"url"`
	Table string `yaml:"table"`
}

// CacheConfig controls memoization of loaded datasets
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	WatchFiles bool `yaml:"watch_files"`
}

// UploadConfig limits multipart uploads
type UploadConfig struct {
	MaxMB int64 `yaml:"max_mb"`
}

// LoggingConfig selects zap level and encoder
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Supported CSV encodings
const (
	EncodingUTF8  = "utf-8"
	EncodingEUCKR = "euc-kr"
	EncodingCP949 = "cp949"
	EncodingAuto  = "auto"
)

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", GinMode: "release"},
		Data:   DataConfig{Encoding: EncodingAuto, Demo: true},
		Columns: ColumnConfig{
			Region:        "시군구",
			Registrations: "전기차등록수",
			Chargers:      "충전기수",
			SlowChargers:  "완속충전기",
			FastChargers:  "급속충전기",
			Date:          "기준년월",
		},
		Database: DatabaseConfig{Table: "ev_observations"},
		Cache:    CacheConfig{Enabled: true, WatchFiles: true},
		Upload:   UploadConfig{MaxMB: 32},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads the optional YAML file named by CONFIG_FILE, applies environment
// overrides and validates the result
func Load() (*Config, error) {
	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.Wrapf(errors.WithCode(errors.CodeConfigInvalid, err), "failed to decode %s", path)
	}
	return nil
}

func applyEnv(config *Config) {
	config.Server.Port = getEnvOrDefault("PORT", config.Server.Port)
	config.Server.GinMode = getEnvOrDefault("GIN_MODE", config.Server.GinMode)

	config.Data.EVFile = getEnvOrDefault("EV_FILE", config.Data.EVFile)
	config.Data.ChargerFile = getEnvOrDefault("CHARGER_FILE", config.Data.ChargerFile)
	config.Data.Sheet = getEnvOrDefault("SHEET", config.Data.Sheet)
	config.Data.Encoding = strings.ToLower(getEnvOrDefault("ENCODING", config.Data.Encoding))
	config.Data.DateLayouts = getEnvListOrDefault("DATE_LAYOUTS", config.Data.DateLayouts)
	config.Data.Demo = getEnvBoolOrDefault("DEMO", config.Data.Demo)

	config.Columns.Region = getEnvOrDefault("REGION_COLUMN", config.Columns.Region)
	config.Columns.Registrations = getEnvOrDefault("REGISTRATIONS_COLUMN", config.Columns.Registrations)
	config.Columns.Chargers = getEnvOrDefault("CHARGERS_COLUMN", config.Columns.Chargers)
	config.Columns.SlowChargers = getEnvOrDefault("SLOW_CHARGERS_COLUMN", config.Columns.SlowChargers)
	config.Columns.FastChargers = getEnvOrDefault("FAST_CHARGERS_COLUMN", config.Columns.FastChargers)
	config.Columns.Date = getEnvOrDefault("DATE_COLUMN", config.Columns.Date)

	config.Database.URL = getEnvOrDefault("DATABASE_URL", config.Database.URL)
	config.Database.Table = getEnvOrDefault("DB_TABLE", config.Database.Table)

	config.Cache.Enabled = getEnvBoolOrDefault("CACHE_ENABLED", config.Cache.Enabled)
	config.Cache.WatchFiles = getEnvBoolOrDefault("WATCH_FILES", config.Cache.WatchFiles)

	config.Upload.MaxMB = int64(getEnvIntOrDefault("MAX_UPLOAD_MB", int(config.Upload.MaxMB)))

	config.Logging.Level = getEnvOrDefault("LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnvOrDefault("LOG_FORMAT", config.Logging.Format)
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Columns.Region == "" {
		return errors.ConfigInvalid("region column is required")
	}
	if config.Columns.Registrations == "" {
		return errors.ConfigInvalid("registrations column is required")
	}
	if config.Columns.Chargers == "" && (config.Columns.SlowChargers == "" || config.Columns.FastChargers == "") {
		return errors.ConfigInvalid("either the chargers column or both slow and fast charger columns are required")
	}
	switch config.Data.Encoding {
	case EncodingUTF8, EncodingEUCKR, EncodingCP949, EncodingAuto:
	default:
		return errors.ConfigInvalid("unsupported encoding: " + config.Data.Encoding)
	}
	if config.Upload.MaxMB <= 0 {
		return errors.ConfigInvalid("upload limit must be positive")
	}
	return nil
}

// HasFiles reports whether both fixed input files are configured
func (c *Config) HasFiles() bool {
	return c.Data.EVFile != "" && c.Data.ChargerFile != ""
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated variable
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
