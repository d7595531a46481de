// Package config assembles the service configuration from, in increasing
// priority: built-in defaults, a JSON config file, environment variables
// and command-line flags. The resulting values are checked with validator.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr               string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel              string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DBFileName            string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath_or_empty"`
	DatabaseDSN           string        `env:"DATABASE_DSN" json:"database_dsn"`
	DBConnectionTimeout   time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"db_connection_timeout"`
	MigrationsDir         string        `env:"MIGRATIONS_DIR" json:"migrations_dir"`
	TokenSigningSecretKey string        `env:"TOKEN_SIGNING_SECRET_KEY" json:"token_signing_secret_key" validate:"base64url"`
	TokenTTL              time.Duration `env:"TOKEN_TTL" json:"token_ttl"`
	TrustedSubnet         string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
}

var defaultConfig = Config{
	RunAddr:               ":8080",
	LogLevel:              "info",
	DBFileName:            "",
	DatabaseDSN:           "",
	DBConnectionTimeout:   10 * time.Second,
	MigrationsDir:         "cmd/secondbrain/migrations",
	TokenSigningSecretKey: "c2Vjb25kYnJhaW4tZGV2LXNpZ25pbmcta2V5LXJvdGF0ZS1tZQ==",
	TokenTTL:              24 * time.Hour,
	TrustedSubnet:         "",
}

func validateFilePathOrEmpty(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	if err := validate.RegisterValidation("filepath_or_empty", validateFilePathOrEmpty); err != nil {
		return err
	}

	return validate.Struct(c)
}

func applyDefaults(dst *Config, defaults Config) {
	*dst = defaults
}

func (c *Config) applyJSONFile(fileName string) error {
	if fileName == "" {
		return nil
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

func (c *Config) applyEnv() error {
	fromEnv := Config{}
	if err := env.Parse(&fromEnv); err != nil {
		return err
	}

	if fromEnv.RunAddr != "" {
		c.RunAddr = fromEnv.RunAddr
	}
	if fromEnv.LogLevel != "" {
		c.LogLevel = fromEnv.LogLevel
	}
	if fromEnv.DBFileName != "" {
		c.DBFileName = fromEnv.DBFileName
	}
	if fromEnv.DatabaseDSN != "" {
		c.DatabaseDSN = fromEnv.DatabaseDSN
	}
	if fromEnv.DBConnectionTimeout != 0 {
		c.DBConnectionTimeout = fromEnv.DBConnectionTimeout
	}
	if fromEnv.MigrationsDir != "" {
		c.MigrationsDir = fromEnv.MigrationsDir
	}
	if fromEnv.TokenSigningSecretKey != "" {
		c.TokenSigningSecretKey = fromEnv.TokenSigningSecretKey
	}
	if fromEnv.TokenTTL != 0 {
		c.TokenTTL = fromEnv.TokenTTL
	}
	if fromEnv.TrustedSubnet != "" {
		c.TrustedSubnet = fromEnv.TrustedSubnet
	}

	return nil
}

// InitOption is a functional option for New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables CLI flags parsing. Tests use it to keep
// the global flag set untouched.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds the configuration from all sources and validates it.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	cfg := &Config{}
	applyDefaults(cfg, defaultConfig)

	// Flags are bound to their own Config so later JSON/env application
	// cannot overwrite the values the user passed on the command line.
	configFileName := os.Getenv("CONFIG")
	fromFlags := Config{}
	if !options.disableFlagsParsing {
		flag.StringVar(&configFileName, "c", configFileName, "path to a JSON config file")
		flag.StringVar(&fromFlags.RunAddr, "a", cfg.RunAddr, "address and port to run server")
		flag.StringVar(&fromFlags.LogLevel, "l", cfg.LogLevel, "logger level")
		flag.StringVar(&fromFlags.DBFileName, "f", cfg.DBFileName, "JSON file name with database")
		flag.StringVar(&fromFlags.DatabaseDSN, "d", cfg.DatabaseDSN, "database connection details")
		flag.StringVar(&fromFlags.TrustedSubnet, "t", cfg.TrustedSubnet, "trusted subnet in CIDR notation for the internal stats endpoint")
		flag.Parse()
	}

	if err := cfg.applyJSONFile(configFileName); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Flags win over everything, so re-apply the explicitly set ones last.
	if !options.disableFlagsParsing {
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "a":
				cfg.RunAddr = fromFlags.RunAddr
			case "l":
				cfg.LogLevel = fromFlags.LogLevel
			case "f":
				cfg.DBFileName = fromFlags.DBFileName
			case "d":
				cfg.DatabaseDSN = fromFlags.DatabaseDSN
			case "t":
				cfg.TrustedSubnet = fromFlags.TrustedSubnet
			}
		})
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
