package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// EnvDev is the environment in which a local .env file is honoured
const EnvDev = "dev"

// Config is the process configuration read from the environment
type Config struct {
	Env             string        `env:"ENV" env-default:"dev"`
	Port            string        `env:"PORT" env-default:"8000" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" env-default:"67108864" validate:"gt=0"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"60s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s" validate:"gt=0"`

	Storage  StorageConfig
	Database DatabaseConfig
	Tracing  TracingConfig
}

// StorageConfig selects and configures the blob store
type StorageConfig struct {
	Driver          string        `env:"STORAGE_DRIVER" env-default:"s3" validate:"oneof=s3 minio memory"`
	AccessKeyID     string        `env:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"R2_SECRET_ACCESS_KEY"`
	Endpoint        string        `env:"R2_ENDPOINT_URL"`
	Bucket          string        `env:"R2_BUCKET" validate:"required_unless=Driver memory"`
	Region          string        `env:"R2_REGION" env-default:"auto"`
	PublicBase      string        `env:"R2_PUBLIC_BASE"`
	UsePathStyle    bool          `env:"R2_USE_PATH_STYLE"`
	MaxAttempts     int           `env:"R2_MAX_ATTEMPTS" env-default:"3" validate:"gte=1"`
	PresignExpiry   time.Duration `env:"R2_PRESIGN_EXPIRY" env-default:"8760h" validate:"gt=0"`
	CreateBucket    bool          `env:"R2_CREATE_BUCKET"`
}

// DatabaseConfig selects and configures the relational store
type DatabaseConfig struct {
	Type           string        `env:"DATABASE_TYPE" env-default:"postgres" validate:"oneof=postgres memory"`
	URL            string        `env:"SUPABASE_DB_URL,DATABASE_URL" validate:"required_if=Type postgres"`
	Schema         string        `env:"DB_SCHEMA"`
	PoolSize       int           `env:"DB_POOL_SIZE" env-default:"15" validate:"gte=1"`
	MaxOverflow    int           `env:"DB_MAX_OVERFLOW" env-default:"200" validate:"gte=0"`
	AcquireTimeout time.Duration `env:"DB_POOL_TIMEOUT" env-default:"30s" validate:"gt=0"`
	Echo           bool          `env:"DB_ECHO"`
	AutoMigrate    bool          `env:"DB_AUTO_MIGRATE"`
}

// TracingConfig configures the OTLP trace exporter
type TracingConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" env-default:"simple-packs"`
	Insecure    bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
}

// Option applies a programmatic override after the environment is read
type Option func(*Config) error

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the configuration from the environment. In the dev environment
// the variables of envFile, if it exists, are added to the process
// environment without overriding variables that are already set. Options are
// applied last, then the result is validated.
func Load(envFile string, opts ...Option) (*Config, error) {
	var cfg Config

	if envFile != "" && currentEnv() == EnvDev {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %w", err)
		}
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
	}
	return nil
}

// IsDev reports whether the process runs in the dev environment
func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

// Usage returns a description of every supported environment variable
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}

func currentEnv() string {
	if v, ok := os.LookupEnv("ENV"); ok && v != "" {
		return v
	}
	return EnvDev
}
