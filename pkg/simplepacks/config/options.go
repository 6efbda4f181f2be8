package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *Config) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (dev, prod)
func WithEnvironment(env string) Option {
	return func(c *Config) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Env = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *Config) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.Database.Type = dbType
		c.Database.URL = url
		return nil
	}
}

// WithDatabaseSchema sets the Postgres search_path
func WithDatabaseSchema(schema string) Option {
	return func(c *Config) error {
		c.Database.Schema = schema
		return nil
	}
}

// WithAutoMigrate applies pending migrations when the runtime is built
func WithAutoMigrate(enabled bool) Option {
	return func(c *Config) error {
		c.Database.AutoMigrate = enabled
		return nil
	}
}

// WithMemoryStorage stores objects in process memory
func WithMemoryStorage() Option {
	return func(c *Config) error {
		c.Storage.Driver = "memory"
		return nil
	}
}

// WithS3Storage selects an S3-compatible store (AWS, R2)
func WithS3Storage(bucket, region, endpoint string) Option {
	return func(c *Config) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		c.Storage.Driver = "s3"
		c.Storage.Bucket = bucket
		if region != "" {
			c.Storage.Region = region
		}
		c.Storage.Endpoint = endpoint
		return nil
	}
}

// WithMinIOStorage selects the MinIO client for the given endpoint
func WithMinIOStorage(bucket, endpoint string) Option {
	return func(c *Config) error {
		if bucket == "" {
			return fmt.Errorf("MinIO bucket cannot be empty")
		}
		if endpoint == "" {
			return fmt.Errorf("MinIO endpoint cannot be empty")
		}
		c.Storage.Driver = "minio"
		c.Storage.Bucket = bucket
		c.Storage.Endpoint = endpoint
		return nil
	}
}

// WithStorageCredentials sets the access key pair for S3 or MinIO
func WithStorageCredentials(accessKeyID, secretAccessKey string) Option {
	return func(c *Config) error {
		c.Storage.AccessKeyID = accessKeyID
		c.Storage.SecretAccessKey = secretAccessKey
		return nil
	}
}

// WithPublicBase serves object URLs from a public base instead of presigning
func WithPublicBase(base string) Option {
	return func(c *Config) error {
		c.Storage.PublicBase = base
		return nil
	}
}

// WithPresignExpiry sets the lifetime of presigned object URLs
func WithPresignExpiry(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("presign expiry must be positive, got: %s", d)
		}
		c.Storage.PresignExpiry = d
		return nil
	}
}

// WithMaxUploadBytes caps the size of a pack submission body
func WithMaxUploadBytes(n int64) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("max upload bytes must be positive, got: %d", n)
		}
		c.MaxUploadBytes = n
		return nil
	}
}

// WithTracing enables the OTLP exporter for the given endpoint
func WithTracing(endpoint string) Option {
	return func(c *Config) error {
		c.Tracing.Enabled = true
		if endpoint != "" {
			c.Tracing.Endpoint = endpoint
		}
		return nil
	}
}
