package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Host             string        `mapstructure:"HOST"`
	Port             string        `mapstructure:"PORT"`
	CacheDir         string        `mapstructure:"CACHE_DIR"`
	StaticDir        string        `mapstructure:"STATIC_DIR"`
	MaxUploadBytes   int           `mapstructure:"MAX_UPLOAD_BYTES"`
	ShutdownTimeout  time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	AppEnv           string        `mapstructure:"APP_ENV"`
	ServiceName      string        `mapstructure:"SERVICE_NAME"`
	DBDriver         string        `mapstructure:"DB_DRIVER"`
	DBAutoMigrate    bool          `mapstructure:"DB_AUTO_MIGRATE"`
	DBMaxOpenConns   int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	SQLitePath       string        `mapstructure:"SQLITE_PATH"`
	PostgresUsername string        `mapstructure:"POSTGRES_USERNAME"`
	PostgresPassword string        `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDatabase string        `mapstructure:"POSTGRES_DATABASE"`
	PostgresSSLMode  string        `mapstructure:"POSTGRES_SSLMODE"`
	PostgresHost     string        `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string        `mapstructure:"POSTGRES_PORT"`
	BlobBackend      string        `mapstructure:"BLOB_BACKEND"`
	AWSEndpoint      string        `mapstructure:"AWS_ENDPOINT"`
	AWSBucket        string        `mapstructure:"AWS_BUCKET"`
	AWSDefaultRegion string        `mapstructure:"AWS_DEFAULT_REGION"`
	AWSAccessKey     string        `mapstructure:"AWS_ACCESS_KEY"`
	AWSSecretKey     string        `mapstructure:"AWS_SECRET_KEY"`
	RabbitMQURL      string        `mapstructure:"RABBITMQ_URL"`
	GRPCPort         string        `mapstructure:"GRPC_PORT"`
}

// Development reports whether APP_ENV selects the development profile.
func (c *AppConfig) Development() bool {
	return c.AppEnv == "development"
}

// Read loads the config from the process arguments and panics on error.
func Read(args []string) *AppConfig {
	appConfig, err := Load(args)
	if err != nil {
		panic(fmt.Errorf("fatal error reading config: %w", err))
	}
	return appConfig
}

// Load resolves flags, environment, .env and defaults, in that order of
// precedence. args excludes the program name.
func Load(args []string) (*AppConfig, error) {
	v := viper.New()

	flags := pflag.NewFlagSet("inventory", pflag.ContinueOnError)
	flags.String("host", "0.0.0.0", "address to bind the HTTP server to")
	flags.String("port", "8000", "HTTP port")
	flags.String("cache-dir", "./cache", "directory for stored photos")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	bindEnvVariables(v)
	setDefaults(v)

	for key, flag := range map[string]string{"HOST": "host", "PORT": "port", "CACHE_DIR": "cache-dir"} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	var appConfig AppConfig
	if err := v.Unmarshal(&appConfig); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := appConfig.validate(); err != nil {
		return nil, err
	}
	return &appConfig, nil
}

func (c *AppConfig) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	switch c.BlobBackend {
	case "local", "s3":
	default:
		return fmt.Errorf("BLOB_BACKEND must be local or s3, got %q", c.BlobBackend)
	}
	if c.BlobBackend == "s3" && c.AWSBucket == "" {
		return fmt.Errorf("AWS_BUCKET is required when BLOB_BACKEND=s3")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("HOST")
	_ = v.BindEnv("PORT")
	_ = v.BindEnv("CACHE_DIR")
	_ = v.BindEnv("STATIC_DIR")
	_ = v.BindEnv("MAX_UPLOAD_BYTES")
	_ = v.BindEnv("SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("APP_ENV")
	_ = v.BindEnv("SERVICE_NAME")
	_ = v.BindEnv("DB_DRIVER")
	_ = v.BindEnv("DB_AUTO_MIGRATE")
	_ = v.BindEnv("DB_MAX_OPEN_CONNS")
	_ = v.BindEnv("SQLITE_PATH")
	_ = v.BindEnv("POSTGRES_USERNAME")
	_ = v.BindEnv("POSTGRES_PASSWORD")
	_ = v.BindEnv("POSTGRES_DATABASE")
	_ = v.BindEnv("POSTGRES_SSLMODE")
	_ = v.BindEnv("POSTGRES_HOST")
	_ = v.BindEnv("POSTGRES_PORT")
	_ = v.BindEnv("BLOB_BACKEND")
	_ = v.BindEnv("AWS_ENDPOINT")
	_ = v.BindEnv("AWS_BUCKET")
	_ = v.BindEnv("AWS_DEFAULT_REGION")
	_ = v.BindEnv("AWS_ACCESS_KEY")
	_ = v.BindEnv("AWS_SECRET_KEY")
	_ = v.BindEnv("RABBITMQ_URL")
	_ = v.BindEnv("GRPC_PORT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("STATIC_DIR", "./static")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("SHUTDOWN_TIMEOUT", "5s")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("SERVICE_NAME", "inventory")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_MAX_OPEN_CONNS", 15)
	v.SetDefault("SQLITE_PATH", "./inventory.db")
	v.SetDefault("POSTGRES_USERNAME", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DATABASE", "inventory")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("BLOB_BACKEND", "local")
	v.SetDefault("AWS_DEFAULT_REGION", "us-east-1")
}
