package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	S3         S3Config         `mapstructure:"s3"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	OIDC       OIDCConfig       `mapstructure:"oidc"`
	Uploads    UploadsConfig    `mapstructure:"uploads"`
	Progress   ProgressConfig   `mapstructure:"progress"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// BucketPrefix is prepended to every namespace bucket so one account
	// can host several deployments side by side.
	BucketPrefix string `mapstructure:"bucket_prefix"`
	UseSSL       bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines the signed session-cookie token configuration.
// Expiration doubles as the cookie max-age.
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// OIDCConfig configures the delegated identity provider.
type OIDCConfig struct {
	Issuer       string `mapstructure:"issuer"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type UploadsConfig struct {
	// PartSize is the size of each multipart part except the last one.
	PartSize int64 `mapstructure:"part_size"`
	// URLExpiry applies to every presigned upload/download URL.
	URLExpiry time.Duration `mapstructure:"url_expiry"`
	// EnrichConcurrency caps concurrent storage calls while decorating
	// list pages with download URLs.
	EnrichConcurrency int `mapstructure:"enrich_concurrency"`
}

type ProgressConfig struct {
	// Monotonic switches the progress upsert from last-write-wins to
	// max(watchedSeconds) with a sticky completed flag.
	Monotonic bool `mapstructure:"monotonic"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variable handling: server.address -> SERVER_ADDRESS etc.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.dsn", "host=localhost user=postgres dbname=course_app port=5432 sslmode=disable")
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.bucket_prefix", "course-app")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("jwt.expiration", "168h") // 7 days
	viper.SetDefault("uploads.part_size", int64(8*1024*1024))
	viper.SetDefault("uploads.url_expiry", "10m")
	viper.SetDefault("uploads.enrich_concurrency", 8)
	viper.SetDefault("progress.monotonic", false)
	viper.SetDefault("reconciler.interval", "5m")
	viper.SetDefault("reconciler.stale_after", "1h")

	err = viper.ReadInConfig()
	// A missing config file is fine; env vars and defaults still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
