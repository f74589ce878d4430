package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME" env-default:"docshelf"`
	LogLevel    string `yaml:"log_level"    env:"LOG_LEVEL"    env-default:"info"`

	HTTP    HTTP    `yaml:"http"`
	DB      DB      `yaml:"db"`
	Session Session `yaml:"session"`
	Upload  Upload  `yaml:"upload"`
	Storage Storage `yaml:"storage"`
	Kafka   Kafka   `yaml:"kafka"`
	Elastic Elastic `yaml:"elastic"`
}

type HTTP struct {
	Addr              string        `yaml:"addr"                env:"HTTP_ADDR"                env-default:":8080"`
	ReadTimeout       time.Duration `yaml:"read_timeout"        env:"HTTP_READ_TIMEOUT"        env-default:"30s"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
	WriteTimeout      time.Duration `yaml:"write_timeout"       env:"HTTP_WRITE_TIMEOUT"       env-default:"60s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"HTTP_IDLE_TIMEOUT"        env-default:"60s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"HTTP_SHUTDOWN_TIMEOUT"    env-default:"10s"`

	AllowedOrigins []string `yaml:"allowed_origins" env:"CSRF_ALLOWED_ORIGINS" env-separator:","`
}

type DB struct {
	URL         string `yaml:"url"          env:"DATABASE_URL"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type Session struct {
	Secret       string        `yaml:"secret"        env:"SESSION_SECRET"`
	TTL          time.Duration `yaml:"ttl"           env:"SESSION_TTL"         env-default:"168h"`
	CookieName   string        `yaml:"cookie_name"   env:"SESSION_COOKIE_NAME" env-default:"session"`
	CookieSecure bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"       env-default:"false"`
	SweepEvery   time.Duration `yaml:"sweep_every"   env:"SESSION_SWEEP_EVERY" env-default:"1h"`
}

type Upload struct {
	MaxBytes int64 `yaml:"max_bytes" env:"MAX_UPLOAD_BYTES" env-default:"10485760"`
}

type Storage struct {
	Backend    string `yaml:"backend"     env:"STORAGE_BACKEND"     env-default:"local"`
	LocalDir   string `yaml:"local_dir"   env:"STORAGE_LOCAL_DIR"   env-default:"./public/uploads"`
	PublicPath string `yaml:"public_path" env:"STORAGE_PUBLIC_PATH" env-default:"/uploads"`

	S3Bucket    string `yaml:"s3_bucket"     env:"S3_BUCKET"`
	S3Region    string `yaml:"s3_region"     env:"S3_REGION"     env-default:"us-east-1"`
	S3Endpoint  string `yaml:"s3_endpoint"   env:"S3_ENDPOINT"`
	S3AccessKey string `yaml:"s3_access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey string `yaml:"s3_secret_key" env:"S3_SECRET_KEY"`
	S3PublicURL string `yaml:"s3_public_url" env:"S3_PUBLIC_URL"`
	S3PathStyle bool   `yaml:"s3_path_style" env:"S3_PATH_STYLE" env-default:"false"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
}

type Elastic struct {
	URL      string `yaml:"url"      env:"ES_URL"`
	User     string `yaml:"user"     env:"ES_USER"`
	Password string `yaml:"password" env:"ES_PASSWORD"`
	Index    string `yaml:"index"    env:"ES_INDEX" env-default:"documents"`
}

// Load reads .env (if present), then CONFIG_PATH (if set) or the process
// environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("notice: .env not loaded: %v", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			return errors.New("STORAGE_LOCAL_DIR is required for the local backend")
		}
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 backend")
		}
		if (c.Storage.S3AccessKey == "") != (c.Storage.S3SecretKey == "") {
			return errors.New("S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}
