// Package config builds the server configuration from the environment.
// The result is constructed once in main and passed to every component that needs it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

const (
	ProviderGroq = "groq"
	ProviderStub = "stub"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type Config struct {
	Environment string
	Debug       bool
	APIVersion  string
	ListenAddr  string
	FrontendURL string

	SecretKey      string
	Algorithm      string
	AccessTokenTTL time.Duration

	DB            Database
	AI            AI
	S3            S3
	MaxAudioBytes int64
}

type Database struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	Path     string
}

type AI struct {
	Provider           string
	APIKey             string
	BaseURL            string
	GenerationModel    string
	TranscriptionModel string
	Timeout            time.Duration
}

// S3 configures the recording archive. An empty Bucket disables it.
type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	c := &Config{
		Environment: env("ENVIRONMENT", "development"),
		APIVersion:  env("API_VERSION", "v1"),
		ListenAddr:  env("LISTEN_ADDR", ":8000"),
		FrontendURL: env("FRONTEND_URL", ""),
		SecretKey:   env("SECRET_KEY", ""),
		Algorithm:   env("ALGORITHM", "HS256"),
		DB: Database{
			Driver:   env("DB_DRIVER", DriverMySQL),
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "3306"),
			Name:     env("DB_NAME", "vociary"),
			User:     env("DB_USER", ""),
			Password: env("DB_PASSWORD", ""),
			Path:     env("DB_PATH", "vociary.db"),
		},
		AI: AI{
			Provider:           env("AI_PROVIDER", ProviderStub),
			APIKey:             env("GROQ_API_KEY", ""),
			BaseURL:            strings.TrimRight(env("AI_BASE_URL", "https://api.groq.com/openai/v1"), "/"),
			GenerationModel:    env("LLM_MODEL_NAME", "llama-3.3-70b-versatile"),
			TranscriptionModel: env("STT_MODEL_NAME", "whisper-large-v3-turbo"),
		},
		S3: S3{
			Bucket:    env("AUDIO_ARCHIVE_BUCKET", ""),
			Region:    env("S3_REGION", "us-east-1"),
			Endpoint:  env("S3_ENDPOINT", ""),
			AccessKey: env("S3_ACCESS_KEY", ""),
			SecretKey: env("S3_SECRET_KEY", ""),
		},
	}

	var err error
	if c.Debug, err = envBool("DEBUG", false); err != nil {
		return nil, err
	}
	minutes, err := envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	c.AccessTokenTTL = time.Duration(minutes) * time.Minute

	seconds, err := envInt("AI_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	c.AI.Timeout = time.Duration(seconds) * time.Second

	mb, err := envInt("MAX_AUDIO_MB", 25)
	if err != nil {
		return nil, err
	}
	c.MaxAudioBytes = int64(mb) << 20

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return errors.New("config: SECRET_KEY is required")
	case c.Algorithm != "HS256" && c.Algorithm != "HS384" && c.Algorithm != "HS512":
		return fmt.Errorf("config: unsupported ALGORITHM %q", c.Algorithm)
	case c.AccessTokenTTL <= 0:
		return errors.New("config: ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	case c.DB.Driver != DriverMySQL && c.DB.Driver != DriverSQLite:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DB.Driver)
	case c.AI.Provider != ProviderGroq && c.AI.Provider != ProviderStub:
		return fmt.Errorf("config: unsupported AI_PROVIDER %q", c.AI.Provider)
	case c.AI.Provider == ProviderGroq && c.AI.APIKey == "":
		return errors.New("config: GROQ_API_KEY is required when AI_PROVIDER=groq")
	case c.AI.Timeout <= 0:
		return errors.New("config: AI_TIMEOUT_SECONDS must be positive")
	case c.MaxAudioBytes <= 0:
		return errors.New("config: MAX_AUDIO_MB must be positive")
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DB.Driver == DriverSQLite {
		return "file:" + c.DB.Path + "?_foreign_keys=on&_busy_timeout=5000"
	}
	mc := mysql.NewConfig()
	mc.User = c.DB.User
	mc.Passwd = c.DB.Password
	mc.Net = "tcp"
	mc.Addr = c.DB.Host + ":" + c.DB.Port
	mc.DBName = c.DB.Name
	mc.ParseTime = true
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

// AllowedOrigin is the CORS origin; "*" when no frontend is configured.
func (c *Config) AllowedOrigin() string {
	if c.FrontendURL == "" {
		return "*"
	}
	return c.FrontendURL
}

func (c *Config) APIPrefix() string {
	return "/api/" + c.APIVersion
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}
