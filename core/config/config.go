package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Server    ServerConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		JWT       JWTConfig
		GoogleAPI GoogleAPIConfig
		S3        S3Config
		Sync      SyncConfig
		LogLevel  string
	}

	ServerConfig struct {
		Host string
		Port int
	}

	DatabaseConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	JWTConfig struct {
		Secret string
	}

	GoogleAPIConfig struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}

	S3Config struct {
		Region          string
		Bucket          string
		AccessKeyID     string
		SecretAccessKey string
	}

	SyncConfig struct {
		// WindowDays bounds the forward window of events pulled from Google.
		WindowDays int
		// IntervalMinutes is the cadence of the periodic full-sync pass.
		IntervalMinutes int
	}
)

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads .env (if present) and the environment into the typed config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.name", "hutbook")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("s3.region", "eu-west-2")
	v.SetDefault("sync.window_days", 90)
	v.SetDefault("sync.interval_minutes", 15)
	v.SetDefault("log.level", "info")

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
		},
		GoogleAPI: GoogleAPIConfig{
			ClientID:     v.GetString("google.client_id"),
			ClientSecret: v.GetString("google.client_secret"),
			RedirectURL:  v.GetString("google.redirect_url"),
		},
		S3: S3Config{
			Region:          v.GetString("s3.region"),
			Bucket:          v.GetString("s3.bucket"),
			AccessKeyID:     v.GetString("s3.access_key_id"),
			SecretAccessKey: v.GetString("s3.secret_access_key"),
		},
		Sync: SyncConfig{
			WindowDays:      v.GetInt("sync.window_days"),
			IntervalMinutes: v.GetInt("sync.interval_minutes"),
		},
		LogLevel: v.GetString("log.level"),
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return cfg, nil
}

// Get returns the loaded config. Panics if Load was never called.
func Get() *Config {
	cfg, ok := GetSafe()
	if !ok {
		panic("config: Get called before Load")
	}
	return cfg
}

// GetSafe returns the loaded config and whether it is initialized.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}

// SetForTesting installs a config instance for tests.
func SetForTesting(cfg *Config) {
	mu.Lock()
	instance = cfg
	mu.Unlock()
}
