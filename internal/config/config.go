// Package config loads kiosk settings from defaults, an optional YAML file,
// a .env file and MEALAUTH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full kiosk configuration.
type Config struct {
	APIURL   string `yaml:"api_url" validate:"required,url"`
	AdminURL string `yaml:"admin_url" validate:"omitempty,url"`
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	LogPath  string `yaml:"log_path"`
	// RequestTimeout bounds each backend call. Zero means no client-side
	// timeout: a hung connection waits for the network stack to give up.
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"min=0"`

	Store   StoreConfig   `yaml:"store"`
	Scanner ScannerConfig `yaml:"scanner"`
	Cache   CacheConfig   `yaml:"cache"`
	Serve   ServeConfig   `yaml:"serve"`
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=file sqlite redis memory"`
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"min=0"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// ScannerConfig describes the QR decode source.
type ScannerConfig struct {
	// Device is a reader device path, or "simulate".
	Device string `yaml:"device"`
	FPS    int    `yaml:"fps" validate:"min=1,max=60"`
	Box    int    `yaml:"box" validate:"min=50,max=1000"`
	Facing string `yaml:"facing" validate:"oneof=environment user"`
}

// CacheConfig configures the network boundary cache.
type CacheConfig struct {
	Version string `yaml:"version" validate:"required"`
	Backend string `yaml:"backend" validate:"oneof=memory sqlite"`
	Path    string `yaml:"path"`
}

// ServeConfig configures the local app-shell proxy.
type ServeConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// SimulateDevice selects the simulated decoder.
const SimulateDevice = "simulate"

// Default returns the built-in configuration rooted at dir (normally ~/.mealauth).
func Default(dir string) *Config {
	return &Config{
		APIURL:   "http://localhost:8000",
		LogLevel: "info",
		LogPath:  filepath.Join(dir, "mealauth.log"),
		Store: StoreConfig{
			Backend:     "file",
			Path:        filepath.Join(dir, "session.json"),
			RedisPrefix: "mealauth:",
		},
		Scanner: ScannerConfig{
			FPS:    10,
			Box:    250,
			Facing: "environment",
		},
		Cache: CacheConfig{
			Version: "meal-auth-v1",
			Backend: "memory",
			Path:    filepath.Join(dir, "cache.db"),
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8787",
		},
	}
}

// Dir returns ~/.mealauth.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".mealauth"), nil
}

// FromEnvironment loads .env (if present), then the YAML file named by
// MEALAUTH_CONFIG or ~/.mealauth/config.yaml (if present), then env overrides.
func FromEnvironment() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	path := os.Getenv("MEALAUTH_CONFIG")
	if path == "" {
		path = filepath.Join(dir, "config.yaml")
	}
	return Load(dir, path, os.Getenv)
}

// Load builds a Config from defaults rooted at dir, the YAML file at path
// (skipped when it does not exist) and variables read through getenv.
func Load(dir, path string, getenv func(string) string) (*Config, error) {
	cfg := Default(dir)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.AdminURL == "" {
		cfg.AdminURL = cfg.APIURL + "/admin"
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("MEALAUTH_API_URL", &cfg.APIURL)
	str("MEALAUTH_ADMIN_URL", &cfg.AdminURL)
	str("MEALAUTH_LOG_LEVEL", &cfg.LogLevel)
	str("MEALAUTH_LOG_PATH", &cfg.LogPath)
	str("MEALAUTH_STORE", &cfg.Store.Backend)
	str("MEALAUTH_STORE_PATH", &cfg.Store.Path)
	str("MEALAUTH_REDIS_ADDR", &cfg.Store.RedisAddr)
	str("MEALAUTH_REDIS_PASSWORD", &cfg.Store.RedisPassword)
	str("MEALAUTH_SCANNER_DEVICE", &cfg.Scanner.Device)
	str("MEALAUTH_CACHE_VERSION", &cfg.Cache.Version)
	str("MEALAUTH_CACHE_BACKEND", &cfg.Cache.Backend)
	str("MEALAUTH_SERVE_ADDR", &cfg.Serve.Addr)

	if v := getenv("MEALAUTH_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: MEALAUTH_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := getenv("MEALAUTH_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: MEALAUTH_REDIS_DB: %w", err)
		}
		cfg.Store.RedisDB = n
	}
	return nil
}

var validate = validator.New()

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
