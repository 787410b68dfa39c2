// Package config loads varicrypt settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvPassword     = "VARICRYPT_PASSWORD"
	EnvServerURL    = "VARICRYPT_SERVER_URL"
	EnvStore        = "VARICRYPT_STORE"
	EnvTTL          = "VARICRYPT_TTL"
	EnvFFmpeg       = "VARICRYPT_FFMPEG"
	EnvImageSources = "VARICRYPT_IMAGE_SOURCES"
	EnvFetchTimeout = "VARICRYPT_FETCH_TIMEOUT"
	EnvMaxWords     = "VARICRYPT_MAX_WORDS"
	EnvProfile      = "VARICRYPT_PROFILE"
)

// Defaults
const (
	DefaultStore        = ".varicrypt"
	DefaultTTL          = 24 * time.Hour
	DefaultFetchTimeout = 5 * time.Second
	DefaultMaxWords     = 20
	DefaultProfile      = "default"
)

// Config holds the resolved settings.
type Config struct {
	Password     string // empty means ask
	ServerURL    string // empty means the local store
	StorePath    string
	TTL          time.Duration
	FFmpeg       string // empty means look it up
	ImageSources []string
	FetchTimeout time.Duration
	MaxWords     int // 0 disables the limit
	Profile      string
}

// Load reads envFile if it exists, without overriding variables that are
// already set, and then resolves the configuration from the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv resolves the configuration through getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Password:     getenv(EnvPassword),
		ServerURL:    strings.TrimRight(strings.TrimSpace(getenv(EnvServerURL)), "/"),
		StorePath:    orDefault(getenv(EnvStore), DefaultStore),
		FFmpeg:       strings.TrimSpace(getenv(EnvFFmpeg)),
		ImageSources: splitList(getenv(EnvImageSources)),
		Profile:      orDefault(getenv(EnvProfile), DefaultProfile),
	}

	var err error
	if cfg.TTL, err = duration(getenv, EnvTTL, DefaultTTL); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = duration(getenv, EnvFetchTimeout, DefaultFetchTimeout); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvFetchTimeout)
	}

	cfg.MaxWords = DefaultMaxWords
	if v := strings.TrimSpace(getenv(EnvMaxWords)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid %s %q: want a non-negative integer", EnvMaxWords, v)
		}
		cfg.MaxWords = n
	}

	return cfg, nil
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
