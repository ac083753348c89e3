package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	APIConfig
	SessionConfig
	FakeAPIConfig
}

type EnvConfig interface {
	GetPort() string
	GetListenAddr() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDefaultLanguage() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	API
	Session
	FakeAPI
}

// New loads an optional .env file then parses the environment.
func New() (Config, error) {
	return Load(".env")
}

// Load is New with explicit dotenv files. Missing files are ignored, values already
// present in the environment win over the files.
func Load(dotenvFiles ...string) (Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("[config Load] failed to read %s: %w", f, err)
		}
	}

	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config Load] failed to parse environment: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("[config Load] %w", err)
	}
	return c, nil
}

func (c mainConfig) validate() error {
	switch c.SessionStorage {
	case StorageFile, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("unsupported SESSION_STORAGE %q", c.SessionStorage)
	}
	if c.SessionStorage == StorageRedis && c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required when SESSION_STORAGE=redis")
	}
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	return nil
}
