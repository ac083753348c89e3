package config

import "time"

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
	GetLogoutTimeout() time.Duration
}

// API points at the remote institute REST API.
type API struct {
	APIBaseURL    string        `env:"API_BASE_URL" envDefault:"http://localhost:8081/api"`
	APITimeout    time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	LogoutTimeout time.Duration `env:"LOGOUT_TIMEOUT" envDefault:"3s"`
}

var _ APIConfig = API{}

func (a API) GetAPIBaseURL() string {
	return a.APIBaseURL
}

func (a API) GetAPITimeout() time.Duration {
	return a.APITimeout
}

func (a API) GetLogoutTimeout() time.Duration {
	return a.LogoutTimeout
}
