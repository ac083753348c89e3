package config

import (
	"net"
	"strings"
)

type EnvVars struct {
	Port            string `env:"PORT" envDefault:"8080"`
	Host            string `env:"HOST" envDefault:"127.0.0.1"`
	AppName         string `env:"APP_NAME" envDefault:"Institut de Formation Paramédicale"`
	Env             string `env:"ENV" envDefault:"DEV"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	DefaultLanguage string `env:"DEFAULT_LANG" envDefault:"fr"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	return ":" + strings.TrimPrefix(e.Port, ":")
}

// GetListenAddr binds to loopback unless HOST says otherwise; the portal serves a single local user.
func (e EnvVars) GetListenAddr() string {
	return net.JoinHostPort(e.Host, strings.TrimPrefix(e.Port, ":"))
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetDefaultLanguage() string {
	return e.DefaultLanguage
}
