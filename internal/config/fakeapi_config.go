package config

import "time"

type FakeAPIConfig interface {
	GetFakeAPIPort() string
	GetFakeAPISecret() string
	GetFakeAPITokenTTL() time.Duration
}

// FakeAPI configures cmd/apifake, the local stand-in for the auth endpoints.
type FakeAPI struct {
	FakeAPIPort     string        `env:"APIFAKE_PORT" envDefault:"8081"`
	FakeAPISecret   string        `env:"APIFAKE_SECRET" envDefault:"dev-only-secret"`
	FakeAPITokenTTL time.Duration `env:"APIFAKE_TOKEN_TTL" envDefault:"24h"`
}

var _ FakeAPIConfig = FakeAPI{}

func (f FakeAPI) GetFakeAPIPort() string {
	return ":" + f.FakeAPIPort
}

func (f FakeAPI) GetFakeAPISecret() string {
	return f.FakeAPISecret
}

func (f FakeAPI) GetFakeAPITokenTTL() time.Duration {
	return f.FakeAPITokenTTL
}
