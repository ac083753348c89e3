package config

const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type SessionConfig interface {
	GetSessionStorage() string
	GetSessionFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

// Session selects where the token and cached user survive restarts.
type Session struct {
	SessionStorage string `env:"SESSION_STORAGE" envDefault:"file"`
	SessionFile    string `env:"SESSION_FILE" envDefault:"./data/session.json"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"portal:session:"`
}

var _ SessionConfig = Session{}

func (s Session) GetSessionStorage() string {
	return s.SessionStorage
}

func (s Session) GetSessionFile() string {
	return s.SessionFile
}

func (s Session) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Session) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Session) GetRedisDB() int {
	return s.RedisDB
}

func (s Session) GetRedisKeyPrefix() string {
	return s.RedisKeyPrefix
}
