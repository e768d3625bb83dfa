package config

// Storage drivers.
const (
	StorageMemory     = "memory"
	StorageSecureFile = "securefile"
	StorageSQLite     = "sqlite"
	StorageRedis      = "redis"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetStoragePath() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type Storage struct {
	Driver        string `env:"GAPI_SESSION_STORAGE" envDefault:"securefile"`
	Path          string `env:"GAPI_SESSION_STORAGE_PATH" envDefault:"./data/session.enc"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"GAPI_SESSION_REDIS_PREFIX" envDefault:"gapi-session:"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDriver() string { return s.Driver }
func (s Storage) GetStoragePath() string   { return s.Path }
func (s Storage) GetRedisAddr() string     { return s.RedisAddr }
func (s Storage) GetRedisPassword() string { return s.RedisPassword }
func (s Storage) GetRedisDB() int          { return s.RedisDB }
func (s Storage) GetRedisPrefix() string   { return s.RedisPrefix }
