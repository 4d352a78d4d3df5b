package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Address       string `env:"PORT" env-default:"5000"`
	JaegerAddress string `env:"JAEGER_ADDRESS"`
	LogLevel      string `env:"LOG_LEVEL" env-default:"info"`
	LogPretty     bool   `env:"LOG_PRETTY" env-default:"false"`
	CorsOrigins   string `env:"CORS_ORIGINS" env-default:"*"`

	Store     StoreConfig
	Redis     RedisConfig
	Cassandra CassandraConfig
	Smtp      SmtpConfig
	Auth      AuthConfig
}

type StoreConfig struct {
	Driver   string        `env:"STORE_DRIVER" env-default:"mongo"`
	MongoURI string        `env:"MONGO_DB_URI" env-default:"mongodb://localhost:27017"`
	MongoDB  string        `env:"MONGO_DB_NAME" env-default:"tasks"`
	SqlDSN   string        `env:"SQL_DSN" env-default:"tasks.db"`
	Timeout  time.Duration `env:"STORE_TIMEOUT" env-default:"5s"`
}

type RedisConfig struct {
	Host     string        `env:"REDIS_HOST"`
	Port     string        `env:"REDIS_PORT" env-default:"6379"`
	Password string        `env:"REDIS_PASSWORD"`
	CacheTTL time.Duration `env:"CACHE_TTL" env-default:"60s"`
}

type CassandraConfig struct {
	Hosts string `env:"CASSANDRA_HOSTS"`
}

type SmtpConfig struct {
	Host     string `env:"SMTP_HOST" env-default:"smtp.ethereal.email"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM" env-default:"Task Manager <no-reply@tasks.local>"`
	Workers  int    `env:"MAIL_WORKERS" env-default:"2"`
}

type AuthConfig struct {
	Secret   string        `env:"JWT_SECRET" env-default:"secret"`
	TokenTTL time.Duration `env:"JWT_TTL" env-default:"168h"`
}

// GetConfig loads an optional .env file and then reads the process environment.
func GetConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if !strings.HasPrefix(cfg.Address, ":") {
		cfg.Address = ":" + cfg.Address
	}
	return cfg, nil
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c CassandraConfig) HostList() []string {
	var hosts []string
	for _, h := range strings.Split(c.Hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func (c Config) Origins() []string {
	return strings.Split(c.CorsOrigins, ",")
}
