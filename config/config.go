package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	Address      string        `yaml:"address" env:"ADDRESS" env-default:":8080"`
	DBAddress    string        `yaml:"db_address" env:"DB_ADDRESS" env-required:"true"`
	RedisAddress string        `yaml:"redis_address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	DedupeTTL    time.Duration `yaml:"dedupe_ttl" env:"DEDUPE_TTL" env-default:"24h"`
}

// MustLoad reads configuration from the given file, falling back to plain
// environment variables when the path is empty or the file does not exist.
func MustLoad(configPath string) Config {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read env: %s", err)
		}
		return cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				log.Fatalf("cannot read env: %s", err)
			}
			return cfg
		}
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}

	return cfg
}
