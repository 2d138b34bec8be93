package config

import (
	"os"

	pkgcfg "github.com/formify-dev/formify/pkg/config"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	DatabaseURL  string
	AccessSecret []byte

	ESAddresses []string
	ESUsername  string
	ESPassword  string
	ESIndex     string

	KafkaBrokers []string
}

func Load() *Config {
	cfg := &Config{
		ListenAddr: pkgcfg.EnvDefault("CORE_ADDR", ":8082"),
		LogLevel:   pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		AccessSecret: []byte(os.Getenv("JWT_HS256_SECRET")),

		ESAddresses: pkgcfg.CSV(os.Getenv("ES_URL")),
		ESUsername:  os.Getenv("ES_USER"),
		ESPassword:  os.Getenv("ES_PASSWORD"),
		ESIndex:     pkgcfg.EnvDefault("ES_FORMS_INDEX", "forms"),

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),
	}

	pkgcfg.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgcfg.MustNonEmptyBytes(cfg.AccessSecret, "JWT_HS256_SECRET")

	return cfg
}
