package config

import (
	"os"

	pkgcfg "github.com/formify-dev/formify/pkg/config"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	IAMURL  string
	CoreURL string

	JWTSecret []byte

	RateLimitPerSecond float64
}

func Load() *Config {
	cfg := &Config{
		ListenAddr: pkgcfg.EnvDefault("GATEWAY_ADDR", ":8080"),
		LogLevel:   pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		IAMURL:  os.Getenv("IAM_URL"),
		CoreURL: os.Getenv("CORE_URL"),

		JWTSecret: []byte(os.Getenv("JWT_HS256_SECRET")),

		RateLimitPerSecond: float64(pkgcfg.EnvIntDefault("RATE_LIMIT_RPS", 20)),
	}

	pkgcfg.MustNonEmpty(cfg.IAMURL, "IAM_URL")
	pkgcfg.MustNonEmpty(cfg.CoreURL, "CORE_URL")
	pkgcfg.MustNonEmptyBytes(cfg.JWTSecret, "JWT_HS256_SECRET")

	return cfg
}
