package config

import (
	"os"
	"time"

	pkgcfg "github.com/formify-dev/formify/pkg/config"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	DatabaseURL string
	RedisURL    string

	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	OTPTTL         time.Duration
	OTPMaxAttempts int
	PendingTTL     time.Duration
	ResetTTL       time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTLS      bool

	KafkaBrokers []string

	AdminEmail    string
	AdminPassword string
	AdminFullName string
}

func Load() *Config {
	cfg := &Config{
		ListenAddr: pkgcfg.EnvDefault("IAM_ADDR", ":8081"),
		LogLevel:   pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret:  []byte(os.Getenv("JWT_HS256_SECRET")),
		AccessTTL:  pkgcfg.EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL: pkgcfg.EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		OTPTTL:         pkgcfg.EnvDurationDefault("OTP_TTL", 5*time.Minute),
		OTPMaxAttempts: pkgcfg.EnvIntDefault("OTP_MAX_ATTEMPTS", 5),
		PendingTTL:     pkgcfg.EnvDurationDefault("PENDING_REGISTRATION_TTL", 10*time.Minute),
		ResetTTL:       pkgcfg.EnvDurationDefault("RESET_SESSION_TTL", 10*time.Minute),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     pkgcfg.EnvIntDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPTLS:      pkgcfg.EnvDefault("SMTP_TLS", "true") == "true",

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminFullName: pkgcfg.EnvDefault("ADMIN_FULL_NAME", "Administrator"),
	}

	pkgcfg.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgcfg.MustNonEmpty(cfg.RedisURL, "REDIS_URL")
	pkgcfg.MustNonEmptyBytes(cfg.JWTSecret, "JWT_HS256_SECRET")

	return cfg
}
