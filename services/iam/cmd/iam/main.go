package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/formify-dev/formify/pkg/db"
	"github.com/formify-dev/formify/pkg/events"
	"github.com/formify-dev/formify/pkg/hash"
	"github.com/formify-dev/formify/pkg/logging"
	"github.com/formify-dev/formify/pkg/mail"
	loggingmw "github.com/formify-dev/formify/pkg/middleware/loggingmw"
	"github.com/formify-dev/formify/pkg/redisclient"
	"github.com/formify-dev/formify/services/iam/internal/config"
	"github.com/formify-dev/formify/services/iam/internal/httpserver"
	"github.com/formify-dev/formify/services/iam/internal/models"
	"github.com/formify-dev/formify/services/iam/internal/otp"
	"github.com/formify-dev/formify/services/iam/internal/repo"
	"github.com/formify-dev/formify/services/iam/internal/service"
	"github.com/formify-dev/formify/services/iam/internal/session"
	"github.com/formify-dev/formify/services/iam/internal/token"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	gormDB, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	userRepo := &repo.GormRepo{DB: gormDB}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := seedAdmin(initCtx, userRepo, cfg); err != nil {
			log.Fatalf("admin seed error: %v", err)
		}
	}

	rdb, err := redisclient.Open(initCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	mailer, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		TLS:      cfg.SMTPTLS,
	})
	if err != nil {
		log.Fatalf("smtp init error: %v", err)
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
	}

	store := session.NewStore(rdb)

	svc := &service.AuthService{
		Repo:  userRepo,
		OTP:   otp.NewEngine(store, mailer, cfg.OTPTTL, cfg.OTPMaxAttempts),
		Store: store,
		Tokens: &token.Engine{
			Store:      store,
			Secret:     cfg.JWTSecret,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
		Producer:   producer,
		PendingTTL: cfg.PendingTTL,
		ResetTTL:   cfg.ResetTTL,
	}

	e := echo.New()
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(echomw.Recover(), echomw.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
	})

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}

// seedAdmin creates the admin account on first boot. A second run is a no-op.
func seedAdmin(ctx context.Context, r *repo.GormRepo, cfg *config.Config) error {
	passwordHash, err := hash.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	err = r.CreateAdmin(ctx, &models.User{
		Email:        cfg.AdminEmail,
		FullName:     cfg.AdminFullName,
		PasswordHash: passwordHash,
	})
	if errors.Is(err, repo.ErrAdminAlreadyExists) || errors.Is(err, repo.ErrUserAlreadyExists) {
		return nil
	}
	return err
}
