package main

import (
	"context"
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
	"github.com/formify-dev/formify/pkg/logging"
	loggingmw "github.com/formify-dev/formify/pkg/middleware/loggingmw"
	"github.com/formify-dev/formify/services/core/internal/config"
	"github.com/formify-dev/formify/services/core/internal/httpserver"
	"github.com/formify-dev/formify/services/core/internal/models"
	"github.com/formify-dev/formify/services/core/internal/repo"
	"github.com/formify-dev/formify/services/core/internal/search"
	"github.com/formify-dev/formify/services/core/internal/service"
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
	if err := gormDB.AutoMigrate(&models.Form{}, &models.Question{}, &models.Setting{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	svc := &service.CoreService{
		Repo: &repo.GormRepo{DB: gormDB},
	}

	if len(cfg.ESAddresses) > 0 {
		esClient, err := search.NewClient(search.Config{
			Addresses: cfg.ESAddresses,
			Username:  cfg.ESUsername,
			Password:  cfg.ESPassword,
			Index:     cfg.ESIndex,
		})
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		svc.Search = esClient
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		svc.Producer = producer
	}

	e := echo.New()
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(echomw.Recover(), echomw.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		CoreHandler:  &httpserver.CoreHTTP{Svc: svc},
		AccessSecret: cfg.AccessSecret,
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
