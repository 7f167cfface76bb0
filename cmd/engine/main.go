package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kunal1000-star/RouteNew-sub010/internal/config"
	"github.com/kunal1000-star/RouteNew-sub010/internal/orchestrator"
	"github.com/kunal1000-star/RouteNew-sub010/internal/router"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	cfg := config.Load()

	engine, err := orchestrator.Initialize(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize orchestration engine")
	}
	defer engine.Close()

	r := router.SetupRouter(engine)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("Orchestration engine listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
}
