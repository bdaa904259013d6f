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

	"nirala/internal/common"
	"nirala/internal/notif"
	"nirala/internal/wire"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if err := common.ValidateRegistry(); err != nil {
		log.Fatalf("Invalid notification registry: %v", err)
	}
	if err := notif.ValidateTemplates(); err != nil {
		log.Fatalf("Invalid notification templates: %v", err)
	}

	app, err := wire.InitializeApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	logger := app.Log

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if app.Broker != nil {
		go func() {
			if err := app.Broker.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("realtime relay stopped")
			}
		}()
	}

	if app.Config.Notification.DigestEnabled {
		if err := app.Digest.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start digest scheduler")
		}
	}

	server := &http.Server{
		Addr:           app.Config.Addr(),
		Handler:        setupRouter(app),
		ReadTimeout:    time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(app.Config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("env", app.Config.Server.Environment).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(app.Config.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	stop()
	app.Hub.Close()
	app.Digest.Stop()
	app.Router.Shutdown()
	app.Close(shutdownCtx)

	logger.Info().Msg("server gracefully stopped")
}
