package main

import (
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stockpile/internal/catalog"
	"github.com/gravitas-games/stockpile/internal/config"
	"github.com/gravitas-games/stockpile/internal/server"
)

const defaultConfigPath = "./configs/server.yaml"

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Fatal("Failed to read .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			configPath = defaultConfigPath
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build logger")
	}
	logger.WithFields(logrus.Fields{
		"config": configPath,
		"addr":   cfg.Server.Addr(),
	}).Info("Starting stockpile server...")

	reg := catalog.Sample()
	if cfg.Catalog.Path != "" {
		reg, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			config.LogError(logger, "main", "main", cfg.Catalog.Path, err)
			os.Exit(1)
		}
	} else {
		logger.Warn("No catalog path configured, using the sample catalog")
	}

	srv, err := server.New(cfg, reg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.Server.Addr()); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Fatal("Server error")
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Received signal, shutting down...")
	}

	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}

	logger.Info("Server stopped")
}
