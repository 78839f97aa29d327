// This file is for local development.
// For Cloud Functions, the function.go file is used instead.
// Without FUNCTION_TARGET every role is served at /<EntryPoint>.

package main

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"

	_ "github.com/campusbridge/webhooks"
	"github.com/campusbridge/webhooks/internal/config"
	"github.com/campusbridge/webhooks/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		services.NewZeroLogger(os.Stderr, "error").Error("failed to load config", err)
		os.Exit(1)
	}
	logger := services.NewZeroLogger(os.Stdout, cfg.LogLevel)

	// Start server
	logger.Info("starting functions framework", "port", cfg.Port, "environment", cfg.Environment)
	if err := funcframework.Start(cfg.Port); err != nil {
		logger.Error("server error", err)
		os.Exit(1)
	}
}
