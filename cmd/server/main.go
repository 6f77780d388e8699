package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/intern-platform/internal/api"
	"alcyxob/intern-platform/internal/app"
	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/logger"

	"github.com/gin-gonic/gin"
)

// @title Intern Platform Study Plan API
// @version 1.0
// @description Study plans, lessons and the assistant of the maritime internship platform.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret is required")
	}
	log.Info("configuration loaded", "database", cfg.Database.Driver, "llm", cfg.LLM.Provider, "address", cfg.Server.Address)

	// --- Database Connection ---
	store, err := app.OpenStore(cfg.Database)
	if err != nil {
		log.Fatal("could not open store", "error", err)
	}
	defer func() {
		log.Info("closing store")
		if err := store.Close(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Error("index creation failed", "error", err)
			return
		}
		log.Info("index creation completed")
	}()

	// --- Initialize Services ---
	svc, err := app.NewServices(context.Background(), &cfg, store, log)
	if err != nil {
		log.Fatal("could not initialize services", "error", err)
	}

	// --- Initialize Gin Engine ---
	if cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(&cfg, log)
	api.SetupRoutes(router, cfg.JWT, log, svc.Plans, svc.Days, svc.Lessons, svc.Assistant)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server starting", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ListenAndServe error", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exiting")
}
