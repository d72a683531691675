package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/rpattn/planledger/internal/config"
	"github.com/rpattn/planledger/internal/db"
	"github.com/rpattn/planledger/internal/importer"
	"github.com/rpattn/planledger/internal/middleware"
	"github.com/rpattn/planledger/internal/reconcile"
	"github.com/rpattn/planledger/internal/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.MigrationsPath, cfg.DB.URL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories and services
	expenseRepo := repository.NewExpenseLineRepository(conn.Pool)
	actualsRepo := repository.NewActualTransactionRepository(conn.Pool)
	matcher := reconcile.NewMatcher(conn.Pool)

	expenseService := importer.NewExpenseService(expenseRepo, conn)
	actualsService := importer.NewActualsService(actualsRepo, conn, matcher)

	importHandler := importer.NewHTTPHandler(expenseService, actualsService, cfg.TemplateStorePath)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/import/", corsHandler.Handler(middleware.LoggingMiddleware(importHandler)))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting import server on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
