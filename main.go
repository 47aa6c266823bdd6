package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/reelrank/cliparse"
	"github.com/danielhkuo/reelrank/db"
	"github.com/danielhkuo/reelrank/middleware"
	"github.com/danielhkuo/reelrank/router"
)

func main() {
	var err error

	// .env is optional; real environment variables take precedence
	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err, "type", cfg.DatabaseType)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Background work: fan-out workers and session expiry
	svc := router.NewServices(dbConn, cfg)
	svc.Dispatcher.Start(ctx)
	go svc.Sessions.Run(ctx, time.Minute)

	// Create router
	mux := router.NewRouter(dbConn, cfg, svc)

	// Event streams never finish on their own; end them when shutdown starts
	streamCtx, closeStreams := context.WithCancel(context.Background())
	defer closeStreams()

	// Create server
	server := http.Server{
		Handler:     middleware.CORS(mux),
		Addr:        ":" + strconv.Itoa(cfg.Port),
		BaseContext: func(net.Listener) context.Context { return streamCtx },
	}
	server.RegisterOnShutdown(closeStreams)

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	// Let queued notifications finish before the database closes
	svc.Dispatcher.Close()
	stop()
}
