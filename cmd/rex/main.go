package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/rex/internal/backup"
	"github.com/dukerupert/rex/internal/config"
	"github.com/dukerupert/rex/internal/database"
	"github.com/dukerupert/rex/internal/logging"
	"github.com/dukerupert/rex/internal/server"
	"github.com/dukerupert/rex/internal/store"
)

func main() {
	restoreID := flag.Int64("restore", 0, "restore the given backup id and exit")
	backupNow := flag.Bool("backup", false, "run a backup immediately and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.Production())
	if cfg.InsecureDefaults() {
		logger.Warn("running with the built-in development JWT secret; set REX_JWT_SECRET")
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	backups := backup.NewManager(backup.Config{
		Bucket:        cfg.Backup.Bucket,
		Endpoint:      cfg.Backup.Endpoint,
		Region:        cfg.Backup.Region,
		AccessKey:     cfg.Backup.AccessKey,
		SecretKey:     cfg.Backup.SecretKey,
		Passphrase:    cfg.Backup.Passphrase,
		DBPath:        cfg.DBPath,
		Hour:          cfg.Backup.Hour,
		RetentionDays: cfg.Backup.RetentionDays,
	}, db, store.NewBackupStore(db), logger.With("component", "backup"))

	switch {
	case *restoreID != 0:
		if err := backups.Restore(context.Background(), *restoreID); err != nil {
			logger.Error("restore failed", "backup_id", *restoreID, "error", err)
			os.Exit(1)
		}
		logger.Info("restore complete, restart the server")
		return
	case *backupNow:
		id, err := backups.RunNow(context.Background())
		if err != nil {
			logger.Error("backup failed", "error", err)
			os.Exit(1)
		}
		logger.Info("backup complete", "backup_id", id)
		return
	}

	ctx := context.Background()
	backups.Start(ctx)
	defer backups.Stop()

	srv := server.New(db, cfg, logger)

	// Expired rate-limit windows accumulate without a periodic sweep.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("rex listening", "port", cfg.Port, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
