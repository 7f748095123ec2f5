package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rl1809/stockbook/config"
	"github.com/rl1809/stockbook/internal/adapter/backup"
	"github.com/rl1809/stockbook/internal/adapter/storage"
	"github.com/rl1809/stockbook/internal/core/service"
)

func main() {
	watch := flag.Bool("watch", false, "keep running and back up on schedule instead of once")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.LoadEnv()
	logger := config.NewLogger(cfg.Logger)

	auditAdapter, err := storage.NewAuditAdapter(cfg.DataDir)
	if err != nil {
		logger.WithError(err).Fatal("could not open audit trail")
	}
	audit := service.NewAuditTrail(auditAdapter, logger)

	scheduler, err := backup.NewScheduler(backup.Config{
		DataDir:   cfg.DataDir,
		BackupDir: cfg.Backup.Dir,
		Interval:  cfg.Backup.Interval(),
		Poll:      cfg.Backup.Poll(),
		MaxKeep:   cfg.Backup.MaxKeep,
	}, audit, logger)
	if err != nil {
		logger.WithError(err).Fatal("could not initialize backup scheduler")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *watch {
		scheduler.Start(ctx)
		logger.WithField("backup_dir", cfg.Backup.Dir).Info("backup scheduler running")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down...")
		scheduler.Stop()
		return
	}

	archive, err := scheduler.RunBackup(ctx)
	if err != nil {
		logger.WithError(err).Fatal("backup failed")
	}
	if err := audit.LogManualBackup(ctx); err != nil {
		logger.WithError(err).Warn("could not audit manual backup")
	}
	fmt.Println(archive)
}
