package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	DataDir string
	Logger  LoggerConfig
	Backup  BackupConfig
}

type LoggerConfig struct {
	Level  string
	Format string
}

type BackupConfig struct {
	Dir           string
	IntervalHours int
	PollMinutes   int
	MaxKeep       int
}

func LoadEnv() *Config {
	dataDir := getEnv("STOCKBOOK_DATA_DIR", "data")
	return &Config{
		DataDir: dataDir,
		Logger: LoggerConfig{
			Level:  getEnv("STOCKBOOK_LOG_LEVEL", "info"),
			Format: getEnv("STOCKBOOK_LOG_FORMAT", "json"),
		},
		Backup: BackupConfig{
			Dir:           getEnv("STOCKBOOK_BACKUP_DIR", filepath.Join(dataDir, "Backups")),
			IntervalHours: getEnvInt("STOCKBOOK_BACKUP_INTERVAL_HOURS", 168),
			PollMinutes:   getEnvInt("STOCKBOOK_BACKUP_POLL_MINUTES", 60),
			MaxKeep:       getEnvInt("STOCKBOOK_BACKUP_MAX_KEEP", 8),
		},
	}
}

func (c BackupConfig) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

func (c BackupConfig) Poll() time.Duration {
	return time.Duration(c.PollMinutes) * time.Minute
}

func NewLogger(cfg LoggerConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
