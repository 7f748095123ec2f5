package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	archivePrefix = "Backup_"
	stampLayout   = "2006-01-02_15-04-05"
	watermarkName = ".last_backup"
	manifestName  = "backup_manifest.txt"
)

// AuditLogger records scheduled backups in the audit trail.
type AuditLogger interface {
	LogAutoBackup(ctx context.Context, archivePath string) error
}

// Scheduler snapshots every table file into a timestamped zip archive. It
// polls often and acts rarely: the poll period is independent of the backup
// interval, so a host that slept through a scheduled window catches up
// within one poll. The watermark only advances after an archive has been
// fully written and renamed into place, which is the sole safeguard against
// mistaking an interrupted backup for a good one.
type Scheduler struct {
	dataDir   string
	backupDir string
	interval  time.Duration
	poll      time.Duration
	maxKeep   int
	logger    *logrus.Logger
	audit     AuditLogger

	now  func() time.Time
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

type Config struct {
	DataDir   string
	BackupDir string
	Interval  time.Duration
	Poll      time.Duration
	MaxKeep   int
}

func NewScheduler(cfg Config, audit AuditLogger, logger *logrus.Logger) (*Scheduler, error) {
	if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Scheduler{
		dataDir:   cfg.DataDir,
		backupDir: cfg.BackupDir,
		interval:  cfg.Interval,
		poll:      cfg.Poll,
		maxKeep:   cfg.MaxKeep,
		logger:    logger,
		audit:     audit,
		now:       time.Now,
	}, nil
}

// Start backs up immediately when overdue, then keeps re-checking every poll
// period until Stop or context cancellation.
func (s *Scheduler) Start(ctx context.Context) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.checkAndRun(ctx)

		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.checkAndRun(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}

func (s *Scheduler) checkAndRun(ctx context.Context) {
	if !s.IsOverdue() {
		return
	}
	archive, err := s.RunBackup(ctx)
	if err != nil {
		s.logger.WithError(err).Error("scheduled backup failed")
		return
	}
	if s.audit != nil {
		if err := s.audit.LogAutoBackup(ctx, archive); err != nil {
			s.logger.WithError(err).Warn("could not audit scheduled backup")
		}
	}
}

// IsOverdue reports whether no watermark exists or the backup interval has
// elapsed since the last successful run.
func (s *Scheduler) IsOverdue() bool {
	last, ok := s.readWatermark()
	if !ok {
		return true
	}
	return s.now().Sub(last) >= s.interval
}

// RunBackup archives every table file plus a manifest, advances the
// watermark, prunes old archives, and returns the archive path. The archive
// is written under a temporary name and renamed once complete, so a partial
// archive never carries the final Backup_*.zip name.
func (s *Scheduler) RunBackup(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := filepath.Glob(filepath.Join(s.dataDir, "*.xlsx"))
	if err != nil {
		return "", fmt.Errorf("list table files: %w", err)
	}
	sort.Strings(tables)

	stamp := s.now()
	archive := filepath.Join(s.backupDir, archivePrefix+stamp.Format(stampLayout)+".zip")
	partial := archive + ".partial"

	if err := s.writeArchive(partial, archive, stamp, tables); err != nil {
		os.Remove(partial)
		return "", err
	}
	if err := os.Rename(partial, archive); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("finalize archive: %w", err)
	}

	// Only now is the backup considered successful.
	if err := s.writeWatermark(stamp); err != nil {
		return "", err
	}
	s.prune()

	s.logger.WithFields(logrus.Fields{
		"archive": filepath.Base(archive),
		"tables":  len(tables),
	}).Info("backup completed")
	return archive, nil
}

// Info returns the watermark (zero when none) and archives newest first.
func (s *Scheduler) Info() (time.Time, []string, error) {
	last, _ := s.readWatermark()

	archives, err := filepath.Glob(filepath.Join(s.backupDir, archivePrefix+"*.zip"))
	if err != nil {
		return last, nil, fmt.Errorf("list archives: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(archives)))
	return last, archives, nil
}

func (s *Scheduler) writeArchive(partial, finalName string, stamp time.Time, tables []string) error {
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, table := range tables {
		if err := addFile(zw, table); err != nil {
			zw.Close()
			return err
		}
	}

	manifest, err := zw.Create(manifestName)
	if err != nil {
		zw.Close()
		return fmt.Errorf("create manifest: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Backup ID: %s\n", uuid.NewString())
	fmt.Fprintf(&b, "Backup Date: %s\n", stamp.Format("January 02, 2006 15:04:05"))
	fmt.Fprintf(&b, "Backup File: %s\n", filepath.Base(finalName))
	fmt.Fprintf(&b, "Files Included:\n")
	for _, table := range tables {
		fmt.Fprintf(&b, "  - %s\n", filepath.Base(table))
	}
	if _, err := io.WriteString(manifest, b.String()); err != nil {
		zw.Close()
		return fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return out.Close()
}

func addFile(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	entry, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	if _, err := io.Copy(entry, in); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	return nil
}

// prune deletes the oldest archives until the count fits the retention
// budget. Filenames embed a sortable timestamp, so lexicographic order is
// chronological.
func (s *Scheduler) prune() {
	archives, err := filepath.Glob(filepath.Join(s.backupDir, archivePrefix+"*.zip"))
	if err != nil {
		return
	}
	sort.Strings(archives)
	for len(archives) > s.maxKeep {
		if err := os.Remove(archives[0]); err != nil {
			s.logger.WithError(err).Warn("could not prune old backup")
			return
		}
		archives = archives[1:]
	}
}

func (s *Scheduler) watermarkPath() string {
	return filepath.Join(s.backupDir, watermarkName)
}

func (s *Scheduler) readWatermark() (time.Time, bool) {
	raw, err := os.ReadFile(s.watermarkPath())
	if err != nil {
		return time.Time{}, false
	}
	last, err := time.Parse(time.RFC3339, strings.TrimSpace(string(raw)))
	if err != nil {
		return time.Time{}, false
	}
	return last, true
}

func (s *Scheduler) writeWatermark(at time.Time) error {
	if err := os.WriteFile(s.watermarkPath(), []byte(at.Format(time.RFC3339)), 0o644); err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	return nil
}
