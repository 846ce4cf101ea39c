package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Backup copies the upload directory into timestamped folders once a day at
// a fixed hour and removes backups older than Retention.
type Backup struct {
	Source    string
	Dest      string
	Retention time.Duration
	Hour      int
	Log       *zap.Logger
}

// Run blocks until ctx is done.
func (b Backup) Run(ctx context.Context) {
	for {
		next := nextRun(time.Now(), b.Hour)
		b.Log.Info("next image backup scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if dir, err := b.RunOnce(time.Now()); err != nil {
			b.Log.Error("image backup failed", zap.Error(err))
		} else {
			b.Log.Info("images backed up", zap.String("dir", dir))
		}
		b.Prune(time.Now())
	}
}

// RunOnce copies Source into a folder under Dest named after now.
func (b Backup) RunOnce(now time.Time) (string, error) {
	dest := filepath.Join(b.Dest, now.Format("2006-01-02_15-04-05"))
	return dest, copyDir(b.Source, dest)
}

// Prune removes backup folders last modified before now minus Retention.
func (b Backup) Prune(now time.Time) {
	entries, err := os.ReadDir(b.Dest)
	if err != nil {
		b.Log.Error("failed to read backup directory", zap.Error(err))
		return
	}

	cutoff := now.Add(-b.Retention)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(b.Dest, entry.Name())
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			b.Log.Error("failed to remove old backup", zap.String("dir", path), zap.Error(err))
		} else {
			b.Log.Info("removed old backup", zap.String("dir", path))
		}
	}
}

func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func copyDir(src, dest string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())
		if entry.IsDir() {
			if err := copyDir(srcPath, destPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, destPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
