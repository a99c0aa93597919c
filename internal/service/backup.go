package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"pipedrive-sync/internal/clients"
)

// BackupService copies the audit database into the backup folder once a
// day and prunes old copies. The copy is named by date, so running it
// twice on the same day just refreshes the file.
type BackupService struct {
	dbPath        string
	backupDir     string
	retentionDays int
	s3            *clients.S3Client
	log           *zap.SugaredLogger
}

func NewBackupService(dbPath, backupDir string, retentionDays int, s3 *clients.S3Client, log *zap.SugaredLogger) *BackupService {
	return &BackupService{
		dbPath:        dbPath,
		backupDir:     backupDir,
		retentionDays: retentionDays,
		s3:            s3,
		log:           log,
	}
}

type BackupResult struct {
	FileName  string `json:"file_name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	S3Key     string `json:"s3_key,omitempty"`
	Pruned    int    `json:"pruned"`
}

// Run copies the database, uploads it when S3 is configured and prunes
// copies past the retention window.
func (s *BackupService) Run(ctx context.Context) (*BackupResult, error) {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure backup dir %q: %w", s.backupDir, err)
	}

	fileName := fmt.Sprintf("backup_devedores_%s.db", time.Now().Format("20060102"))
	dest := filepath.Join(s.backupDir, fileName)

	size, err := copyFile(s.dbPath, dest)
	if err != nil {
		return nil, err
	}

	result := &BackupResult{
		FileName:  fileName,
		Path:      dest,
		SizeBytes: size,
	}

	if s.s3 != nil {
		key, err := s.s3.UploadFile(ctx, dest, fileName)
		if err != nil {
			s.log.Warnw("backup upload failed, local copy kept", "file", fileName, "error", err)
		} else {
			result.S3Key = key
		}
	}

	pruned, err := s.prune()
	if err != nil {
		s.log.Warnw("backup prune failed", "error", err)
	}
	result.Pruned = pruned

	s.log.Infow("database backup finished",
		"file", fileName, "size_bytes", size, "pruned", pruned, "s3_key", result.S3Key)
	return result, nil
}

func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open database %q: %w", src, err)
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create backup file: %w", err)
	}

	size, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to copy database: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to finalize backup: %w", err)
	}
	return size, nil
}

func (s *BackupService) prune() (int, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	pruned := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "backup_devedores_") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.backupDir, e.Name())); err == nil {
				pruned++
			}
		}
	}
	return pruned, nil
}
