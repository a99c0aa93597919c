package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipedrive-sync/internal/logging"
)

func TestBackupRun_CopiesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "devedores.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite payload"), 0o644))

	backupDir := filepath.Join(dir, "backup")
	svc := NewBackupService(dbPath, backupDir, 30, nil, logging.NewNop())

	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	expected := fmt.Sprintf("backup_devedores_%s.db", time.Now().Format("20060102"))
	assert.Equal(t, expected, result.FileName)
	assert.Equal(t, int64(len("sqlite payload")), result.SizeBytes)
	assert.Empty(t, result.S3Key)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite payload", string(data))
}

func TestBackupRun_SameDayOverwrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "devedores.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("v1"), 0o644))

	backupDir := filepath.Join(dir, "backup")
	svc := NewBackupService(dbPath, backupDir, 30, nil, logging.NewNop())

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dbPath, []byte("v2 longer"), 0o644))
	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "v2 longer", string(data))
}

func TestBackupRun_PrunesOldCopies(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "devedores.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	backupDir := filepath.Join(dir, "backup")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))

	stale := filepath.Join(backupDir, "backup_devedores_20200101.db")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	oldTime := time.Now().AddDate(0, 0, -60)
	require.NoError(t, os.Chtimes(stale, oldTime, oldTime))

	unrelated := filepath.Join(backupDir, "notas.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))
	require.NoError(t, os.Chtimes(unrelated, oldTime, oldTime))

	svc := NewBackupService(dbPath, backupDir, 30, nil, logging.NewNop())
	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pruned)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(unrelated)
	assert.NoError(t, err)
}

func TestBackupRun_MissingDatabase(t *testing.T) {
	dir := t.TempDir()
	svc := NewBackupService(filepath.Join(dir, "nope.db"), filepath.Join(dir, "backup"), 30, nil, logging.NewNop())

	_, err := svc.Run(context.Background())
	require.Error(t, err)
}
