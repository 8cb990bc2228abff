package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/appleton-labs/automaton/internal/config"
)

func testConfig(t *testing.T) config.UploadConfig {
	t.Helper()
	base := t.TempDir()
	return config.UploadConfig{
		Dir:                filepath.Join(base, "uploads"),
		MaxFileSize:        1024,
		AllowedExtensions:  []string{"txt", "json"},
		CompressionEnabled: false,
		BackupEnabled:      false,
		BackupDir:          filepath.Join(base, "backups"),
		ArchiveAfter:       "720h",
	}
}

func stageFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("stage %s: %v", name, err)
	}
	return path
}

func TestProcessHappyPath(t *testing.T) {
	cfg := testConfig(t)
	mgr := NewManager(cfg, nil)
	src := stageFile(t, "report.txt", "hello upload")

	info, err := mgr.Process(context.Background(), src)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if info.Status != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", info.Status)
	}
	if info.Metadata.Checksum == "" {
		t.Error("checksum not recorded")
	}
	if info.MimeType != "text/plain" && !strings.HasPrefix(info.MimeType, "text/plain;") {
		t.Errorf("mime = %q", info.MimeType)
	}
	if _, err := os.Stat(info.ProcessedPath); err != nil {
		t.Errorf("processed file missing: %v", err)
	}
	found := false
	for _, tag := range info.Metadata.Tags {
		if tag == "ext:txt" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ext:txt tag, got %v", info.Metadata.Tags)
	}

	// Durable record readable back.
	got, err := mgr.Get(info.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got.Filename != "report.txt" {
		t.Errorf("record filename = %q", got.Filename)
	}
}

func TestProcessWithCompressionAndBackup(t *testing.T) {
	cfg := testConfig(t)
	cfg.CompressionEnabled = true
	cfg.BackupEnabled = true
	mgr := NewManager(cfg, nil)
	src := stageFile(t, "data.txt", strings.Repeat("repetitive ", 50))

	info, err := mgr.Process(context.Background(), src)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.HasSuffix(info.ProcessedPath, ".gz") {
		t.Errorf("processed path = %q, want .gz", info.ProcessedPath)
	}
	if info.Metadata.CompressionRatio <= 1 {
		t.Errorf("compression ratio = %f", info.Metadata.CompressionRatio)
	}
	if info.Metadata.BackupPath == "" {
		t.Fatal("backup path not recorded")
	}
	if _, err := os.Stat(info.Metadata.BackupPath); err != nil {
		t.Errorf("backup missing: %v", err)
	}
}

func TestProcessRejectsInvalidFiles(t *testing.T) {
	cfg := testConfig(t)
	mgr := NewManager(cfg, nil)

	big := stageFile(t, "big.txt", strings.Repeat("x", 2048))
	if _, err := mgr.Process(context.Background(), big); err == nil {
		t.Error("oversize file accepted")
	}

	exe := stageFile(t, "tool.exe", "MZ")
	if _, err := mgr.Process(context.Background(), exe); err == nil {
		t.Error("disallowed extension accepted")
	}

	if _, err := mgr.Process(context.Background(), filepath.Join(t.TempDir(), "ghost.txt")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestListAndDelete(t *testing.T) {
	cfg := testConfig(t)
	mgr := NewManager(cfg, nil)

	first, err := mgr.Process(context.Background(), stageFile(t, "a.txt", "one"))
	if err != nil {
		t.Fatalf("process a: %v", err)
	}
	if _, err := mgr.Process(context.Background(), stageFile(t, "b.txt", "two")); err != nil {
		t.Fatalf("process b: %v", err)
	}

	items, err := mgr.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("list = %d items, want 2", len(items))
	}

	if err := mgr.Delete(first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := mgr.Get(first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted record still readable: %v", err)
	}
	if _, err := os.Stat(first.ProcessedPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("processed file survived delete: %v", err)
	}

	items, _ = mgr.List()
	if len(items) != 1 {
		t.Errorf("list after delete = %d items", len(items))
	}
}

func TestGetUnknownUpload(t *testing.T) {
	mgr := NewManager(testConfig(t), nil)
	if _, err := mgr.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
