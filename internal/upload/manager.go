// Package upload implements the standardized file intake pipeline: every
// accepted file passes the same fixed sequence of validation, backup, copy,
// compression, metadata generation and archiving steps.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/appleton-labs/automaton/internal/config"
	"github.com/appleton-labs/automaton/internal/fileutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusArchived   Status = "ARCHIVED"
)

type Info struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	OriginalPath  string    `json:"original_path"`
	ProcessedPath string    `json:"processed_path"`
	FileSize      int64     `json:"file_size"`
	MimeType      string    `json:"mime_type"`
	UploadedAt    time.Time `json:"uploaded_at"`
	Status        Status    `json:"status"`
	Metadata      Metadata  `json:"metadata"`
}

type Metadata struct {
	Checksum         string   `json:"checksum"`
	CompressionRatio float64  `json:"compression_ratio,omitempty"`
	BackupPath       string   `json:"backup_path,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

var ErrNotFound = errors.New("upload not found")

type Manager struct {
	cfg    config.UploadConfig
	logger *zap.Logger
}

func NewManager(cfg config.UploadConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Process runs the intake pipeline for one file and writes its durable
// record.
func (m *Manager) Process(ctx context.Context, path string) (*Info, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("upload path does not exist: %s", path)
	}

	id := uuid.NewString()
	m.logger.Info("processing upload", zap.String("upload_id", id), zap.String("path", path))

	if err := m.validate(path); err != nil {
		return nil, err
	}

	info, err := m.describe(id, path)
	if err != nil {
		return nil, err
	}

	if err := m.runPipeline(ctx, info); err != nil {
		info.Status = StatusFailed
		_ = m.saveRecord(info)
		return info, err
	}

	if err := m.saveRecord(info); err != nil {
		return info, err
	}
	m.logger.Info("upload processed", zap.String("upload_id", id), zap.String("status", string(info.Status)))
	return info, nil
}

func (m *Manager) validate(path string) error {
	if err := fileutil.ValidateSize(path, m.cfg.MaxFileSize); err != nil {
		return err
	}
	if err := fileutil.ValidateExtension(path, m.cfg.AllowedExtensions); err != nil {
		return err
	}
	if !fileutil.IsReadable(path) {
		return fmt.Errorf("file is not readable: %s", path)
	}
	return nil
}

func (m *Manager) describe(id, path string) (*Info, error) {
	size, err := fileutil.Size(path)
	if err != nil {
		return nil, err
	}
	checksum, err := fileutil.SHA256(path)
	if err != nil {
		return nil, err
	}
	filename := fileutil.SanitizeFilename(filepath.Base(path))
	return &Info{
		ID:            id,
		Filename:      filename,
		OriginalPath:  path,
		ProcessedPath: filepath.Join(m.cfg.Dir, filename),
		FileSize:      size,
		MimeType:      fileutil.DetectMimeType(path),
		UploadedAt:    time.Now().UTC(),
		Status:        StatusPending,
		Metadata:      Metadata{Checksum: checksum},
	}, nil
}

// runPipeline executes the fixed intake sequence. Step order is part of the
// procedure's contract and must not vary per file.
func (m *Manager) runPipeline(ctx context.Context, info *Info) error {
	info.Status = StatusProcessing

	if err := ctx.Err(); err != nil {
		return err
	}

	if m.cfg.BackupEnabled {
		if err := m.backup(info); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
	}

	if _, err := fileutil.CopyFile(info.OriginalPath, info.ProcessedPath); err != nil {
		return fmt.Errorf("copying to upload dir: %w", err)
	}

	if m.cfg.CompressionEnabled {
		if err := m.compress(info); err != nil {
			return fmt.Errorf("compression: %w", err)
		}
	}

	m.tag(info)

	if err := m.archiveIfStale(info); err != nil {
		return fmt.Errorf("archiving: %w", err)
	}

	if info.Status != StatusArchived {
		info.Status = StatusCompleted
	}
	return nil
}

func (m *Manager) backup(info *Info) error {
	name := fmt.Sprintf("%s_%s.bak", info.ID, info.UploadedAt.Format("20060102_150405"))
	backupPath := filepath.Join(m.cfg.BackupDir, name)
	if _, err := fileutil.CopyFile(info.OriginalPath, backupPath); err != nil {
		return err
	}
	info.Metadata.BackupPath = backupPath
	m.logger.Info("backup created", zap.String("upload_id", info.ID), zap.String("path", backupPath))
	return nil
}

func (m *Manager) compress(info *Info) error {
	compressed := info.ProcessedPath + ".gz"
	ratio, err := fileutil.GzipFile(info.ProcessedPath, compressed)
	if err != nil {
		return err
	}
	if err := os.Remove(info.ProcessedPath); err != nil {
		return err
	}
	info.ProcessedPath = compressed
	info.Metadata.CompressionRatio = ratio
	m.logger.Info("file compressed",
		zap.String("upload_id", info.ID),
		zap.Float64("ratio", ratio))
	return nil
}

func (m *Manager) tag(info *Info) {
	if ext := fileutil.Extension(info.ProcessedPath); ext != "" {
		info.Metadata.Tags = append(info.Metadata.Tags, "ext:"+ext)
	}
	if info.FileSize > 10*1024*1024 {
		info.Metadata.Tags = append(info.Metadata.Tags, "large_file")
	}
	info.Metadata.Tags = append(info.Metadata.Tags, "uploaded:"+info.UploadedAt.Format("2006-01-02"))
}

func (m *Manager) archiveIfStale(info *Info) error {
	cutoff := config.Duration(m.cfg.ArchiveAfter, 30*24*time.Hour)
	if time.Since(info.UploadedAt) < cutoff {
		return nil
	}
	archiveDir := filepath.Join(m.cfg.Dir, "archive")
	if err := fileutil.EnsureDir(archiveDir); err != nil {
		return err
	}
	archivePath := filepath.Join(archiveDir, filepath.Base(info.ProcessedPath))
	if err := os.Rename(info.ProcessedPath, archivePath); err != nil {
		return err
	}
	info.ProcessedPath = archivePath
	info.Status = StatusArchived
	return nil
}

func (m *Manager) recordsDir() string {
	return filepath.Join(m.cfg.Dir, "records")
}

func (m *Manager) saveRecord(info *Info) error {
	if err := fileutil.EnsureDir(m.recordsDir()); err != nil {
		return err
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.recordsDir(), info.ID+".json"), data, 0o644)
}

func (m *Manager) Get(id string) (*Info, error) {
	data, err := os.ReadFile(filepath.Join(m.recordsDir(), id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (m *Manager) List() ([]*Info, error) {
	entries, err := os.ReadDir(m.recordsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []*Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := m.Get(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

// Delete removes the processed file, its backup, and the record.
func (m *Manager) Delete(id string) error {
	info, err := m.Get(id)
	if err != nil {
		return err
	}
	if info.ProcessedPath != "" {
		if err := os.Remove(info.ProcessedPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if info.Metadata.BackupPath != "" {
		if err := os.Remove(info.Metadata.BackupPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return os.Remove(filepath.Join(m.recordsDir(), id+".json"))
}
