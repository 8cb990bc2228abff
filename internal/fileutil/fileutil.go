// Package fileutil holds the file handling primitives shared by the upload
// pipeline: validation, hashing, copying, and mime detection.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// SHA256 streams the file through sha256 and returns the hex digest.
func SHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func IsReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Extension returns the lowercase extension without the leading dot, or "".
func Extension(path string) string {
	ext := filepath.Ext(path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// SanitizeFilename replaces everything outside [A-Za-z0-9.-_] with '_'.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// CopyFile copies src to dst, creating dst's directory as needed.
func CopyFile(src, dst string) (int64, error) {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return 0, err
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		return n, err
	}
	return n, out.Sync()
}

// ValidateSize rejects files larger than maxSize bytes.
func ValidateSize(path string, maxSize int64) error {
	size, err := Size(path)
	if err != nil {
		return err
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed size %d", size, maxSize)
	}
	return nil
}

// ValidateExtension rejects files whose extension is not in allowed.
// Files with no extension pass.
func ValidateExtension(path string, allowed []string) error {
	ext := Extension(path)
	if ext == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return nil
		}
	}
	return fmt.Errorf("file extension %q is not allowed", ext)
}

// DetectMimeType resolves a content type from the extension, defaulting to
// application/octet-stream.
func DetectMimeType(path string) string {
	ext := filepath.Ext(path)
	if ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			if idx := strings.Index(t, ";"); idx > 0 {
				return t[:idx]
			}
			return t
		}
	}
	switch Extension(path) {
	case "yaml", "yml":
		return "application/x-yaml"
	case "gz":
		return "application/gzip"
	case "tar":
		return "application/x-tar"
	}
	return "application/octet-stream"
}
