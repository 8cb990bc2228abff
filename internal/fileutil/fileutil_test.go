package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSHA256(t *testing.T) {
	path := writeFile(t, t.TempDir(), "f.txt", "hello")
	got, err := SHA256(path)
	if err != nil {
		t.Fatalf("sha256: %v", err)
	}
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("digest = %s, want %s", got, want)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report.pdf":        "report.pdf",
		"my file (1).txt":   "my_file__1_.txt",
		"../../etc/passwd":  ".._.._etc_passwd",
		"data-2024_v1.json": "data-2024_v1.json",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"a.TXT":    "txt",
		"a.tar.gz": "gz",
		"noext":    "",
		"dir/f.go": "go",
	}
	for in, want := range cases {
		if got := Extension(in); got != want {
			t.Errorf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateSize(t *testing.T) {
	path := writeFile(t, t.TempDir(), "f.txt", strings.Repeat("x", 100))
	if err := ValidateSize(path, 100); err != nil {
		t.Errorf("exact size rejected: %v", err)
	}
	if err := ValidateSize(path, 99); err == nil {
		t.Error("oversize file accepted")
	}
	if err := ValidateSize(path, 0); err != nil {
		t.Errorf("zero max must mean unlimited: %v", err)
	}
}

func TestValidateExtension(t *testing.T) {
	allowed := []string{"txt", "json"}
	if err := ValidateExtension("a.TXT", allowed); err != nil {
		t.Errorf("case-insensitive match failed: %v", err)
	}
	if err := ValidateExtension("a.exe", allowed); err == nil {
		t.Error("disallowed extension accepted")
	}
	if err := ValidateExtension("noext", allowed); err != nil {
		t.Errorf("extensionless file rejected: %v", err)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "src.txt", "content")
	dst := filepath.Join(dir, "nested", "dst.txt")

	n, err := CopyFile(src, dst)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if n != int64(len("content")) {
		t.Errorf("copied %d bytes", n)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "content" {
		t.Errorf("dst content = %q, err %v", got, err)
	}
}

func TestDetectMimeType(t *testing.T) {
	cases := map[string]string{
		"f.json":    "application/json",
		"f.yaml":    "application/x-yaml",
		"f.gz":      "application/gzip",
		"f.unknown": "application/octet-stream",
		"noext":     "application/octet-stream",
	}
	for in, want := range cases {
		if got := DetectMimeType(in); got != want {
			t.Errorf("DetectMimeType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGzipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("compressible data ", 200)
	src := writeFile(t, dir, "src.txt", content)
	gz := filepath.Join(dir, "src.txt.gz")
	out := filepath.Join(dir, "restored.txt")

	ratio, err := GzipFile(src, gz)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if ratio <= 1 {
		t.Errorf("repetitive input should compress, ratio = %f", ratio)
	}
	if err := GunzipFile(gz, out); err != nil {
		t.Fatalf("gunzip: %v", err)
	}
	restored, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if !bytes.Equal(restored, []byte(content)) {
		t.Error("round trip lost data")
	}
}
