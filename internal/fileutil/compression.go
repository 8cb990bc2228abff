package fileutil

import (
	"compress/gzip"
	"io"
	"os"
)

// GzipFile compresses src into dst and returns original/compressed ratio.
func GzipFile(src, dst string) (float64, error) {
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

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return 0, err
	}
	if err := gz.Close(); err != nil {
		return 0, err
	}

	originalSize, err := Size(src)
	if err != nil {
		return 0, err
	}
	compressedSize, err := Size(dst)
	if err != nil {
		return 0, err
	}
	if compressedSize == 0 {
		return 0, nil
	}
	return float64(originalSize) / float64(compressedSize), nil
}

// GunzipFile decompresses src into dst.
func GunzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer gz.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, gz) //nolint:gosec // local archive handling, no untrusted source
	return err
}
