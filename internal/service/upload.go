package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xiaot623/learnchat/internal/domain"
)

// MaxUploadSize is the largest accepted upload in bytes, 0 for no limit.
func (s *Service) MaxUploadSize() int64 {
	return s.config.MaxUploadSize
}

// SaveUpload writes an uploaded file below the uploads dir and returns the
// stored file name. Content beyond MaxUploadSize fails with ErrUploadTooLarge
// and leaves nothing behind.
func (s *Service) SaveUpload(ctx context.Context, name string, r io.Reader) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("%w: No file uploaded", domain.ErrInvalidRequest)
	}
	fileName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), strings.TrimPrefix(base, "."))

	dir := s.UploadsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads dir: %w", err)
	}

	path := filepath.Join(dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload: %w", err)
	}

	src := r
	limit := s.config.MaxUploadSize
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && limit > 0 && n > limit {
		err = domain.ErrUploadTooLarge
	}
	if err != nil {
		os.Remove(path)
		if errors.Is(err, domain.ErrUploadTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	s.logger.Info("file uploaded", "file", fileName, "bytes", n)
	return fileName, nil
}
