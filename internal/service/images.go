package service

import (
	"encoding/base64"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// UploadsDir is where uploaded images are written, below the public dir.
func (s *Service) UploadsDir() string {
	return filepath.Join(s.config.PublicDir, "uploads")
}

// modelImageURL returns the URL to hand the model for an image. Files
// uploaded to this server are inlined as data URLs since the model host
// usually cannot reach them.
func (s *Service) modelImageURL(raw string) string {
	if strings.HasPrefix(raw, "data:") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || !strings.HasPrefix(u.Path, "/uploads/") {
		return raw
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return raw
	}

	file := filepath.Join(s.UploadsDir(), name)
	info, err := os.Stat(file)
	if err != nil || info.IsDir() || (s.config.MaxUploadSize > 0 && info.Size() > s.config.MaxUploadSize) {
		return raw
	}
	data, err := os.ReadFile(file)
	if err != nil {
		s.logger.Warn("failed to inline uploaded image", "file", file, "error", err)
		return raw
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
