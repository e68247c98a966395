// Package storage keeps uploaded avatars and audio on local disk and maps them
// to public URLs served under the uploads prefix.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const (
	DirAvatars    = "avatars"
	DirVoiceNotes = "voice_notes"
)

var ErrOutsideRoot = errors.New("path is outside the upload directory")

// LocalStore writes files under Root and exposes them under URLPrefix.
type LocalStore struct {
	Root      string
	URLPrefix string
}

func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	for _, dir := range []string{DirAvatars, DirVoiceNotes} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
		}
	}
	return &LocalStore{Root: root, URLPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// Save writes the uploaded file to <dir>/<prefix>-<unique><ext> and returns its public URL.
func (s *LocalStore) Save(fh *multipart.FileHeader, dir, prefix string) (string, error) {
	name := prefix + "-" + uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst := filepath.Join(s.Root, dir, name)
	if err := fasthttp.SaveMultipartFile(fh, dst); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path.Join(s.URLPrefix, dir, name), nil
}

// Remove deletes the file behind a public URL.
func (s *LocalStore) Remove(publicURL string) error {
	local, err := s.localPath(publicURL)
	if err != nil {
		return err
	}
	return os.Remove(local)
}

// RemoveQuietly deletes the file and only logs failures.
func (s *LocalStore) RemoveQuietly(publicURL string) {
	if publicURL == "" {
		return
	}
	if err := s.Remove(publicURL); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove stored file", "url", publicURL, "error", err)
	}
}

// Exists reports whether the file behind a public URL is on disk.
func (s *LocalStore) Exists(publicURL string) bool {
	local, err := s.localPath(publicURL)
	if err != nil {
		return false
	}
	_, err = os.Stat(local)
	return err == nil
}

func (s *LocalStore) localPath(publicURL string) (string, error) {
	rel := strings.TrimPrefix(path.Clean("/"+publicURL), s.URLPrefix+"/")
	if rel == "" || strings.HasPrefix(rel, "/") || strings.Contains(rel, "..") {
		return "", ErrOutsideRoot
	}
	return filepath.Join(s.Root, filepath.FromSlash(rel)), nil
}
