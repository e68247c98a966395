package handlers

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// FileStore persists uploads and removes them again.
type FileStore interface {
	Save(fh *multipart.FileHeader, dir, prefix string) (string, error)
	RemoveQuietly(publicURL string)
}

var allowedAudioTypes = map[string]bool{
	"audio/mpeg":   true,
	"audio/mp3":    true,
	"audio/wav":    true,
	"audio/x-wav":  true,
	"audio/wave":   true,
	"audio/ogg":    true,
	"audio/mp4":    true,
	"audio/x-m4a":  true,
	"audio/webm":   true,
	"audio/aac":    true,
	"audio/x-aac":  true,
	"audio/x-mpeg": true,
}

func mediaType(fh *multipart.FileHeader) string {
	mt, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

func checkAudio(fh *multipart.FileHeader, maxSize int) error {
	if !allowedAudioTypes[mediaType(fh)] {
		return fmt.Errorf("unsupported audio type %q", fh.Header.Get("Content-Type"))
	}
	if fh.Size > int64(maxSize) {
		return fmt.Errorf("audio file must be at most %d bytes", maxSize)
	}
	return nil
}

func checkImage(fh *multipart.FileHeader, maxSize int) error {
	if !strings.HasPrefix(mediaType(fh), "image/") {
		return errors.New("avatar must be an image")
	}
	if fh.Size > int64(maxSize) {
		return fmt.Errorf("avatar must be at most %d bytes", maxSize)
	}
	return nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}
