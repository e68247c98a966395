package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
)

func fileHeader(t *testing.T, name string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("audio", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(body)
	w.Close()

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	return req.MultipartForm.File["audio"][0]
}

func TestSaveAndRemove(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	url, err := store.Save(fileHeader(t, "clip.MP3", []byte("ID3")), DirVoiceNotes, "note")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/voice_notes/note-") || !strings.HasSuffix(url, ".mp3") {
		t.Errorf("unexpected url %q", url)
	}
	if !store.Exists(url) {
		t.Fatalf("expected %s to exist", url)
	}

	if err := store.Remove(url); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if store.Exists(url) {
		t.Errorf("expected %s to be gone", url)
	}
}

func TestRemoveRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	for _, u := range []string{"/etc/passwd", "/uploads/../../etc/passwd", ""} {
		if err := store.Remove(u); err == nil {
			t.Errorf("expected error removing %q", u)
		}
	}
}
