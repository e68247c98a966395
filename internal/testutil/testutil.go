// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/config"
	"github.com/DJELO6elisee/YouVoice-API/internal/database"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "test-secret"

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Config returns a configuration suitable for handler and service tests.
func Config() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		DBDialect:       "sqlite",
		JWTSecret:       JWTSecret,
		JWTExpiresIn:    time.Hour,
		UploadDir:       "uploads",
		UploadURLPrefix: "/uploads",
		MaxFileSize:     1 << 20,
		MaxAvatarSize:   1 << 20,
		SocketPath:      "/socket",
		CORSOrigins:     "*",
		RateLimitMax:    1000,
		RateLimitWindow: time.Minute,
	}
}

// CreateUser inserts an active user. The password column holds a placeholder,
// not a bcrypt hash, so these users cannot log in.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// CreateVoiceNote inserts a note for owner, created at the given time.
func CreateVoiceNote(t *testing.T, db *gorm.DB, owner *models.User, description string, createdAt time.Time) *models.VoiceNote {
	t.Helper()
	note := &models.VoiceNote{
		UserID:      owner.ID,
		AudioURL:    "/uploads/voice_notes/" + description + ".mp3",
		Duration:    10,
		Description: description,
		CreatedAt:   createdAt,
	}
	if err := db.Create(note).Error; err != nil {
		t.Fatalf("create voice note: %v", err)
	}
	return note
}

// FileRecorder records removed upload URLs.
type FileRecorder struct {
	Removed []string
}

func (f *FileRecorder) RemoveQuietly(publicURL string) {
	f.Removed = append(f.Removed, publicURL)
}

// Publication is one event captured by Publisher.
type Publication struct {
	Room  string
	Event string
	Data  interface{}
}

// Publisher captures published events in order.
type Publisher struct {
	Events []Publication
}

func (p *Publisher) Publish(room, event string, data interface{}) {
	p.Events = append(p.Events, Publication{Room: room, Event: event, Data: data})
}
