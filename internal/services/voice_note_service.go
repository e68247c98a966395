package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidDuration = fmt.Errorf("duration must be a whole number of seconds between 1 and %d", models.MaxVoiceNoteDuration)

const (
	SortCreatedAt     = "created_at"
	SortReactionCount = "reaction_count"
)

const reactionCountSelect = "voice_notes.*, (SELECT COUNT(*) FROM reactions WHERE reactions.voice_note_id = voice_notes.id) AS reaction_count"

type VoiceNoteService struct {
	db    *gorm.DB
	files FileRemover
}

func NewVoiceNoteService(db *gorm.DB, files FileRemover) *VoiceNoteService {
	return &VoiceNoteService{db: db, files: files}
}

func (s *VoiceNoteService) Create(ctx context.Context, userID uuid.UUID, audioURL string, duration int, description string) (*models.VoiceNote, error) {
	if duration < 1 || duration > models.MaxVoiceNoteDuration {
		return nil, ErrInvalidDuration
	}

	note := models.VoiceNote{
		UserID:      userID,
		AudioURL:    audioURL,
		Duration:    duration,
		Description: strings.TrimSpace(description),
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, fmt.Errorf("failed to create voice note: %w", err)
	}
	return s.Get(ctx, note.ID)
}

// Feed lists voice notes with optional search and sorting by recency or reaction count.
func (s *VoiceNoteService) Feed(ctx context.Context, q dto.FeedQuery) ([]models.VoiceNote, int64, error) {
	return s.list(ctx, q, nil)
}

func (s *VoiceNoteService) ListByUser(ctx context.Context, userID uuid.UUID, q dto.FeedQuery) ([]models.VoiceNote, int64, error) {
	return s.list(ctx, q, &userID)
}

func (s *VoiceNoteService) list(ctx context.Context, q dto.FeedQuery, owner *uuid.UUID) ([]models.VoiceNote, int64, error) {
	var (
		notes []models.VoiceNote
		total int64
	)

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Joins("JOIN users ON users.id = voice_notes.user_id")
		if owner != nil {
			db = db.Where("voice_notes.user_id = ?", *owner)
		}
		if search := strings.TrimSpace(q.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			db = db.Where("LOWER(voice_notes.description) LIKE ? OR LOWER(users.username) LIKE ?", like, like)
		}
		return db
	}

	if err := s.db.WithContext(ctx).Model(&models.VoiceNote{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		direction = "ASC"
	}

	query := s.withDetails(s.db.WithContext(ctx)).
		Model(&models.VoiceNote{}).
		Scopes(filter).
		Select(reactionCountSelect)
	if q.SortBy == SortReactionCount {
		query = query.Order("reaction_count " + direction).Order("voice_notes.created_at DESC")
	} else {
		query = query.Order("voice_notes.created_at " + direction)
	}

	if err := query.Limit(q.Limit).Offset(q.Offset()).Find(&notes).Error; err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

func (s *VoiceNoteService) Get(ctx context.Context, id uuid.UUID) (*models.VoiceNote, error) {
	var note models.VoiceNote
	err := s.withDetails(s.db.WithContext(ctx)).
		Select(reactionCountSelect).
		First(&note, "voice_notes.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoiceNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}

// Delete removes a note owned by userID along with everything attached to it.
func (s *VoiceNoteService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	var note models.VoiceNote
	if err := s.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVoiceNoteNotFound
		}
		return err
	}
	if note.UserID != userID {
		return ErrForbidden
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteVoiceNoteTx(tx, note.ID)
	}); err != nil {
		return err
	}

	s.files.RemoveQuietly(note.AudioURL)
	return nil
}

func (s *VoiceNoteService) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Reactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("reactions.created_at ASC")
		}).
		Preload("Reactions.User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.User")
}

// findVoiceNote loads the bare note or returns ErrVoiceNoteNotFound.
func findVoiceNote(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.VoiceNote, error) {
	var note models.VoiceNote
	if err := db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoiceNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}

// deleteVoiceNoteTx removes a note and its dependents. FK cascades cover the same
// ground on dialects that enforce them; doing it here keeps SQLite without the
// pragma consistent.
func deleteVoiceNoteTx(tx *gorm.DB, noteID uuid.UUID) error {
	dependents := []interface{}{
		&models.Notification{},
		&models.Reaction{},
		&models.Comment{},
		&models.Share{},
		&models.Report{},
	}
	for _, model := range dependents {
		if err := tx.Where("voice_note_id = ?", noteID).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&models.VoiceNote{}, "id = ?", noteID).Error
}
