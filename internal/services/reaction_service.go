package services

import (
	"context"
	"errors"
	"strings"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrReactionNotFound = errors.New("reaction not found")

type ReactionService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewReactionService(db *gorm.DB, notifications *NotificationService) *ReactionService {
	return &ReactionService{db: db, notifications: notifications}
}

// Upsert sets the caller's reaction on a note. created reports whether a new row was added.
func (s *ReactionService) Upsert(ctx context.Context, userID uuid.UUID, req *dto.CreateReactionRequest) ([]models.Reaction, bool, error) {
	noteID, err := uuid.Parse(req.VoiceNoteID)
	if err != nil {
		return nil, false, ErrInvalidInput
	}
	emoji := strings.TrimSpace(req.Emoji)
	if emoji == "" {
		return nil, false, ErrInvalidInput
	}
	note, err := findVoiceNote(ctx, s.db, noteID)
	if err != nil {
		return nil, false, err
	}

	var (
		reaction models.Reaction
		created  bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND voice_note_id = ?", userID, noteID).First(&reaction).Error
		switch {
		case err == nil:
			return tx.Model(&reaction).Update("emoji", emoji).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			reaction = models.Reaction{UserID: userID, VoiceNoteID: noteID, Emoji: emoji}
			created = true
			return tx.Create(&reaction).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		actor := userID
		s.notifications.NotifyOwner(ctx, models.Notification{
			RecipientID: note.UserID,
			ActorID:     &actor,
			Type:        models.NotificationLike,
			VoiceNoteID: &noteID,
			ReactionID:  &reaction.ID,
		})
	}

	reactions, err := s.ForNote(ctx, noteID)
	return reactions, created, err
}

// Remove deletes one of the caller's reactions and returns what is left on the note.
func (s *ReactionService) Remove(ctx context.Context, userID, id uuid.UUID) ([]models.Reaction, error) {
	var reaction models.Reaction
	if err := s.db.WithContext(ctx).First(&reaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReactionNotFound
		}
		return nil, err
	}
	if reaction.UserID != userID {
		return nil, ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reaction_id = ?", reaction.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&reaction).Error
	})
	if err != nil {
		return nil, err
	}
	return s.ForNote(ctx, reaction.VoiceNoteID)
}

func (s *ReactionService) ForNote(ctx context.Context, noteID uuid.UUID) ([]models.Reaction, error) {
	reactions := []models.Reaction{}
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("voice_note_id = ?", noteID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}

// Grouped counts reactions per emoji, most used first.
func (s *ReactionService) Grouped(ctx context.Context, noteID uuid.UUID) ([]dto.ReactionGroup, error) {
	groups := []dto.ReactionGroup{}
	err := s.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("emoji, COUNT(*) AS count").
		Where("voice_note_id = ?", noteID).
		Group("emoji").
		Order("count DESC").
		Order("emoji ASC").
		Scan(&groups).Error
	return groups, err
}
