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

var ErrCommentNotFound = errors.New("comment not found")

type CommentService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewCommentService(db *gorm.DB, notifications *NotificationService) *CommentService {
	return &CommentService{db: db, notifications: notifications}
}

func (s *CommentService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateCommentRequest) (*models.Comment, error) {
	noteID, err := uuid.Parse(req.VoiceNoteID)
	if err != nil {
		return nil, ErrInvalidInput
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrInvalidInput
	}
	note, err := findVoiceNote(ctx, s.db, noteID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{UserID: userID, VoiceNoteID: noteID, Text: text}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}

	actor := userID
	s.notifications.NotifyOwner(ctx, models.Notification{
		RecipientID: note.UserID,
		ActorID:     &actor,
		Type:        models.NotificationComment,
		VoiceNoteID: &noteID,
		CommentID:   &comment.ID,
	})

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CommentService) ForNote(ctx context.Context, noteID uuid.UUID) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("voice_note_id = ?", noteID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (s *CommentService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.UserID != userID {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCommentTx(tx, comment.ID)
	})
}

func deleteCommentTx(tx *gorm.DB, commentID uuid.UUID) error {
	if err := tx.Where("comment_id = ?", commentID).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Comment{}, "id = ?", commentID).Error
}
