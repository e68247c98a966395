package services

import (
	"context"
	"strings"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShareService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewShareService(db *gorm.DB, notifications *NotificationService) *ShareService {
	return &ShareService{db: db, notifications: notifications}
}

func (s *ShareService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateShareRequest) (*models.Share, error) {
	noteID, err := uuid.Parse(req.VoiceNoteID)
	if err != nil {
		return nil, ErrInvalidInput
	}
	note, err := findVoiceNote(ctx, s.db, noteID)
	if err != nil {
		return nil, err
	}

	share := models.Share{UserID: userID, VoiceNoteID: noteID, SharedTo: strings.TrimSpace(req.SharedTo)}
	if err := s.db.WithContext(ctx).Create(&share).Error; err != nil {
		return nil, err
	}

	actor := userID
	s.notifications.NotifyOwner(ctx, models.Notification{
		RecipientID: note.UserID,
		ActorID:     &actor,
		Type:        models.NotificationShare,
		VoiceNoteID: &noteID,
		ShareID:     &share.ID,
	})

	if err := s.db.WithContext(ctx).Preload("User").First(&share, "id = ?", share.ID).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (s *ShareService) ForNote(ctx context.Context, noteID uuid.UUID, page dto.PageQuery) ([]models.Share, int64, error) {
	var total int64
	shares := []models.Share{}

	base := s.db.WithContext(ctx).Model(&models.Share{}).Where("voice_note_id = ?", noteID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("voice_note_id = ?", noteID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&shares).Error
	if err != nil {
		return nil, 0, err
	}
	return shares, total, nil
}
