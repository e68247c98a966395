package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

const EventNewNotification = "newNotification"

type NotificationService struct {
	db        *gorm.DB
	publisher Publisher
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, publisher: nopPublisher{}}
}

// SetPublisher wires real-time delivery once the socket hub exists.
func (s *NotificationService) SetPublisher(p Publisher) {
	if p == nil {
		p = nopPublisher{}
	}
	s.publisher = p
}

// NotifyOwner records an activity notification for the owner of a voice note.
// Nothing is recorded when the owner is the actor.
func (s *NotificationService) NotifyOwner(ctx context.Context, n models.Notification) {
	if n.ActorID != nil && *n.ActorID == n.RecipientID {
		return
	}
	if err := s.create(ctx, &n); err != nil {
		slog.Error("failed to create notification", "type", n.Type, "recipient", n.RecipientID.String(), "error", err)
	}
}

// NotifySystem sends a system notice with a free-text message inside tx.
func (s *NotificationService) NotifySystem(ctx context.Context, tx *gorm.DB, recipientID uuid.UUID, message string) (*models.Notification, error) {
	n := models.Notification{
		RecipientID: recipientID,
		Type:        models.NotificationSystem,
		Message:     message,
	}
	if err := tx.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// Push delivers an already persisted notification to the recipient's sockets.
func (s *NotificationService) Push(ctx context.Context, n *models.Notification) {
	loaded, err := s.load(ctx, n.ID)
	if err != nil {
		slog.Warn("failed to load notification for push", "id", n.ID.String(), "error", err)
		return
	}
	s.publisher.Publish(UserRoom(n.RecipientID), EventNewNotification, loaded)
}

func (s *NotificationService) create(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return err
	}
	s.Push(ctx, n)
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page dto.PageQuery) ([]models.Notification, int64, int64, error) {
	var (
		items  []models.Notification
		total  int64
		unread int64
	)

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("recipient_id = ?", userID)
		if unreadOnly {
			db = db.Where("is_read = ?", false)
		}
		return db
	}

	if err := s.db.WithContext(ctx).Model(&models.Notification{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, 0, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, 0, 0, err
	}

	err := s.withRelations(s.db.WithContext(ctx)).
		Scopes(filter).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, 0, err
	}
	return items, total, unread, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// MarkRead marks one notification read. Notifications of other users look missing.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Notification{}).
			Where("id = ? AND recipient_id = ?", id, userID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrNotificationNotFound
		}
	}
	return s.load(ctx, id)
}

func (s *NotificationService) load(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	if err := s.withRelations(s.db.WithContext(ctx)).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (s *NotificationService) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Actor").
		Preload("VoiceNote", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "user_id", "description")
		})
}
