package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrTooFewParticipants   = errors.New("a conversation needs at least one other participant")
	ErrParticipantNotFound  = errors.New("one or more participants do not exist")
	ErrEmptyMessage         = errors.New("message content is required")
	ErrMessageTooLong       = fmt.Errorf("message content must be at most %d characters", models.MaxMessageLength)
	ErrEmptySearch          = errors.New("search query is required")
)

const (
	EventNewMessage = "newMessage"

	findUsersLimit = 10
)

type ConversationService struct {
	db        *gorm.DB
	publisher Publisher
}

func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{db: db, publisher: nopPublisher{}}
}

func (s *ConversationService) SetPublisher(p Publisher) {
	if p == nil {
		p = nopPublisher{}
	}
	s.publisher = p
}

// Create opens a conversation between the creator and the given users. A 1:1
// conversation that already exists is returned as is, with created false.
func (s *ConversationService) Create(ctx context.Context, creatorID uuid.UUID, req *dto.CreateConversationRequest) (*models.Conversation, bool, error) {
	members := []uuid.UUID{creatorID}
	seen := map[uuid.UUID]bool{creatorID: true}
	for _, raw := range req.ParticipantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, false, ErrInvalidInput
		}
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	if len(members) < 2 {
		return nil, false, ErrTooFewParticipants
	}
	isGroup := len(members) > 2

	var (
		conversationID uuid.UUID
		created        bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Locking the member rows serializes concurrent creates for the same pair.
		var found []uuid.UUID
		if err := tx.Model(&models.User{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", members).
			Order("id").
			Pluck("id", &found).Error; err != nil {
			return err
		}
		if len(found) != len(members) {
			return ErrParticipantNotFound
		}

		if !isGroup {
			existing, err := findDirectConversation(tx, members[0], members[1])
			if err != nil {
				return err
			}
			if existing != uuid.Nil {
				conversationID = existing
				return nil
			}
		}

		conversation := models.Conversation{IsGroup: isGroup}
		if name := strings.TrimSpace(req.Name); name != "" {
			conversation.Name = &name
		} else if isGroup {
			name := fmt.Sprintf("Group (%d)", len(members))
			conversation.Name = &name
		}
		if err := tx.Create(&conversation).Error; err != nil {
			return err
		}

		rows := make([]models.ConversationParticipant, len(members))
		for i, id := range members {
			rows[i] = models.ConversationParticipant{ConversationID: conversation.ID, UserID: id}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		conversationID = conversation.ID
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	conversation, err := s.Get(ctx, conversationID)
	return conversation, created, err
}

// findDirectConversation returns the non-group conversation joining both users, or uuid.Nil.
func findDirectConversation(tx *gorm.DB, a, b uuid.UUID) (uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&models.ConversationParticipant{}).
		Joins("JOIN conversations ON conversations.id = conversation_participants.conversation_id").
		Where("conversations.is_group = ?", false).
		Where("conversation_participants.user_id IN ?", []uuid.UUID{a, b}).
		Group("conversation_participants.conversation_id").
		Having("COUNT(DISTINCT conversation_participants.user_id) = ?", 2).
		Limit(1).
		Pluck("conversation_participants.conversation_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return uuid.Nil, err
	}
	return ids[0], nil
}

func (s *ConversationService) Get(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.WithContext(ctx).Preload("Participants").First(&conversation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if err := s.attachLastMessages(ctx, []*models.Conversation{&conversation}); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// List returns the user's conversations, most recently active first.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID, page dto.PageQuery) ([]models.Conversation, int64, error) {
	var total int64
	conversations := []models.Conversation{}

	mine := s.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Select("conversation_id").
		Where("user_id = ?", userID)

	if err := s.db.WithContext(ctx).Model(&models.Conversation{}).Where("id IN (?)", mine).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := s.db.WithContext(ctx).
		Preload("Participants").
		Where("id IN (?)", mine).
		Order("updated_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&conversations).Error
	if err != nil {
		return nil, 0, err
	}

	ptrs := make([]*models.Conversation, len(conversations))
	for i := range conversations {
		ptrs[i] = &conversations[i]
	}
	if err := s.attachLastMessages(ctx, ptrs); err != nil {
		return nil, 0, err
	}
	return conversations, total, nil
}

func (s *ConversationService) attachLastMessages(ctx context.Context, conversations []*models.Conversation) error {
	var ids []uuid.UUID
	for _, c := range conversations {
		if c.LastMessageID != nil {
			ids = append(ids, *c.LastMessageID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var messages []models.Message
	if err := s.db.WithContext(ctx).Preload("Sender").Where("id IN ?", ids).Find(&messages).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*models.Message, len(messages))
	for i := range messages {
		byID[messages[i].ID] = &messages[i]
	}
	for _, c := range conversations {
		if c.LastMessageID != nil {
			c.LastMessage = byID[*c.LastMessageID]
		}
	}
	return nil
}

func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return isParticipant(s.db.WithContext(ctx), conversationID, userID)
}

func isParticipant(db *gorm.DB, conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// Messages pages through a conversation newest first and returns each page in
// chronological order.
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID uuid.UUID, page dto.PageQuery) ([]models.Message, int64, error) {
	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", conversationID).Count(&exists).Error; err != nil {
		return nil, 0, err
	}
	if exists == 0 {
		return nil, 0, ErrConversationNotFound
	}
	ok, err := s.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrNotParticipant
	}

	var total int64
	messages := []models.Message{}
	if err := s.db.WithContext(ctx).Model(&models.Message{}).Where("conversation_id = ?", conversationID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err = s.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

// SendMessage stores a message from a participant, moves the conversation's
// last message pointer and broadcasts the result to the conversation room.
func (s *ConversationService) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	message := models.Message{ConversationID: conversationID, SenderID: senderID, Content: content}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := isParticipant(tx, conversationID, senderID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotParticipant
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Updates(map[string]interface{}{
				"last_message_id": message.ID,
				"updated_at":      time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Sender").First(&message, "id = ?", message.ID).Error; err != nil {
		return nil, err
	}
	s.publisher.Publish(ConversationRoom(conversationID), EventNewMessage, &message)
	return &message, nil
}

// FindUsers searches other users by username, email or full name.
func (s *ConversationService) FindUsers(ctx context.Context, userID uuid.UUID, search string) ([]models.Author, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil, ErrEmptySearch
	}
	like := "%" + strings.ToLower(search) + "%"

	users := []models.Author{}
	err := s.db.WithContext(ctx).
		Where("id <> ?", userID).
		Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like, like).
		Order("username ASC").
		Limit(findUsersLimit).
		Find(&users).Error
	return users, err
}
