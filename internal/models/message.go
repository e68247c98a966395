package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxMessageLength = 5000

type Message struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:char(36);not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:char(36);not null;index" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Sender *Author `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
