package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is a direct (two participants) or group (more than two) thread.
type Conversation struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	IsGroup       bool       `gorm:"not null;default:false" json:"is_group"`
	Name          *string    `gorm:"size:100" json:"name"`
	LastMessageID *uuid.UUID `gorm:"type:char(36)" json:"last_message_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`

	Participants []Author  `gorm:"many2many:conversation_participants;joinForeignKey:ConversationID;joinReferences:UserID" json:"participants,omitempty"`
	Messages     []Message `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	// Loaded by hand; the pointer has no FK to keep conversations and messages acyclic.
	LastMessage *Message `gorm:"-" json:"last_message,omitempty"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ConversationParticipant is the join row between conversations and users.
type ConversationParticipant struct {
	ConversationID uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID         uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt      time.Time
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}
