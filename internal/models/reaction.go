package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reaction is a user's single emoji response to a voice note.
type Reaction struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_reactions_user_note,priority:1" json:"user_id"`
	VoiceNoteID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_reactions_user_note,priority:2;index" json:"voice_note_id"`
	Emoji       string    `gorm:"size:32;not null" json:"emoji"`
	CreatedAt   time.Time `json:"created_at"`

	User *Author `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
