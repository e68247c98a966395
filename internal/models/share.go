package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Share records that a user forwarded a voice note to a platform or another user.
type Share struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	VoiceNoteID uuid.UUID `gorm:"type:char(36);not null;index" json:"voice_note_id"`
	SharedTo    string    `gorm:"size:255;not null" json:"shared_to"`
	CreatedAt   time.Time `json:"created_at"`

	User      *Author    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	VoiceNote *VoiceNote `gorm:"foreignKey:VoiceNoteID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *Share) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
