package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxVoiceNoteDuration = 60

// VoiceNote is a short audio clip published by a user.
type VoiceNote struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	AudioURL    string    `gorm:"size:255;not null" json:"audio_url"`
	Duration    int       `gorm:"not null" json:"duration"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Only populated by feed queries that select it.
	ReactionCount int64 `gorm:"->;-:migration" json:"reaction_count"`

	User      *Author    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Reactions []Reaction `gorm:"constraint:OnDelete:CASCADE" json:"reactions,omitempty"`
	Comments  []Comment  `gorm:"constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

func (v *VoiceNote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
