package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationShare   = "share"
	NotificationFollow  = "follow"
	NotificationMention = "mention"
	NotificationSystem  = "system"
)

type Notification struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:char(36);not null;index:idx_notifications_recipient_read,priority:1" json:"recipient_id"`
	ActorID     *uuid.UUID `gorm:"type:char(36)" json:"actor_id"`
	Type        string     `gorm:"size:20;not null" json:"type"`
	VoiceNoteID *uuid.UUID `gorm:"type:char(36);index" json:"voice_note_id"`
	CommentID   *uuid.UUID `gorm:"type:char(36)" json:"comment_id"`
	ReactionID  *uuid.UUID `gorm:"type:char(36)" json:"reaction_id"`
	ShareID     *uuid.UUID `gorm:"type:char(36)" json:"share_id"`
	Message     string     `gorm:"type:text" json:"message,omitempty"`
	Read        bool       `gorm:"column:is_read;not null;default:false;index:idx_notifications_recipient_read,priority:2" json:"read"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Recipient *Author    `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"-"`
	Actor     *Author    `gorm:"foreignKey:ActorID;constraint:OnDelete:SET NULL" json:"actor,omitempty"`
	VoiceNote *VoiceNote `gorm:"foreignKey:VoiceNoteID;constraint:OnDelete:CASCADE" json:"voice_note,omitempty"`
	Comment   *Comment   `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
	Reaction  *Reaction  `gorm:"foreignKey:ReactionID;constraint:OnDelete:CASCADE" json:"-"`
	Share     *Share     `gorm:"foreignKey:ShareID;constraint:OnDelete:CASCADE" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
