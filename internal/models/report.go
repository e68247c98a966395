package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReportStatusPending     = "pending"
	ReportStatusUnderReview = "under_review"
	ReportStatusResolved    = "resolved"
	ReportStatusRejected    = "rejected"
)

// Report is a user-submitted moderation flag against a voice note.
type Report struct {
	ID           uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	ReporterID   uuid.UUID  `gorm:"type:char(36);not null;index" json:"reporter_id"`
	VoiceNoteID  uuid.UUID  `gorm:"type:char(36);not null;index" json:"voice_note_id"`
	Reason       string     `gorm:"type:text;not null" json:"reason"`
	Status       string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Resolution   *string    `gorm:"type:text" json:"resolution"`
	ResolvedByID *uuid.UUID `gorm:"type:char(36)" json:"resolved_by_id"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Reporter   *Author    `gorm:"foreignKey:ReporterID;constraint:OnDelete:CASCADE" json:"reporter,omitempty"`
	VoiceNote  *VoiceNote `gorm:"foreignKey:VoiceNoteID;constraint:OnDelete:CASCADE" json:"voice_note,omitempty"`
	ResolvedBy *Author    `gorm:"foreignKey:ResolvedByID;constraint:OnDelete:SET NULL" json:"resolved_by,omitempty"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether no further status transition is allowed.
func (r *Report) IsTerminal() bool {
	return r.Status == ReportStatusResolved || r.Status == ReportStatusRejected
}
