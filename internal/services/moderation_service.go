package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrDuplicateReport    = errors.New("you have already reported this voice note")
	ErrInvalidStatus      = errors.New("invalid status: must be pending, under_review, resolved or rejected")
	ErrInvalidTransition  = errors.New("report status cannot change from its current state")
	ErrResolutionRequired = errors.New("a resolution is required to resolve or reject a report")
	ErrInvalidContentType = errors.New("invalid content type: must be voice-note or comment")
)

const (
	ContentTypeVoiceNote = "voice-note"
	ContentTypeComment   = "comment"

	contentRemovedResolution = "Content removed by admin"
	voiceNoteRemovedMessage  = "A voice note you reported has been removed by a moderator."
)

var validReportStatuses = map[string]bool{
	models.ReportStatusPending:     true,
	models.ReportStatusUnderReview: true,
	models.ReportStatusResolved:    true,
	models.ReportStatusRejected:    true,
}

// reportTransitions lists the statuses reachable from each non-terminal status.
var reportTransitions = map[string]map[string]bool{
	models.ReportStatusPending: {
		models.ReportStatusUnderReview: true,
		models.ReportStatusResolved:    true,
		models.ReportStatusRejected:    true,
	},
	models.ReportStatusUnderReview: {
		models.ReportStatusResolved: true,
		models.ReportStatusRejected: true,
	},
}

type ModerationService struct {
	db            *gorm.DB
	notifications *NotificationService
	files         FileRemover
}

func NewModerationService(db *gorm.DB, notifications *NotificationService, files FileRemover) *ModerationService {
	return &ModerationService{db: db, notifications: notifications, files: files}
}

func (s *ModerationService) CreateReport(ctx context.Context, reporterID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	noteID, err := uuid.Parse(req.VoiceNoteID)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if _, err := findVoiceNote(ctx, s.db, noteID); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("reporter_id = ? AND voice_note_id = ? AND status <> ?", reporterID, noteID, models.ReportStatusRejected).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrDuplicateReport
	}

	report := models.Report{
		ReporterID:  reporterID,
		VoiceNoteID: noteID,
		Reason:      strings.TrimSpace(req.Reason),
		Status:      models.ReportStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (s *ModerationService) ListReports(ctx context.Context, q dto.ReportListQuery) ([]models.Report, int64, error) {
	if q.Status != "" && !validReportStatuses[q.Status] {
		return nil, 0, ErrInvalidStatus
	}

	var total int64
	reports := []models.Report{}

	filter := func(db *gorm.DB) *gorm.DB {
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		return db
	}

	if err := s.db.WithContext(ctx).Model(&models.Report{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	if q.SortBy == "status" {
		sortBy = "status"
	}
	direction := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		direction = "ASC"
	}

	err := s.withRelations(s.db.WithContext(ctx)).
		Scopes(filter).
		Order(sortBy + " " + direction).
		Order("created_at DESC").
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// UpdateReport moves a report through its review lifecycle. Terminal statuses
// need a resolution and stamp the resolving admin.
func (s *ModerationService) UpdateReport(ctx context.Context, adminID, reportID uuid.UUID, req *dto.UpdateReportRequest) (*models.Report, error) {
	if !validReportStatuses[req.Status] {
		return nil, ErrInvalidStatus
	}

	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if report.IsTerminal() || !reportTransitions[report.Status][req.Status] {
		return nil, ErrInvalidTransition
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Status == models.ReportStatusResolved || req.Status == models.ReportStatusRejected {
		resolution := strings.TrimSpace(req.Resolution)
		if resolution == "" {
			return nil, ErrResolutionRequired
		}
		updates["resolution"] = resolution
		updates["resolved_by_id"] = adminID
		updates["resolved_at"] = time.Now()
	}

	// Guard on the old status so two admins cannot both move the same report.
	result := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", report.ID, report.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	return s.loadReport(ctx, report.ID)
}

// RemoveContent deletes a voice note or comment. Removing a voice note resolves its
// open reports and tells each reporter; comments carry no reports. It returns the
// number of resolved reports.
func (s *ModerationService) RemoveContent(ctx context.Context, adminID uuid.UUID, contentType string, id uuid.UUID) (int, error) {
	var (
		noteID    uuid.UUID
		audioURL  string
		pushes    []*models.Notification
		remove    func(tx *gorm.DB) error
		reporters []models.Report
	)

	switch contentType {
	case ContentTypeVoiceNote:
		note, err := findVoiceNote(ctx, s.db, id)
		if err != nil {
			return 0, err
		}
		noteID, audioURL = note.ID, note.AudioURL
		remove = func(tx *gorm.DB) error { return deleteVoiceNoteTx(tx, note.ID) }
	case ContentTypeComment:
		var comment models.Comment
		if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrCommentNotFound
			}
			return 0, err
		}
		remove = func(tx *gorm.DB) error { return deleteCommentTx(tx, comment.ID) }
	default:
		return 0, ErrInvalidContentType
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if noteID == uuid.Nil {
			return remove(tx)
		}
		if err := tx.Where("voice_note_id = ? AND status IN ?", noteID,
			[]string{models.ReportStatusPending, models.ReportStatusUnderReview}).
			Find(&reporters).Error; err != nil {
			return err
		}

		if len(reporters) > 0 {
			ids := make([]uuid.UUID, len(reporters))
			for i, r := range reporters {
				ids[i] = r.ID
			}
			if err := tx.Model(&models.Report{}).Where("id IN ?", ids).Updates(map[string]interface{}{
				"status":         models.ReportStatusResolved,
				"resolution":     contentRemovedResolution,
				"resolved_by_id": adminID,
				"resolved_at":    time.Now(),
			}).Error; err != nil {
				return err
			}
		}

		for _, r := range reporters {
			n, err := s.notifications.NotifySystem(ctx, tx, r.ReporterID, voiceNoteRemovedMessage)
			if err != nil {
				return err
			}
			pushes = append(pushes, n)
		}

		return remove(tx)
	})
	if err != nil {
		return 0, err
	}

	if audioURL != "" {
		s.files.RemoveQuietly(audioURL)
	}
	for _, n := range pushes {
		s.notifications.Push(ctx, n)
	}
	return len(reporters), nil
}


func (s *ModerationService) loadReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := s.withRelations(s.db.WithContext(ctx)).First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *ModerationService) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Reporter").
		Preload("VoiceNote").
		Preload("VoiceNote.User").
		Preload("ResolvedBy")
}
