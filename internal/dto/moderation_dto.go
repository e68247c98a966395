package dto

type CreateReportRequest struct {
	VoiceNoteID string `json:"voice_note_id" validate:"required,uuid"`
	Reason      string `json:"reason" validate:"required,min=10,max=1000"`
}

type UpdateReportRequest struct {
	Status     string `json:"status" validate:"required,oneof=pending under_review resolved rejected"`
	Resolution string `json:"resolution" validate:"max=2000"`
}

type ReportListQuery struct {
	PageQuery
	Status string
	SortBy string
	Order  string
}

type UserListQuery struct {
	PageQuery
	Search string
	Status string
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type AdminStats struct {
	TotalUsers      int64 `json:"total_users"`
	TotalVoiceNotes int64 `json:"total_voice_notes"`
	PendingReports  int64 `json:"pending_reports"`
}

type TimeSeries struct {
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}

type ActivitySeries struct {
	Labels     []string `json:"labels"`
	Users      []int64  `json:"users"`
	VoiceNotes []int64  `json:"voice_notes"`
}
