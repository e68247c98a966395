package dto

import "github.com/DJELO6elisee/YouVoice-API/internal/models"

type FeedQuery struct {
	PageQuery
	SortBy string
	Order  string
	Search string
}

type CreateReactionRequest struct {
	VoiceNoteID string `json:"voice_note_id" validate:"required,uuid"`
	Emoji       string `json:"emoji" validate:"required,max=32"`
}

type ReactionGroup struct {
	Emoji string `json:"emoji"`
	Count int64  `json:"count"`
}

type ReactionsResponse struct {
	Reactions []models.Reaction `json:"reactions"`
	Grouped   []ReactionGroup   `json:"grouped,omitempty"`
}

type CreateCommentRequest struct {
	VoiceNoteID string `json:"voice_note_id" validate:"required,uuid"`
	Text        string `json:"text" validate:"required,max=2000"`
}

type CreateShareRequest struct {
	VoiceNoteID string `json:"voice_note_id" validate:"required,uuid"`
	SharedTo    string `json:"shared_to" validate:"required,max=255"`
}
