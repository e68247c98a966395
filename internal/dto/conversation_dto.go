package dto

type CreateConversationRequest struct {
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1,dive,uuid"`
	Name           string   `json:"name" validate:"max=100"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}
