package services

import "github.com/google/uuid"

// Publisher delivers real-time events to socket rooms.
type Publisher interface {
	Publish(room, event string, data interface{})
}

// FileRemover deletes stored uploads on a best-effort basis.
type FileRemover interface {
	RemoveQuietly(publicURL string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, interface{}) {}

// UserRoom is the personal room every connected socket of a user joins.
func UserRoom(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// ConversationRoom is the room a socket joins to follow one conversation.
func ConversationRoom(conversationID uuid.UUID) string {
	return "conversation:" + conversationID.String()
}
