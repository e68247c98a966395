// Package realtime runs the authenticated socket channel: per-user and
// per-conversation rooms, message sending and notification push.
package realtime

import (
	"encoding/json"
	"strings"
)

// Inbound events.
const (
	EventJoinRoom    = "joinRoom"
	EventLeaveRoom   = "leaveRoom"
	EventSendMessage = "sendMessage"
)

// Outbound events.
const (
	EventNewMessage      = "newMessage"
	EventMessageError    = "messageError"
	EventNewNotification = "newNotification"
	EventRoomJoined      = "roomJoined"
	EventRoomError       = "roomError"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type roomRequest struct {
	ConversationID string `json:"conversation_id"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type errorPayload struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// RoomMessage is an encoded frame addressed to every member of a room.
type RoomMessage struct {
	Room    string `json:"room"`
	Payload []byte `json:"payload"`
}

func encode(event string, data interface{}) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data})
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
