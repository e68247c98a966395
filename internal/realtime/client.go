package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
	gatewayTimeout = 10 * time.Second

	// Per-connection inbound budget: burst frames refilled over rateInterval.
	rateBurst    = 20
	rateInterval = 10 * time.Second
)

// Client is one authenticated socket connection.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	userID  uuid.UUID
	addr    string
	closed  bool
	rooms   map[string]bool
	limiter *rateLimiter
}

func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		hub:     hub,
		userID:  userID,
		addr:    addr,
		rooms:   make(map[string]bool),
		limiter: newRateLimiter(rateBurst, rateInterval),
	}
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Debug("failed to set read deadline", "addr", c.addr, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			slog.Debug("error closing socket in readPump", "addr", c.addr, "error", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if !c.limiter.allow() {
			c.hub.sendTo(c, EventMessageError, errorPayload{Message: "Too many messages, slow down"})
			continue
		}
		c.dispatch(raw)
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		slog.Warn("socket frame exceeded size limit", "addr", c.addr, "limit", maxMessageSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure),
		errors.Is(err, io.EOF),
		isExpectedCloseError(err):
		slog.Debug("socket disconnected", "addr", c.addr, "error", err)
	default:
		slog.Warn("socket read error", "addr", c.addr, "error", err)
	}
}

func (c *Client) dispatch(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.hub.sendTo(c, EventMessageError, errorPayload{Message: "Invalid frame"})
		return
	}

	switch env.Event {
	case EventJoinRoom:
		c.handleJoin(env.Data)
	case EventLeaveRoom:
		c.handleLeave(env.Data)
	case EventSendMessage:
		c.handleSend(env.Data)
	default:
		c.hub.sendTo(c, EventMessageError, errorPayload{Message: "Unknown event " + env.Event})
	}
}

func (c *Client) handleJoin(data json.RawMessage) {
	var req roomRequest
	_ = json.Unmarshal(data, &req)

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		c.hub.sendTo(c, EventRoomError, errorPayload{Message: "Invalid conversation ID", ConversationID: req.ConversationID})
		return
	}

	ctx, cancel := context.WithTimeout(c.hub.ctx, gatewayTimeout)
	defer cancel()

	ok, err := c.hub.gateway.IsParticipant(ctx, conversationID, c.userID)
	if err != nil {
		slog.Error("failed to check conversation participation", "user_id", c.userID.String(), "conversation_id", req.ConversationID, "error", err)
		c.hub.sendTo(c, EventRoomError, errorPayload{Message: "Failed to join conversation", ConversationID: req.ConversationID})
		return
	}
	if !ok {
		c.hub.sendTo(c, EventRoomError, errorPayload{Message: services.ErrNotParticipant.Error(), ConversationID: req.ConversationID})
		return
	}

	if c.hub.join(c, services.ConversationRoom(conversationID)) {
		c.hub.sendTo(c, EventRoomJoined, roomRequest{ConversationID: conversationID.String()})
	}
}

func (c *Client) handleLeave(data json.RawMessage) {
	var req roomRequest
	_ = json.Unmarshal(data, &req)

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		return
	}
	c.hub.leave(c, services.ConversationRoom(conversationID))
}

// handleSend stores the message; the conversation service broadcasts newMessage
// to the room on success. Failures go back to the sender only.
func (c *Client) handleSend(data json.RawMessage) {
	var req sendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.hub.sendTo(c, EventMessageError, errorPayload{Message: "Invalid message payload"})
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		c.hub.sendTo(c, EventMessageError, errorPayload{Message: "Invalid conversation ID", ConversationID: req.ConversationID})
		return
	}

	ctx, cancel := context.WithTimeout(c.hub.ctx, gatewayTimeout)
	defer cancel()

	if _, err := c.hub.gateway.SendMessage(ctx, c.userID, conversationID, req.Content); err != nil {
		c.hub.sendTo(c, EventMessageError, errorPayload{Message: sendErrorMessage(err), ConversationID: req.ConversationID})
	}
}

func sendErrorMessage(err error) string {
	for _, known := range []error{services.ErrNotParticipant, services.ErrEmptyMessage, services.ErrMessageTooLong} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	slog.Error("failed to send message over socket", "error", err)
	return "Failed to send message"
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			slog.Debug("error closing socket in writePump", "addr", c.addr, "error", err)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.write(message, ok) {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.hub.ctx.Done():
			return
		}
	}
}

// write sends one frame, or a close frame when the hub closed the channel.
func (c *Client) write(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
			slog.Debug("error writing close frame", "addr", c.addr, "error", err)
		}
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			slog.Debug("error writing socket frame", "addr", c.addr, "error", err)
		}
		return false
	}
	return true
}
