package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type fakeAuth struct {
	tokens   map[string]uuid.UUID
	disabled map[uuid.UUID]bool
}

func (a *fakeAuth) ParseToken(raw string) (uuid.UUID, error) {
	id, ok := a.tokens[raw]
	if !ok {
		return uuid.Nil, services.ErrInvalidToken
	}
	return id, nil
}

func (a *fakeAuth) ActiveUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if a.disabled[id] {
		return nil, services.ErrAccountDisabled
	}
	return &models.User{ID: id, IsActive: true}, nil
}

// fakeGateway keeps one conversation in memory and publishes like the real service.
type fakeGateway struct {
	mu           sync.Mutex
	hub          *Hub
	conversation uuid.UUID
	members      map[uuid.UUID]bool
	sent         []string
}

func (g *fakeGateway) IsParticipant(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return conversationID == g.conversation && g.members[userID], nil
}

func (g *fakeGateway) SendMessage(_ context.Context, senderID, conversationID uuid.UUID, content string) (*models.Message, error) {
	if conversationID != g.conversation || !g.members[senderID] {
		return nil, services.ErrNotParticipant
	}
	if strings.TrimSpace(content) == "" {
		return nil, services.ErrEmptyMessage
	}
	msg := &models.Message{ID: uuid.New(), ConversationID: conversationID, SenderID: senderID, Content: content}
	g.mu.Lock()
	g.sent = append(g.sent, content)
	g.mu.Unlock()
	g.hub.Publish(services.ConversationRoom(conversationID), EventNewMessage, msg)
	return msg, nil
}

type socketEnv struct {
	t       *testing.T
	hub     *Hub
	server  *httptest.Server
	gateway *fakeGateway
	users   map[string]uuid.UUID
}

func newSocketEnv(t *testing.T) *socketEnv {
	t.Helper()
	users := map[string]uuid.UUID{
		"alice":   uuid.New(),
		"bob":     uuid.New(),
		"mallory": uuid.New(),
		"blocked": uuid.New(),
	}
	auth := &fakeAuth{tokens: map[string]uuid.UUID{}, disabled: map[uuid.UUID]bool{users["blocked"]: true}}
	for name, id := range users {
		auth.tokens[name+"-token"] = id
	}

	gateway := &fakeGateway{
		conversation: uuid.New(),
		members:      map[uuid.UUID]bool{users["alice"]: true, users["bob"]: true},
	}
	hub := NewHub(gateway, nil)
	gateway.hub = hub
	if err := hub.Start(); err != nil {
		t.Fatalf("hub start: %v", err)
	}

	srv := NewServer(hub, auth, "/socket", "https://app.example.com")
	server := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		server.Close()
		hub.Shutdown(2 * time.Second)
	})
	return &socketEnv{t: t, hub: hub, server: server, gateway: gateway, users: users}
}

func (e *socketEnv) url(token string) string {
	u := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/socket"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

// connect dials as the named user and waits until the hub has registered the socket.
func (e *socketEnv) connect(name string) *websocket.Conn {
	e.t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.url(name+"-token"), nil)
	if err != nil {
		e.t.Fatalf("dial %s: %v", name, err)
	}
	e.t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for e.hub.Online(e.users[name]) == 0 {
		if time.Now().After(deadline) {
			e.t.Fatalf("%s never registered", name)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, _ := json.Marshal(data)
	if err := conn.WriteJSON(Envelope{Event: event, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) (string, map[string]interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	return frame.Event, frame.Data
}

func TestHandshakeRejectsBadCredentials(t *testing.T) {
	env := newSocketEnv(t)

	tests := []struct {
		name   string
		url    string
		header http.Header
		status int
	}{
		{"no token", env.url(""), nil, http.StatusUnauthorized},
		{"unknown token", env.url("nope"), nil, http.StatusUnauthorized},
		{"disabled account", env.url("blocked-token"), nil, http.StatusForbidden},
		{"foreign origin", env.url("alice-token"), http.Header{"Origin": {"https://evil.example.com"}}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(tt.url, tt.header)
			if err == nil {
				t.Fatal("expected the handshake to fail")
			}
			if resp == nil || resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %+v", tt.status, resp)
			}
		})
	}
}

func TestHandshakeAcceptsBearerHeader(t *testing.T) {
	env := newSocketEnv(t)
	header := http.Header{
		"Authorization": {"Bearer alice-token"},
		"Origin":        {"https://APP.example.com"},
	}
	conn, _, err := websocket.DefaultDialer.Dial(env.url(""), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
}

func TestJoinRoomAndBroadcast(t *testing.T) {
	env := newSocketEnv(t)
	alice := env.connect("alice")
	bob := env.connect("bob")
	mallory := env.connect("mallory")
	room := map[string]string{"conversation_id": env.gateway.conversation.String()}

	send(t, mallory, EventJoinRoom, room)
	if event, data := readEvent(t, mallory); event != EventRoomError || data["conversation_id"] != room["conversation_id"] {
		t.Fatalf("expected roomError for a non-participant, got %s %v", event, data)
	}

	for _, conn := range []*websocket.Conn{alice, bob} {
		send(t, conn, EventJoinRoom, room)
		if event, _ := readEvent(t, conn); event != EventRoomJoined {
			t.Fatalf("expected roomJoined, got %s", event)
		}
	}

	send(t, alice, EventSendMessage, map[string]string{"conversation_id": room["conversation_id"], "content": "hello"})
	for _, conn := range []*websocket.Conn{alice, bob} {
		event, data := readEvent(t, conn)
		if event != EventNewMessage || data["content"] != "hello" {
			t.Errorf("expected newMessage, got %s %v", event, data)
		}
	}

	send(t, mallory, EventSendMessage, map[string]string{"conversation_id": room["conversation_id"], "content": "intrude"})
	if event, data := readEvent(t, mallory); event != EventMessageError || data["message"] != services.ErrNotParticipant.Error() {
		t.Errorf("expected messageError, got %s %v", event, data)
	}

	send(t, alice, "dance", nil)
	if event, _ := readEvent(t, alice); event != EventMessageError {
		t.Errorf("expected messageError for an unknown event, got %s", event)
	}
}

func TestNotificationsReachEveryUserSocket(t *testing.T) {
	env := newSocketEnv(t)
	first := env.connect("alice")
	second := env.connect("alice")

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Online(env.users["alice"]) != 2 {
		if time.Now().After(deadline) {
			t.Fatal("second socket never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	env.hub.Publish(services.UserRoom(env.users["alice"]), EventNewNotification, map[string]string{"type": "like"})
	for _, conn := range []*websocket.Conn{first, second} {
		if event, data := readEvent(t, conn); event != EventNewNotification || data["type"] != "like" {
			t.Errorf("expected newNotification, got %s %v", event, data)
		}
	}

	second.Close()
	deadline = time.Now().Add(2 * time.Second)
	for env.hub.Online(env.users["alice"]) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("closed socket was never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
