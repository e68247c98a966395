package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/DJELO6elisee/YouVoice-API/internal/services"
	"github.com/google/uuid"
)

// Gateway is the conversation logic the socket layer calls into.
type Gateway interface {
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, content string) (*models.Message, error)
}

// Hub tracks connected clients and their rooms and fans room messages out to them.
// Every client is in its personal user room from registration on.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	online     map[uuid.UUID]int
	broadcast  chan RoomMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}

	broker  Broker
	gateway Gateway
}

func NewHub(gateway Gateway, broker Broker) *Hub {
	if broker == nil {
		broker = NewLocalBroker()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		online:     make(map[uuid.UUID]int),
		broadcast:  make(chan RoomMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		broker:     broker,
		gateway:    gateway,
	}
}

// Start subscribes to the broker and runs the event loop in the background.
func (h *Hub) Start() error {
	if err := h.broker.Start(h.ctx, h.deliver); err != nil {
		return err
	}
	go h.Run()
	return nil
}

// Publish encodes an event for a room and hands it to the broker.
func (h *Hub) Publish(room, event string, data interface{}) {
	payload, err := encode(event, data)
	if err != nil {
		slog.Error("failed to encode socket event", "event", event, "error", err)
		return
	}
	if err := h.broker.Publish(h.ctx, RoomMessage{Room: room, Payload: payload}); err != nil {
		slog.Warn("failed to publish socket event", "room", room, "event", event, "error", err)
	}
}

func (h *Hub) deliver(msg RoomMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.ctx.Done():
	}
}

// Online returns how many sockets the user currently has open on this instance.
func (h *Hub) Online(userID uuid.UUID) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.online[userID]
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.mutex.Lock()
			client.closed = false
			h.clients[client] = true
			h.online[client.userID]++
			h.joinLocked(client, services.UserRoom(client.userID))
			clientCount := len(h.clients)
			h.mutex.Unlock()
			slog.Debug("socket registered", "user_id", client.userID.String(), "addr", client.addr, "clients", clientCount)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if h.removeLocked(client) {
				clientCount := len(h.clients)
				h.mutex.Unlock()
				close(client.send)
				slog.Debug("socket unregistered", "user_id", client.userID.String(), "clients", clientCount)
			} else {
				h.mutex.Unlock()
			}

		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

func (h *Hub) handleBroadcast(msg RoomMessage) {
	var failed []*Client
	for _, client := range h.roomSnapshot(msg.Room) {
		if !h.safeSend(client, msg.Payload) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

func (h *Hub) roomSnapshot(room string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	members := h.rooms[room]
	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	return clients
}

// safeSend queues a frame without blocking. A full buffer reports false.
func (h *Hub) safeSend(client *Client, payload []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, ok := h.clients[client]; !ok || client.closed {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// sendTo writes one event to a single client.
func (h *Hub) sendTo(client *Client, event string, data interface{}) {
	payload, err := encode(event, data)
	if err != nil {
		slog.Error("failed to encode socket event", "event", event, "error", err)
		return
	}
	if !h.safeSend(client, payload) {
		slog.Warn("dropping socket event for slow client", "event", event, "user_id", client.userID.String())
	}
}

func (h *Hub) removeFailedClients(failed []*Client) {
	if len(failed) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range failed {
		if h.removeLocked(client) {
			channelsToClose = append(channelsToClose, client.send)
			slog.Warn("socket dropped due to full send buffer", "user_id", client.userID.String(), "addr", client.addr)
		}
	}
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
}

func (h *Hub) join(client *Client, room string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	h.joinLocked(client, room)
	return true
}

func (h *Hub) joinLocked(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[client] = true
	client.rooms[room] = true
}

func (h *Hub) leave(client *Client, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.leaveLocked(client, room)
}

func (h *Hub) leaveLocked(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// removeLocked drops the client from every room and the online count.
// It reports false when the client was already gone.
func (h *Hub) removeLocked(client *Client) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	client.closed = true
	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	if h.online[client.userID] <= 1 {
		delete(h.online, client.userID)
	} else {
		h.online[client.userID]--
	}
	return true
}

func (h *Hub) shutdownClients() {
	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			slog.Warn("error closing socket", "addr", client.addr, "error", err)
		}
	}
	slog.Info("closed socket connections", "count", len(clients))
}

// Shutdown closes every connection and waits for the pumps to exit or the timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	if err := h.broker.Close(); err != nil {
		slog.Warn("error closing socket broker", "error", err)
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
