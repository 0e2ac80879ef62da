package hub

import (
	"log/slog"
	"sync"

	"online-ludo-game/domain"
)

type client struct {
	conn   domain.Connection
	topics map[string]struct{}
}

// Hub tracks live connections and the topics they are subscribed to. Every
// registered connection is a member of domain.LobbyTopic.
type Hub struct {
	clients map[string]*client
	topics  map[string]map[string]domain.Connection
	mu      sync.RWMutex
}

func New() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		topics:  make(map[string]map[string]domain.Connection),
	}
}

func (h *Hub) Register(conn domain.Connection) {
	h.mu.Lock()
	h.clients[conn.ID()] = &client{conn: conn, topics: make(map[string]struct{})}
	h.subscribeLocked(conn.ID(), domain.LobbyTopic)
	count := len(h.clients)
	h.mu.Unlock()

	slog.Info("client connected", "clientId", conn.ID(), "clients", count)
}

func (h *Hub) Unregister(conn domain.Connection) {
	h.mu.Lock()
	c, exists := h.clients[conn.ID()]
	if !exists || c.conn != conn {
		h.mu.Unlock()
		return
	}
	delete(h.clients, conn.ID())

	var removed []string
	for topic := range c.topics {
		members := h.topics[topic]
		delete(members, conn.ID())
		if len(members) == 0 && topic != domain.LobbyTopic {
			delete(h.topics, topic)
			removed = append(removed, topic)
		}
	}
	count := len(h.clients)
	h.mu.Unlock()

	slog.Info("client disconnected", "clientId", conn.ID(), "clients", count)
	for _, topic := range removed {
		slog.Debug("topic removed", "topic", topic)
	}
}

// Subscribe adds a registered connection to topic. Unknown connections are
// ignored.
func (h *Hub) Subscribe(connID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribeLocked(connID, topic)
}

func (h *Hub) subscribeLocked(connID, topic string) {
	c, exists := h.clients[connID]
	if !exists {
		return
	}
	members, exists := h.topics[topic]
	if !exists {
		members = make(map[string]domain.Connection)
		h.topics[topic] = members
	}
	members[connID] = c.conn
	c.topics[topic] = struct{}{}
}

// Send delivers event to a single connection.
func (h *Hub) Send(connID, event string, payload any) {
	h.mu.RLock()
	c, exists := h.clients[connID]
	h.mu.RUnlock()

	if !exists {
		slog.Debug("send to unknown client dropped", "clientId", connID, "event", event)
		return
	}

	data, err := domain.Encode(event, payload)
	if err != nil {
		slog.Warn("marshal error", "clientId", connID, "event", event, "error", err)
		return
	}
	h.deliver(c.conn, data)
}

// Broadcast delivers event to every member of topic.
func (h *Hub) Broadcast(topic, event string, payload any) {
	h.BroadcastExcept(topic, "", event, payload)
}

// BroadcastExcept delivers event to every member of topic other than
// exceptID.
func (h *Hub) BroadcastExcept(topic, exceptID, event string, payload any) {
	h.mu.RLock()
	members := h.topics[topic]
	recipients := make([]domain.Connection, 0, len(members))
	for id, conn := range members {
		if id == exceptID {
			continue
		}
		recipients = append(recipients, conn)
	}
	h.mu.RUnlock()

	if len(recipients) == 0 {
		return
	}

	data, err := domain.Encode(event, payload)
	if err != nil {
		slog.Warn("marshal error", "topic", topic, "event", event, "error", err)
		return
	}
	for _, conn := range recipients {
		h.deliver(conn, data)
	}
}

// deliver is fire-and-forget. A connection that cannot keep up is closed,
// which drives it through the regular disconnect path.
func (h *Hub) deliver(conn domain.Connection, data []byte) {
	if err := conn.Send(data); err != nil {
		slog.Warn("send failed, dropping client", "clientId", conn.ID(), "error", err)
		go func(c domain.Connection) {
			h.Unregister(c)
			c.Close()
		}(conn)
	}
}

// Stats reports the number of room topics (the lobby excluded) and clients.
func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.topics)
	if _, exists := h.topics[domain.LobbyTopic]; exists {
		rooms--
	}
	return rooms, len(h.clients)
}
