package protocol

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"online-ludo-game/domain"
	"online-ludo-game/matchmaking"
)

const submitTimeout = 5 * time.Second

// Submitter accepts matchmaking events for serialized processing.
type Submitter interface {
	Submit(ctx context.Context, ev matchmaking.Event) error
}

type joinData struct {
	Name string `json:"name"`
}

type actionData struct {
	RoomID string `json:"roomId"`
}

type Handler struct {
	events Submitter
}

func NewHandler(events Submitter) *Handler {
	return &Handler{events: events}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	switch msg.Event {
	case domain.EventPing:
		pong, err := domain.Encode(domain.EventPong, msg.Data)
		if err != nil {
			slog.Warn("marshal error", "clientId", conn.ID(), "error", err)
			return
		}
		conn.Send(pong)

	case domain.EventJoinWaiting:
		var join joinData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &join); err != nil {
				slog.Debug("join data ignored", "clientId", conn.ID(), "error", err)
				join = joinData{}
			}
		}
		h.submit(conn, matchmaking.Join{ConnID: conn.ID(), Name: join.Name})

	case domain.EventGameAction:
		var action actionData
		if err := json.Unmarshal(msg.Data, &action); err != nil || action.RoomID == "" {
			slog.Warn("game action without room", "clientId", conn.ID(), "error", err)
			return
		}
		h.submit(conn, matchmaking.Action{ConnID: conn.ID(), RoomID: action.RoomID, Payload: msg.Data})

	default:
		slog.Warn("unknown event", "clientId", conn.ID(), "event", msg.Event)
	}
}

// Closed reports a finished connection to matchmaking.
func (h *Handler) Closed(conn domain.Connection) {
	h.submit(conn, matchmaking.Disconnect{ConnID: conn.ID()})
}

func (h *Handler) submit(conn domain.Connection, ev matchmaking.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	if err := h.events.Submit(ctx, ev); err != nil {
		slog.Error("event dropped", "clientId", conn.ID(), "error", err)
	}
}
