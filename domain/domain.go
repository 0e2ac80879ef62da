package domain

import (
	"encoding/json"
	"fmt"
)

// LobbyTopic is the topic every registered connection is subscribed to.
const LobbyTopic = "lobby"

// Inbound events.
const (
	EventJoinWaiting = "join-waiting"
	EventGameAction  = "game-action"
	EventPing        = "ping"
)

// Outbound events.
const (
	EventPong                 = "pong"
	EventWaitingStatus        = "waiting-status"
	EventWaitingPlayersUpdate = "waiting-players-update"
	EventGameStarted          = "game-started"
	EventGameStateUpdate      = "game-state-update"
	EventGameUpdate           = "game-update"
)

// Message is the frame exchanged with clients in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds a frame for event with payload as its data. A json.RawMessage
// payload is forwarded as is.
func Encode(event string, payload any) ([]byte, error) {
	msg := Message{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		msg.Data = data
	}
	return json.Marshal(msg)
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

type Broadcaster interface {
	Register(conn Connection)
	Unregister(conn Connection)
	Stats() (rooms, clients int)
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
	Closed(conn Connection)
}
