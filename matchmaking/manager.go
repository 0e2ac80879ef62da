package matchmaking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"online-ludo-game/domain"
)

var ErrGroupSize = fmt.Errorf("a room needs exactly %d players", GroupSize)

// Manager forms rooms out of drained queue entries and relays actions between
// room members. Like Queue it must only be used from Service's goroutine.
type Manager struct {
	store     RoomStore
	transport Transport
	now       func() time.Time
	seq       uint64
	seated    map[string]string
}

func NewManager(store RoomStore, transport Transport) *Manager {
	return &Manager{
		store:     store,
		transport: transport,
		now:       time.Now,
		seated:    make(map[string]string),
	}
}

// FormRoom seats entries in order, stores the room and tells every player
// which color it got before the room as a whole receives its initial state.
func (m *Manager) FormRoom(entries []WaitingEntry) (*Room, error) {
	if len(entries) != GroupSize {
		return nil, fmt.Errorf("form room with %d entries: %w", len(entries), ErrGroupSize)
	}

	now := m.now()
	room := &Room{
		ID:        m.nextRoomID(now),
		Seats:     make([]Seat, len(entries)),
		State:     GameState{Turn: 0, Dice: 0, StartedAt: now},
		CreatedAt: now,
	}
	for i, e := range entries {
		room.Seats[i] = Seat{
			ConnectionID: e.ConnectionID,
			PlayerName:   e.DisplayName,
			JoinedAt:     e.JoinedAt,
			Color:        Palette[i].Label,
			ColorCode:    Palette[i].Code,
		}
	}

	if err := m.store.Create(room); err != nil {
		return nil, fmt.Errorf("store room %s: %w", room.ID, err)
	}

	for _, seat := range room.Seats {
		m.seated[seat.ConnectionID] = room.ID
		m.transport.Subscribe(seat.ConnectionID, room.ID)
		m.transport.Send(seat.ConnectionID, domain.EventGameStarted, GameStarted{
			RoomID:        room.ID,
			Players:       room.Seats,
			YourColor:     seat.Color,
			YourColorCode: seat.ColorCode,
		})
	}
	m.transport.Broadcast(room.ID, domain.EventGameStateUpdate, room.State)

	slog.Info("room formed", "roomId", room.ID, "players", len(room.Seats))
	return room, nil
}

// RelayAction forwards payload to every member of roomID except origin. It
// reports false, and sends nothing, when the room does not exist.
func (m *Manager) RelayAction(roomID string, payload json.RawMessage, origin string) bool {
	if _, ok := m.store.Get(roomID); !ok {
		slog.Debug("action for unknown room dropped", "roomId", roomID, "clientId", origin)
		return false
	}
	m.transport.BroadcastExcept(roomID, origin, domain.EventGameUpdate, payload)
	return true
}

// RoomOf returns the room connID is seated in.
func (m *Manager) RoomOf(connID string) (*Room, bool) {
	roomID, ok := m.seated[connID]
	if !ok {
		return nil, false
	}
	return m.store.Get(roomID)
}

// Vacate records that a seated connection went away. Once the last seat of a
// room is vacated the room is removed from the store.
func (m *Manager) Vacate(connID string) {
	roomID, ok := m.seated[connID]
	if !ok {
		return
	}
	delete(m.seated, connID)

	room, ok := m.store.Get(roomID)
	if !ok {
		return
	}
	for _, seat := range room.Seats {
		if _, still := m.seated[seat.ConnectionID]; still {
			return
		}
	}

	if m.store.Remove(roomID) {
		slog.Info("room closed", "roomId", roomID)
	}
}

// Rooms returns the number of live rooms.
func (m *Manager) Rooms() int {
	return m.store.Len()
}

func (m *Manager) nextRoomID(now time.Time) string {
	m.seq++
	return fmt.Sprintf("game_%d_%d", now.UnixMilli(), m.seq)
}

