package matchmaking

import (
	"errors"
	"time"
)

// GroupSize is the number of players seated in every room.
const GroupSize = 4

var ErrRoomExists = errors.New("room already exists")

type Color struct {
	Label string
	Code  string
}

// Palette maps seat index to seat color.
var Palette = [GroupSize]Color{
	{Label: "Red", Code: "red"},
	{Label: "Blue", Code: "blue"},
	{Label: "Green", Code: "green"},
	{Label: "Yellow", Code: "yellow"},
}

type Seat struct {
	ConnectionID string    `json:"connectionId"`
	PlayerName   string    `json:"playerName"`
	JoinedAt     time.Time `json:"joinedAt"`
	Color        string    `json:"color"`
	ColorCode    string    `json:"colorCode"`
}

// GameState is carried for the game clients and never read by the relay.
type GameState struct {
	Turn      int       `json:"turn"`
	Dice      int       `json:"dice"`
	StartedAt time.Time `json:"startedAt"`
}

type Room struct {
	ID        string
	Seats     []Seat
	State     GameState
	CreatedAt time.Time
}

// Seat returns the seat held by connID.
func (r *Room) Seat(connID string) (Seat, bool) {
	for _, s := range r.Seats {
		if s.ConnectionID == connID {
			return s, true
		}
	}
	return Seat{}, false
}

type RoomStore interface {
	Create(room *Room) error
	Get(id string) (*Room, bool)
	Remove(id string) bool
	Len() int
}

// MemoryStore keeps rooms in a map. Like Queue it is owned by Service's
// goroutine and does no locking of its own.
type MemoryStore struct {
	rooms map[string]*Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*Room)}
}

func (s *MemoryStore) Create(room *Room) error {
	if _, exists := s.rooms[room.ID]; exists {
		return ErrRoomExists
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *MemoryStore) Get(id string) (*Room, bool) {
	room, ok := s.rooms[id]
	return room, ok
}

func (s *MemoryStore) Remove(id string) bool {
	if _, exists := s.rooms[id]; !exists {
		return false
	}
	delete(s.rooms, id)
	return true
}

func (s *MemoryStore) Len() int {
	return len(s.rooms)
}
