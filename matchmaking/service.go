package matchmaking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"

	"online-ludo-game/domain"
)

var ErrStopped = errors.New("matchmaking service stopped")

// Event is something a connection did. Events are applied one at a time by
// Service.Run.
type Event interface {
	connection() string
}

type Join struct {
	ConnID string
	Name   string
}

type Action struct {
	ConnID  string
	RoomID  string
	Payload json.RawMessage
}

type Disconnect struct {
	ConnID string
}

func (e Join) connection() string       { return e.ConnID }
func (e Action) connection() string     { return e.ConnID }
func (e Disconnect) connection() string { return e.ConnID }

type Stats struct {
	Waiting int `json:"waiting"`
	Rooms   int `json:"rooms"`
}

// Service owns the waiting queue and the room manager. All mutation happens
// on the goroutine running Run, so an admit, the threshold check and the
// drain it may cause are never interleaved with another event.
type Service struct {
	queue     *Queue
	rooms     *Manager
	transport Transport
	events    chan Event
	done      chan struct{}
	waiting   atomic.Int64
	active    atomic.Int64
}

func NewService(transport Transport, store RoomStore, buffer int) *Service {
	if buffer <= 0 {
		buffer = 1
	}
	return &Service{
		queue:     NewQueue(),
		rooms:     NewManager(store, transport),
		transport: transport,
		events:    make(chan Event, buffer),
		done:      make(chan struct{}),
	}
}

// Submit hands ev to the event loop. It blocks while the buffer is full.
func (s *Service) Submit(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrStopped
	default:
	}

	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies submitted events until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	slog.Info("matchmaking loop started")
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			slog.Info("matchmaking loop stopped", "waiting", s.queue.Len(), "rooms", s.rooms.Rooms())
			return
		case ev := <-s.events:
			s.apply(ev)
		}
	}
}

// Stats is safe to call from any goroutine.
func (s *Service) Stats() Stats {
	return Stats{
		Waiting: int(s.waiting.Load()),
		Rooms:   int(s.active.Load()),
	}
}

func (s *Service) apply(ev Event) {
	switch ev := ev.(type) {
	case Join:
		s.join(ev)
	case Action:
		s.rooms.RelayAction(ev.RoomID, ev.Payload, ev.ConnID)
	case Disconnect:
		s.disconnect(ev)
	default:
		slog.Warn("unknown matchmaking event", "clientId", ev.connection())
	}

	s.waiting.Store(int64(s.queue.Len()))
	s.active.Store(int64(s.rooms.Rooms()))
}

func (s *Service) join(ev Join) {
	if room, seated := s.rooms.RoomOf(ev.ConnID); seated {
		slog.Debug("join ignored, already seated", "clientId", ev.ConnID, "roomId", room.ID)
		return
	}

	position, admitted := s.queue.Admit(ev.ConnID, ev.Name)
	s.transport.Send(ev.ConnID, domain.EventWaitingStatus, WaitingStatus{
		Position:     position,
		TotalPlayers: s.queue.Len(),
	})
	if !admitted {
		slog.Debug("join ignored, already queued", "clientId", ev.ConnID, "position", position)
		return
	}

	slog.Info("player queued", "clientId", ev.ConnID, "position", position, "waiting", s.queue.Len())
	s.publishLobby()

	if s.queue.Len() < GroupSize {
		return
	}

	group := s.queue.DrainFront(GroupSize)
	if _, err := s.rooms.FormRoom(group); err != nil {
		slog.Error("room formation failed", "error", err)
		return
	}
	s.publishLobby()
}

func (s *Service) disconnect(ev Disconnect) {
	if s.queue.Remove(ev.ConnID) {
		slog.Info("player left queue", "clientId", ev.ConnID, "waiting", s.queue.Len())
		s.publishLobby()
	}
	s.rooms.Vacate(ev.ConnID)
}

func (s *Service) publishLobby() {
	s.transport.Broadcast(domain.LobbyTopic, domain.EventWaitingPlayersUpdate, WaitingPlayersUpdate{
		Players: s.queue.Names(),
		Count:   s.queue.Len(),
	})
}
