package matchmaking

import (
	"sync"

	"online-ludo-game/domain"
)

type delivery struct {
	event   string
	payload any
}

type call struct {
	op      string
	target  string
	except  string
	event   string
	payload any
}

// fakeTransport delivers into per-connection inboxes so tests can assert on
// what every client saw.
type fakeTransport struct {
	mu     sync.Mutex
	calls  []call
	topics map[string]map[string]bool
	inbox  map[string][]delivery
}

func newFakeTransport(connIDs ...string) *fakeTransport {
	f := &fakeTransport{
		topics: map[string]map[string]bool{domain.LobbyTopic: {}},
		inbox:  make(map[string][]delivery),
	}
	for _, id := range connIDs {
		f.connect(id)
	}
	return f
}

func (f *fakeTransport) connect(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics[domain.LobbyTopic][id] = true
}

func (f *fakeTransport) Send(connID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "send", target: connID, event: event, payload: payload})
	f.inbox[connID] = append(f.inbox[connID], delivery{event: event, payload: payload})
}

func (f *fakeTransport) Broadcast(topic, event string, payload any) {
	f.BroadcastExcept(topic, "", event, payload)
}

func (f *fakeTransport) BroadcastExcept(topic, exceptID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "broadcast", target: topic, except: exceptID, event: event, payload: payload})
	for id := range f.topics[topic] {
		if id == exceptID {
			continue
		}
		f.inbox[id] = append(f.inbox[id], delivery{event: event, payload: payload})
	}
}

func (f *fakeTransport) Subscribe(connID, topic string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "subscribe", target: topic, except: connID})
	if f.topics[topic] == nil {
		f.topics[topic] = make(map[string]bool)
	}
	f.topics[topic][connID] = true
}

func (f *fakeTransport) received(connID string) []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivery(nil), f.inbox[connID]...)
}

func (f *fakeTransport) eventsOf(connID, event string) []any {
	var payloads []any
	for _, d := range f.received(connID) {
		if d.event == event {
			payloads = append(payloads, d.payload)
		}
	}
	return payloads
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.inbox = make(map[string][]delivery)
}
