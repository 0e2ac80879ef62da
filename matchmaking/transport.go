package matchmaking

// Transport is what the matchmaking core needs from the network layer.
// Delivery is fire-and-forget: none of the methods report failures.
type Transport interface {
	Send(connID, event string, payload any)
	Broadcast(topic, event string, payload any)
	BroadcastExcept(topic, exceptID, event string, payload any)
	Subscribe(connID, topic string)
}

type WaitingStatus struct {
	Position     int `json:"position"`
	TotalPlayers int `json:"totalPlayers"`
}

type WaitingPlayersUpdate struct {
	Players []string `json:"players"`
	Count   int      `json:"count"`
}

type GameStarted struct {
	RoomID        string `json:"roomId"`
	Players       []Seat `json:"players"`
	YourColor     string `json:"yourColor"`
	YourColorCode string `json:"yourColorCode"`
}
