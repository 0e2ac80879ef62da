package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"online-ludo-game/config"
	"online-ludo-game/domain"
	"online-ludo-game/hub"
	"online-ludo-game/matchmaking"
	"online-ludo-game/protocol"
)

type stubStats struct{ stats matchmaking.Stats }

func (s stubStats) Stats() matchmaking.Stats { return s.stats }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(&config.Config{}, hub.New(), nil, stubStats{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_Stats(t *testing.T) {
	router := NewRouter(&config.Config{}, hub.New(), nil, stubStats{matchmaking.Stats{Waiting: 3, Rooms: 2}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"clients":0,"topics":0,"waiting":3,"rooms":2}`, w.Body.String())
}

func TestRouter_StaticClient(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>ludo</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	router := NewRouter(&config.Config{StaticDir: dir}, hub.New(), nil, stubStats{})

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{name: "root", method: http.MethodGet, path: "/", wantCode: http.StatusOK, wantBody: "<h1>ludo</h1>"},
		{name: "asset", method: http.MethodGet, path: "/app.js", wantCode: http.StatusOK, wantBody: "console.log(1)"},
		{name: "client route falls back", method: http.MethodGet, path: "/game/42", wantCode: http.StatusOK, wantBody: "<h1>ludo</h1>"},
		{name: "post", method: http.MethodPost, path: "/", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRouter_StaticClientMissing(t *testing.T) {
	router := NewRouter(&config.Config{StaticDir: t.TempDir()}, hub.New(), nil, stubStats{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckOrigin(t *testing.T) {
	s := &Server{cfg: &config.Config{AllowedOrigins: []string{"https://ludo.example"}}}

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://ludo.example", want: true},
		{origin: "https://evil.example", want: false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, s.checkOrigin(r), tt.origin)
	}

	open := &Server{cfg: &config.Config{}}
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://anything.example")
	assert.True(t, open.checkOrigin(r))
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	frame, err := domain.Encode(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func readUntil(t *testing.T, conn *websocket.Conn, event string, match func(domain.Message) bool) domain.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", event)

		var msg domain.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Event == event && (match == nil || match(msg)) {
			return msg
		}
	}
}

func TestWebSocket_MatchAndRelay(t *testing.T) {
	broadcaster := hub.New()
	service := matchmaking.NewService(broadcaster, matchmaking.NewMemoryStore(), 64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.Run(ctx)

	router := NewRouter(&config.Config{}, broadcaster, protocol.NewHandler(service), service)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	idle := dial()
	players := make([]*websocket.Conn, matchmaking.GroupSize)
	for i := range players {
		players[i] = dial()
	}
	require.Eventually(t, func() bool {
		_, clients := broadcaster.Stats()
		return clients == matchmaking.GroupSize+1
	}, 2*time.Second, 10*time.Millisecond)

	names := []string{"Ali", "Sara", "Reza", "Mina"}
	for i, conn := range players {
		send(t, conn, domain.EventJoinWaiting, map[string]string{"name": names[i]})
		readUntil(t, conn, domain.EventWaitingStatus, nil)
	}

	var roomID string
	for i, conn := range players {
		msg := readUntil(t, conn, domain.EventGameStarted, nil)

		var started matchmaking.GameStarted
		require.NoError(t, json.Unmarshal(msg.Data, &started))
		assert.Equal(t, matchmaking.Palette[i].Label, started.YourColor)
		assert.Equal(t, matchmaking.Palette[i].Code, started.YourColorCode)
		require.Len(t, started.Players, matchmaking.GroupSize)
		for j, seat := range started.Players {
			assert.Equal(t, names[j], seat.PlayerName)
		}

		if roomID == "" {
			roomID = started.RoomID
		}
		assert.Equal(t, roomID, started.RoomID)
		readUntil(t, conn, domain.EventGameStateUpdate, nil)
	}

	readUntil(t, idle, domain.EventWaitingPlayersUpdate, func(msg domain.Message) bool {
		var update matchmaking.WaitingPlayersUpdate
		return json.Unmarshal(msg.Data, &update) == nil && update.Count == 0
	})
	require.Eventually(t, func() bool {
		return service.Stats() == matchmaking.Stats{Waiting: 0, Rooms: 1}
	}, time.Second, 10*time.Millisecond)

	action := map[string]any{"roomId": roomID, "type": "move", "piece": 1}
	send(t, players[0], domain.EventGameAction, action)

	want, err := json.Marshal(action)
	require.NoError(t, err)
	for _, conn := range players[1:] {
		msg := readUntil(t, conn, domain.EventGameUpdate, nil)
		assert.JSONEq(t, string(want), string(msg.Data))
	}

	require.NoError(t, players[0].SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	for {
		_, data, err := players[0].ReadMessage()
		if err != nil {
			break
		}
		var msg domain.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.NotEqual(t, domain.EventGameUpdate, msg.Event, "sender got its own action back")
	}
}

func TestWebSocket_DisconnectLeavesQueue(t *testing.T) {
	broadcaster := hub.New()
	service := matchmaking.NewService(broadcaster, matchmaking.NewMemoryStore(), 64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.Run(ctx)

	srv := httptest.NewServer(NewRouter(&config.Config{}, broadcaster, protocol.NewHandler(service), service))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	observer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer observer.Close()
	leaver, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, clients := broadcaster.Stats()
		return clients == 2
	}, 2*time.Second, 10*time.Millisecond)

	send(t, leaver, domain.EventJoinWaiting, map[string]string{"name": "Ali"})
	readUntil(t, leaver, domain.EventWaitingStatus, nil)
	require.Eventually(t, func() bool {
		return service.Stats().Waiting == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, leaver.Close())

	readUntil(t, observer, domain.EventWaitingPlayersUpdate, func(msg domain.Message) bool {
		var update matchmaking.WaitingPlayersUpdate
		return json.Unmarshal(msg.Data, &update) == nil && update.Count == 0
	})
	require.Eventually(t, func() bool {
		return service.Stats().Waiting == 0
	}, time.Second, 10*time.Millisecond)
}
