package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"online-ludo-game/config"
	"online-ludo-game/domain"
	"online-ludo-game/matchmaking"
	ws "online-ludo-game/websocket"
)

type StatsSource interface {
	Stats() matchmaking.Stats
}

type Server struct {
	cfg         *config.Config
	broadcaster domain.Broadcaster
	handler     domain.MessageHandler
	stats       StatsSource
	upgrader    websocket.Upgrader
}

// NewRouter wires the websocket endpoint, the client bundle and the
// operational endpoints.
func NewRouter(cfg *config.Config, b domain.Broadcaster, h domain.MessageHandler, stats StatsSource) *gin.Engine {
	s := &Server{
		cfg:         cfg,
		broadcaster: b,
		handler:     h,
		stats:       stats,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET("/ws", s.serveWS)
	router.GET("/health", s.health)
	router.GET("/stats", s.statsHandler)
	router.NoRoute(s.serveClient)

	return router
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.cfg.AllowedOrigins, origin)
}

func (s *Server) serveWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("upgrade error", "error", err)
		return
	}

	wsConn := ws.NewConn(uuid.New().String(), conn, s.broadcaster, s.handler)
	wsConn.Start()
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) statsHandler(c *gin.Context) {
	rooms, clients := s.broadcaster.Stats()
	mm := s.stats.Stats()
	c.JSON(http.StatusOK, gin.H{
		"clients": clients,
		"topics":  rooms,
		"waiting": mm.Waiting,
		"rooms":   mm.Rooms,
	})
}

// serveClient serves files from the static directory and falls back to
// index.html so client-side routes resolve.
func (s *Server) serveClient(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	path := filepath.Join(s.cfg.StaticDir, filepath.Clean("/"+c.Request.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		c.File(path)
		return
	}

	index := filepath.Join(s.cfg.StaticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.File(index)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}
