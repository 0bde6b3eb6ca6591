// Package admin exposes an HTTP surface for operators: health, Prometheus
// metrics and a view of rooms and sessions.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/andy6609/roomrelay/internal/chat"
)

// RoomDirectory is the subset of the room registry the admin API needs.
type RoomDirectory interface {
	List() []chat.RoomInfo
	Lookup(id int) (chat.RoomInfo, bool)
	Users(id int) []string
	Create(name string) (int, error)
}

// SessionDirectory lists live sessions.
type SessionDirectory interface {
	List() []chat.SessionInfo
}

// NewRouter builds the gin engine with every admin route.
func NewRouter(rooms RoomDirectory, sessions SessionDirectory, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/healthz", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := NewRoomHandlers(rooms, sessions, logger)
	api := router.Group("/api")
	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms/:id/users", h.ListUsers)
	api.GET("/sessions", h.ListSessions)

	return router
}

// NewServer wraps handler in an http.Server listening on addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
