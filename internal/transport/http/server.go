package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/hanabi-server/internal/config"
	"github.com/vovakirdan/hanabi-server/internal/core"
)

// NewServer builds the HTTP server: WebSocket endpoint plus a small
// introspection API.
func NewServer(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", healthHandler)
	router.GET("/ws", NewWSHandler(hub, logger).Handle)

	api := NewAPIHandlers(hub, logger)
	router.GET("/api/stats", api.Stats)
	router.GET("/api/rooms/:roomID/online", api.RoomOnline)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
