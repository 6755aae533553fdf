package server

import (
	"net/http"
	"slices"

	"imitation-game/internal/config"
	"imitation-game/internal/game"
	"imitation-game/internal/media"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	rooms *game.Registry
	media *media.Store
	ws    *Hub
	cfg   config.Config
	log   zerolog.Logger
}

// New wires a server around a registry built by the caller. The registry's
// Emitter must be hub, so callers build the hub first with NewHub.
func New(rooms *game.Registry, hub *Hub, store *media.Store, cfg config.Config) *Server {
	registerValidators()
	return &Server{
		rooms: rooms,
		media: store,
		ws:    hub,
		cfg:   cfg,
		log:   log.With().Str("module", "server").Logger(),
	}
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", s.handleHealth)

	r.Use(s.checkOrigin)
	r.Use(cors.New(s.corsConfig()))

	r.GET("/", s.handleHome)
	r.GET("/ws", s.handleWebsocket)
	r.POST("/upload", s.handleUploadRecording)
	r.POST("/upload_clip", s.handleUploadClips)
	r.GET("/uploads/:file", s.handleRecordingFile)
	r.GET("/clips/:code/:file", s.handleClipFile)

	api := r.Group("/api/sessions")
	{
		api.GET("", s.handleListSessions)
		api.GET("/:code", s.handleSession)
		api.GET("/:code/qr", s.handleSessionQR)
	}
	return r
}

func (s *Server) allowAnyOrigin() bool {
	return len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*")
}

// checkOrigin rejects browser requests from origins outside the allow list.
// Requests without an Origin header are not browser initiated and pass.
func (s *Server) checkOrigin(c *gin.Context) {
	origin := c.Request.Header.Get("Origin")
	if origin == "" || s.allowAnyOrigin() || slices.Contains(s.cfg.AllowedOrigins, origin) {
		c.Next()
		return
	}
	c.String(http.StatusForbidden, "forbidden origin")
	c.Abort()
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}
	if s.allowAnyOrigin() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.AllowedOrigins
		cfg.AllowCredentials = true
	}
	return cfg
}
