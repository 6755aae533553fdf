package server

import (
	"net/http"
	"net/url"

	"imitation-game/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

type sessionURI struct {
	Code string `uri:"code" binding:"required,joincode"`
}

type sessionDetail struct {
	game.Summary
	Scores map[string]int `json:"scores"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.rooms.Len()})
}

func (s *Server) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.rooms.Summaries()})
}

func (s *Server) handleSession(c *gin.Context) {
	room, ok := s.sessionFromURI(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionDetail{Summary: room.Summary(), Scores: room.Scores()})
}

// handleSessionQR renders a PNG QR code pointing players at the join page.
func (s *Server) handleSessionQR(c *gin.Context) {
	room, ok := s.sessionFromURI(c)
	if !ok {
		return
	}
	png, err := qrcode.Encode(joinURL(c.Request, room.Code()), qrcode.Medium, qrSize)
	if err != nil {
		s.log.Warn().Str("session", room.Code()).Err(err).Msg("qr generation failed")
		writeError(c, http.StatusInternalServerError, "qr generation failed")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) sessionFromURI(c *gin.Context) (*game.Room, bool) {
	var uri sessionURI
	if !bindURI(c, &uri) {
		return nil, false
	}
	room, ok := s.rooms.Lookup(uri.Code)
	if !ok {
		writeError(c, http.StatusNotFound, game.ErrRoomNotFound.Error())
		return nil, false
	}
	return room, true
}

func joinURL(r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: "/", RawQuery: url.Values{"join": {code}}.Encode()}
	return u.String()
}
