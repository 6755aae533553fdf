package server

import (
	"imitation-game/internal/game"
	"imitation-game/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleHome(c *gin.Context) {
	joinCode := c.Query("join")
	if !game.ValidCode(joinCode) {
		joinCode = ""
	}
	templ.Handler(web.Home(joinCode, s.homeSummaries())).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) homeSummaries() []web.SessionSummary {
	summaries := make([]web.SessionSummary, 0)
	for _, session := range s.rooms.Summaries() {
		summaries = append(summaries, web.SessionSummary{
			Code:    session.Code,
			Phase:   session.Phase.String(),
			Players: len(session.Players),
		})
	}
	return summaries
}
