package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
	"github.com/stitts-dev/lineup-optimizer/pkg/utils"
)

// PlayerHandler serves the current slate
type PlayerHandler struct {
	slates SlateLoader
	logger *logrus.Entry
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(slates SlateLoader, logger *logrus.Entry) *PlayerHandler {
	return &PlayerHandler{slates: slates, logger: logger.WithField("handler", "player")}
}

// GetPlayers returns the slate, optionally filtered by ?position= and ?team=
func (h *PlayerHandler) GetPlayers(c *gin.Context) {
	var position models.Position
	if raw := c.Query("position"); raw != "" {
		pos, err := models.ParsePosition(raw)
		if err != nil {
			utils.SendValidationError(c, "Invalid position filter", err.Error())
			return
		}
		position = pos
	}
	team := strings.ToUpper(strings.TrimSpace(c.Query("team")))

	slate, err := h.slates.Load(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load slate")
		sendSlateError(c, err)
		return
	}

	players := make([]models.Player, 0, len(slate.Players))
	for _, p := range slate.Players {
		if position != "" && p.Position != position {
			continue
		}
		if team != "" && p.Team != team {
			continue
		}
		players = append(players, p)
	}

	utils.SendSuccessWithMeta(c, gin.H{
		"players": players,
		"report":  slate.Report,
	}, &utils.Meta{Total: len(players), Source: slate.Source})
}
