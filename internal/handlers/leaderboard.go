package handlers

import (
	"net/http"
	"os"
	"time"

	"pulselink/internal/services"
	"pulselink/internal/utils"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	windowHours int
	limit       int
}

func NewLeaderboardHandler() *LeaderboardHandler {
	windowHours := utils.StringToInt(os.Getenv("LEADERBOARD_WINDOW_HOURS"))
	if windowHours <= 0 {
		windowHours = 24
	}
	limit := utils.StringToInt(os.Getenv("LEADERBOARD_LIMIT"))
	if limit <= 0 {
		limit = 5
	}
	return &LeaderboardHandler{windowHours: windowHours, limit: limit}
}

const leaderboardCacheKey = "leaderboard:top"

// Top serves the karma leaderboard over the trailing window. Every like
// shifts the board, so instead of invalidating on writes the result is
// just cached for a minute.
func (h *LeaderboardHandler) Top(c *gin.Context) {
	if cached := utils.GetCache().Get(leaderboardCacheKey); cached != nil {
		if entries, ok := cached.([]services.KarmaEntry); ok {
			c.JSON(http.StatusOK, entries)
			return
		}
	}

	since := time.Now().Add(-time.Duration(h.windowHours) * time.Hour)
	entries, err := services.TopKarma(since, h.limit)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to compute leaderboard")
		return
	}

	utils.GetCache().Set(leaderboardCacheKey, entries, 1*time.Minute)

	c.JSON(http.StatusOK, entries)
}
