package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authgin "github.com/open-rails/insights/adapters/gin"
	"github.com/open-rails/insights/analytics"
)

// HandleLeaderboardGET serves the village activity leaderboard. When the
// caller's token carried a registered village, their own rank rides along.
func HandleLeaderboardGET(store *analytics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(analytics.DefaultPerPage)))
		entries, err := store.VillageLeaderboard(c.Request.Context(), limit)
		if err != nil {
			serverErr(c, "failed_to_load_leaderboard")
			return
		}

		resp := gin.H{"status": "success", "data": gin.H{"entries": entries}}
		if code, present := authgin.RegisteredLGDCodeFromGin(c); present {
			if code == "" {
				resp["data"].(gin.H)["own"] = nil
			} else if own, ok, err := store.VillageRank(c.Request.Context(), code); err == nil && ok {
				resp["data"].(gin.H)["own"] = own
			} else {
				resp["data"].(gin.H)["own"] = nil
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
