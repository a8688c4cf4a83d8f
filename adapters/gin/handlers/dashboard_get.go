package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/insights/analytics"
)

func HandleDashboardGET(store *analytics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := store.DashboardSummary(c.Request.Context(), time.Now())
		if err != nil {
			serverErr(c, "failed_to_load_dashboard")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": summary})
	}
}
