package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/insights/analytics"
)

func HandleUsersGET(store *analytics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		activeSince, ok := parseTimeParam(c, "active_since")
		if !ok {
			badRequest(c, "invalid_active_since")
			return
		}
		page, err := store.ListUsers(c.Request.Context(), analytics.UserFilter{ActiveSince: activeSince}, pageRequest(c))
		if err != nil {
			serverErr(c, "failed_to_list_users")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": page})
	}
}
