package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/insights/analytics"
)

func HandleErrorsGET(store *analytics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, ok := parseTimeParam(c, "from")
		if !ok {
			badRequest(c, "invalid_from")
			return
		}
		to, ok := parseTimeParam(c, "to")
		if !ok {
			badRequest(c, "invalid_to")
			return
		}
		filter := analytics.ErrorFilter{
			UserID: c.Query("user_id"),
			Level:  c.Query("level"),
			From:   from,
			To:     to,
		}
		page, err := store.ListErrors(c.Request.Context(), filter, pageRequest(c))
		if err != nil {
			serverErr(c, "failed_to_list_errors")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": page})
	}
}
