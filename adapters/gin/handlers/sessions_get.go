package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authgin "github.com/open-rails/insights/adapters/gin"
	"github.com/open-rails/insights/analytics"
)

// parseTimeParam reads an RFC3339 query parameter; empty is absent.
func parseTimeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func HandleSessionsGET(store *analytics.Store) gin.HandlerFunc {
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
		filter := analytics.SessionFilter{
			UserID:   c.Query("user_id"),
			LGDCode:  c.Query("lgd_code"),
			Platform: c.Query("platform"),
			From:     from,
			To:       to,
		}
		// ?village_code= goes through the directory first; a resolved
		// record narrows the listing to that village.
		if filter.LGDCode == "" {
			if v, ok := authgin.VillageFromGin(c); ok {
				filter.LGDCode = v.LGDCode
			}
		}
		page, err := store.ListSessions(c.Request.Context(), filter, pageRequest(c))
		if err != nil {
			serverErr(c, "failed_to_list_sessions")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": page})
	}
}
