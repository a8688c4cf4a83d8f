package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authgin "github.com/open-rails/insights/adapters/gin"
	"github.com/open-rails/insights/analytics"
)

type feedbackRequest struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// HandleFeedbackPOST records a feedback submission attributed to the
// authenticated caller. The caller's registered LGD code, when the hook
// derived one, is stored alongside.
func HandleFeedbackPOST(store *analytics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req feedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid_body")
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			badRequest(c, "missing_message")
			return
		}
		if req.Category == "" {
			req.Category = "general"
		}

		claims, ok := authgin.ClaimsFromGin(c)
		if !ok {
			serverErr(c, "missing_auth_context")
			return
		}
		var lgd *string
		if code, present := authgin.RegisteredLGDCodeFromGin(c); present && code != "" {
			lgd = &code
		}

		fb, err := store.CreateFeedback(c.Request.Context(), claims.Subject(), req.Category, req.Message, lgd)
		if err != nil {
			serverErr(c, "failed_to_save_feedback")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "success", "data": gin.H{"reference": fb.Reference}})
	}
}

func HandleFeedbackGET(store *analytics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := store.ListFeedback(c.Request.Context(), pageRequest(c))
		if err != nil {
			serverErr(c, "failed_to_list_feedback")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": page})
	}
}
