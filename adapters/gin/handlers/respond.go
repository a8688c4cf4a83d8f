// Package handlers holds one gin handler per analytics endpoint. Every
// handler here runs behind the auth gate and reads the claim set the gate
// attached.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/insights/analytics"
)

func badRequest(c *gin.Context, code string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": code})
}

func serverErr(c *gin.Context, code string) {
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": code})
}

// pageRequest reads ?page and ?per_page with the store's defaults.
func pageRequest(c *gin.Context) analytics.PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(analytics.DefaultPerPage)))
	return analytics.PageRequest{Page: page, PerPage: perPage}.Normalized()
}
