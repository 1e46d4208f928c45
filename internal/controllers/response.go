package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context, body gin.H) {
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

func respondCreated(c *gin.Context, body gin.H) {
	body["success"] = true
	c.JSON(http.StatusCreated, body)
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// parsePagination reads page/limit query params with sane bounds.
func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
