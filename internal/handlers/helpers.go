package handlers

import (
	"github.com/gin-gonic/gin"
)

// Every response carries the same envelope:
// {status, success, message, url, ...payload}.

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"success": false,
		"message": message,
		"url":     c.Request.URL.Path,
	})
}

func respond(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{
		"status":  status,
		"success": true,
		"message": message,
		"url":     c.Request.URL.Path,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
