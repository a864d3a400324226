package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS returns the permissive CORS middleware required by the cross-origin
// UI deployment. Every response carries the header set; preflight requests
// are answered with 204.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type,Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
