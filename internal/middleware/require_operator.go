package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireOperator vérifie que le jeton porte le rôle "operator"
func RequireOperator(c *gin.Context) {
	role, exists := c.Get("role")
	if !exists || role != "operator" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux opérateurs"})
		c.Abort()
		return
	}
	c.Next()
}
