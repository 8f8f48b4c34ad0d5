package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"tempora_back_end/internal/models"
	"tempora_back_end/internal/utils"
)

// Login authentifie un opérateur : secret partagé de la console + identifiant
// reconnu privilégié. Renvoie un jeton Bearer de 24h.
func (h *Handlers) Login(c *gin.Context) {
	var input struct {
		OperatorID string `json:"operator_id"`
		Secret     string `json:"secret"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.OperatorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "operator_id et secret requis"})
		return
	}

	expected := os.Getenv("OPERATOR_API_SECRET")
	if expected == "" {
		log.Println("❌ OPERATOR_API_SECRET non configuré, connexion refusée")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(input.Secret), []byte(expected)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	if !h.Oracle.IsPrivileged(c.Request.Context(), input.OperatorID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	operator, err := h.Users.GetUser(c.Request.Context(), input.OperatorID)
	if err != nil {
		operator = &models.AppUser{ID: input.OperatorID, IsAdmin: true}
	}

	token, err := utils.GenerateJWT(operator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	log.Printf("✅ Opérateur %s connecté à la console", input.OperatorID)
	c.JSON(http.StatusOK, gin.H{"token": token})
}
