package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tempora_back_end/internal/blob"
	"tempora_back_end/internal/shop"
)

// Handlers regroupe les endpoints REST de la console opérateur.
type Handlers struct {
	Orders     *shop.OrderService
	Catalog    *shop.CatalogService
	Stats      *shop.StatsService
	Products   shop.ProductStore
	Categories shop.CategoryStore
	Users      shop.UserStore
	Oracle     shop.PrivilegeOracle
	Blobs      blob.Store
}

// fail traduit les erreurs métier en réponses HTTP.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shop.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Ressource introuvable"})
	case errors.Is(err, shop.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, shop.ErrInvalidState), errors.Is(err, shop.ErrNoUnverifiedProof):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, shop.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux opérateurs"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
