package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListPendingOrders renvoie la file de vérification, les plus anciennes d'abord.
func (h *Handlers) ListPendingOrders(c *gin.Context) {
	orders, err := h.Orders.ListPendingVerification(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *Handlers) GetOrder(c *gin.Context) {
	order, hasProof, err := h.Orders.OrderDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "has_proof": hasProof})
}

// GetProofURL renvoie un lien signé temporaire vers la dernière preuve de
// paiement déposée sur la commande.
func (h *Handlers) GetProofURL(c *gin.Context) {
	ref, err := h.Orders.ProofBlobRef(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	url, err := h.Blobs.URL(c.Request.Context(), ref)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// VerifyOrder applique la décision de l'opérateur authentifié sur la commande.
func (h *Handlers) VerifyOrder(c *gin.Context) {
	var input struct {
		Approved *bool `json:"approved"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Approved == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champ approved requis"})
		return
	}

	operatorID := c.GetString("user_id")
	if err := h.Orders.VerifyPayment(c.Request.Context(), c.Param("id"), operatorID, *input.Approved); err != nil {
		fail(c, err)
		return
	}

	status := "REJECTED"
	if *input.Approved {
		status = "PAID"
	}
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("id"), "status": status})
}
