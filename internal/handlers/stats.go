package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) DailyStats(c *gin.Context) {
	stats, err := h.Stats.DailySales(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) WeeklyStats(c *gin.Context) {
	stats, err := h.Stats.WeeklySales(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) MonthlyStats(c *gin.Context) {
	stats, err := h.Stats.MonthlySales(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// TopProducts renvoie les meilleurs vendeurs. Paramètres days et limit
// optionnels (30 jours, top 5 par défaut).
func (h *Handlers) TopProducts(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre days invalide"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre limit invalide"})
		return
	}

	top, err := h.Stats.TopProducts(c.Request.Context(), days, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": top})
}

func (h *Handlers) StatusDistribution(c *gin.Context) {
	distribution, err := h.Stats.StatusDistribution(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distribution": distribution})
}
