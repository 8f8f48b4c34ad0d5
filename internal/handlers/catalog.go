package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tempora_back_end/internal/shop"
)

func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.Categories.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handlers) CreateCategory(c *gin.Context) {
	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	category, err := h.Catalog.CreateCategory(c.Request.Context(), shop.CategoryDraft{
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// ListProducts renvoie les produits actifs, filtrables par catégorie.
func (h *Handlers) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	if categoryID := c.Query("category_id"); categoryID != "" {
		products, err := h.Products.ListByCategory(ctx, categoryID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
		return
	}

	products, err := h.Products.ListActive(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.Products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handlers) CreateProduct(c *gin.Context) {
	var input struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Stock       int     `json:"stock"`
		CategoryID  string  `json:"category_id"`
		ImageRef    string  `json:"image_ref"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	product, err := h.Catalog.CreateProduct(c.Request.Context(), shop.ProductDraft{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		ImageRef:    input.ImageRef,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// DeactivateProduct retire le produit de la vente (suppression douce).
func (h *Handlers) DeactivateProduct(c *gin.Context) {
	if err := h.Catalog.DeactivateProduct(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit retiré de la vente"})
}

func (h *Handlers) UpdateStock(c *gin.Context) {
	var input struct {
		Stock *int `json:"stock"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Stock == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champ stock requis"})
		return
	}

	if err := h.Catalog.UpdateStock(c.Request.Context(), c.Param("id"), *input.Stock); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("id"), "stock": *input.Stock})
}
