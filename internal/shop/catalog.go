package shop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tempora_back_end/internal/models"
)

// ProductDraft est le brouillon rempli par l'assistant opérateur avant création.
type ProductDraft struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	CategoryID  string
	ImageRef    string
}

type CategoryDraft struct {
	Name        string
	Description string
}

// CatalogService porte les écritures catalogue (produits et catégories).
// Les lectures clientes passent directement par les stores.
type CatalogService struct {
	products   ProductStore
	categories CategoryStore
}

func NewCatalogService(products ProductStore, categories CategoryStore) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

func (s *CatalogService) CreateProduct(ctx context.Context, draft ProductDraft) (*models.Product, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, fmt.Errorf("%w : le nom du produit est obligatoire", ErrValidation)
	}
	if draft.Price <= 0 {
		return nil, fmt.Errorf("%w : le prix doit être positif", ErrValidation)
	}
	if draft.Stock < 0 {
		return nil, fmt.Errorf("%w : le stock ne peut pas être négatif", ErrValidation)
	}

	exists, err := s.products.ExistsByName(ctx, draft.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w : un produit nommé '%s' existe déjà", ErrValidation, draft.Name)
	}

	if _, err := s.categories.GetCategory(ctx, draft.CategoryID); err != nil {
		return nil, fmt.Errorf("%w : catégorie %s", ErrNotFound, draft.CategoryID)
	}

	now := time.Now()
	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Stock:       draft.Stock,
		CategoryID:  draft.CategoryID,
		ImageRef:    draft.ImageRef,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("création produit : %w", err)
	}
	return product, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, draft CategoryDraft) (*models.Category, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, fmt.Errorf("%w : le nom de la catégorie est obligatoire", ErrValidation)
	}

	category := &models.Category{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Description: draft.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.categories.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("création catégorie : %w", err)
	}
	return category, nil
}

// DeactivateProduct retire le produit de la vente sans le supprimer
// (suppression douce : les commandes passées le référencent toujours).
func (s *CatalogService) DeactivateProduct(ctx context.Context, productID string) error {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	product.IsActive = false
	product.UpdatedAt = time.Now()
	return s.products.UpdateProduct(ctx, product)
}

func (s *CatalogService) UpdateStock(ctx context.Context, productID string, newStock int) error {
	if newStock < 0 {
		return fmt.Errorf("%w : le stock ne peut pas être négatif", ErrValidation)
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	product.Stock = newStock
	product.UpdatedAt = time.Now()
	return s.products.UpdateProduct(ctx, product)
}
