package shop

import (
	"context"
	"fmt"

	"tempora_back_end/internal/models"
)

// Cart appartient exclusivement à une session utilisateur : seuls les
// événements de cet utilisateur le mutent, donc pas de verrou interne.
type Cart struct {
	items []models.CartItem
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Total() float64 {
	total := 0.0
	for _, it := range c.items {
		total += it.Subtotal()
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) Clear() {
	c.items = nil
}

// CartService applique les règles de mutation du panier à partir
// d'instantanés du catalogue pris au moment de l'ajout.
type CartService struct {
	products ProductStore
}

func NewCartService(products ProductStore) *CartService {
	return &CartService{products: products}
}

// Add ajoute une unité du produit. Si une ligne existe déjà, la quantité ne
// peut pas dépasser le stock observé lors de ce nouvel instantané ; sinon le
// panier reste inchangé.
func (s *CartService) Add(ctx context.Context, cart *Cart, productID string) (models.CartItem, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return models.CartItem{}, fmt.Errorf("%w : produit %s", ErrProductUnavailable, productID)
	}
	if !product.IsActive {
		return models.CartItem{}, fmt.Errorf("%w : %s", ErrProductUnavailable, product.Name)
	}

	for i := range cart.items {
		if cart.items[i].ProductID != productID {
			continue
		}
		if cart.items[i].Quantity+1 > product.Stock {
			return cart.items[i], fmt.Errorf("%w : %s", ErrStockLimitReached, product.Name)
		}
		cart.items[i].Quantity++
		cart.items[i].StockLimit = product.Stock
		return cart.items[i], nil
	}

	item := models.CartItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    1,
		StockLimit:  product.Stock,
	}
	cart.items = append(cart.items, item)
	return item, nil
}

// Remove retire la ligne du produit ; silencieux si elle n'existe pas.
func (s *CartService) Remove(cart *Cart, productID string) {
	for i := range cart.items {
		if cart.items[i].ProductID == productID {
			cart.items = append(cart.items[:i], cart.items[i+1:]...)
			return
		}
	}
}
