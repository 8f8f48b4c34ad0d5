package shop

import "context"

// InventoryAdjuster sépare la vérification consultative (à la création de
// commande) de l'engagement réel du stock (à l'approbation du paiement).
type InventoryAdjuster struct {
	products ProductStore
}

func NewInventoryAdjuster(products ProductStore) *InventoryAdjuster {
	return &InventoryAdjuster{products: products}
}

func (a *InventoryAdjuster) CheckAvailable(ctx context.Context, productID string, quantity int) (bool, error) {
	product, err := a.products.GetProduct(ctx, productID)
	if err != nil {
		return false, err
	}
	return product.Stock >= quantity, nil
}

// Decrement engage le stock. Renvoie false (sans erreur) si le stock est
// insuffisant — l'appelant décide de la politique à suivre.
func (a *InventoryAdjuster) Decrement(ctx context.Context, productID string, quantity int) (bool, error) {
	return a.products.DecrementStock(ctx, productID, quantity)
}
