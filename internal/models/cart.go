package models

// CartItem est une ligne de panier. Nom, prix et plafond de stock sont des
// instantanés pris au moment de l'ajout — le catalogue peut changer ensuite.
type CartItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	StockLimit  int     `json:"stock_limit"`
}

func (ci CartItem) Subtotal() float64 {
	return ci.UnitPrice * float64(ci.Quantity)
}
