package models

import "time"

type OrderStatus string

const (
	OrderPending              OrderStatus = "PENDING"
	OrderAwaitingVerification OrderStatus = "AWAITING_VERIFICATION"
	OrderPaid                 OrderStatus = "PAID"
	OrderRejected             OrderStatus = "REJECTED"
	OrderCancelled            OrderStatus = "CANCELLED"
)

type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customer_id"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address"`
	TotalAmount     float64     `json:"total_amount"`
	Status          OrderStatus `json:"status"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem fige nom et prix au moment de la commande.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}
