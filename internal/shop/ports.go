package shop

import (
	"context"
	"time"

	"tempora_back_end/internal/models"
)

// ProductStore est l'accès clé→valeur au catalogue. DecrementStock doit être
// atomique vis-à-vis des décréments concurrents sur le même produit.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]models.Product, error)
	ListActive(ctx context.Context) ([]models.Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)
}

type CategoryStore interface {
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.AppUser, error)
	UpsertUser(ctx context.Context, u *models.AppUser) error
	// ListAdmins renvoie les utilisateurs porteurs du drapeau is_admin.
	ListAdmins(ctx context.Context) ([]models.AppUser, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, updatedAt time.Time) error
	// TransitionOrderStatus ne change le statut que si la commande est encore
	// dans le statut attendu ; renvoie false quand un autre appel est passé avant.
	TransitionOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, updatedAt time.Time) (bool, error)
	// ListByStatus renvoie les commandes du statut donné, les plus anciennes d'abord.
	ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListSince(ctx context.Context, since time.Time) ([]models.Order, error)
}

type ProofStore interface {
	CreateProof(ctx context.Context, p *models.PaymentProof) error
	// UnverifiedByOrder renvoie ErrNotFound s'il n'existe aucune preuve non vérifiée.
	UnverifiedByOrder(ctx context.Context, orderID string) (*models.PaymentProof, error)
	ListByOrder(ctx context.Context, orderID string) ([]models.PaymentProof, error)
	MarkVerified(ctx context.Context, proofID, operatorID string, verifiedAt time.Time) error
}

// Événements publiés sur le canal de notification. Best-effort : aucune
// garantie de livraison côté consommateur.
type ProofUploadedEvent struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}

type VerificationResultEvent struct {
	CustomerID string `json:"customer_id"`
	OrderID    string `json:"order_id"`
	Approved   bool   `json:"approved"`
}

type EventPublisher interface {
	PublishProofUploaded(ctx context.Context, ev ProofUploadedEvent)
	PublishVerificationResult(ctx context.Context, ev VerificationResultEvent)
}

type PrivilegeOracle interface {
	IsPrivileged(ctx context.Context, userID string) bool
}
