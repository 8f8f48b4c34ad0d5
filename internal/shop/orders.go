package shop

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tempora_back_end/internal/models"
)

// CheckoutForm est le formulaire accumulé par le parcours de commande.
type CheckoutForm struct {
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
}

// OrderService possède la machine à états des commandes :
// PENDING → AWAITING_VERIFICATION → {PAID | REJECTED}.
// CANCELLED est réservé (atteignable depuis PENDING uniquement).
// Le stock n'est jamais décrémenté à la création — uniquement au passage PAID.
type OrderService struct {
	orders    OrderStore
	proofs    ProofStore
	products  ProductStore
	inventory *InventoryAdjuster
	oracle    PrivilegeOracle
	events    EventPublisher
}

func NewOrderService(orders OrderStore, proofs ProofStore, products ProductStore,
	inventory *InventoryAdjuster, oracle PrivilegeOracle, events EventPublisher) *OrderService {
	return &OrderService{
		orders:    orders,
		proofs:    proofs,
		products:  products,
		inventory: inventory,
		oracle:    oracle,
		events:    events,
	}
}

// CreateOrder valide chaque ligne contre le catalogue courant (tout ou rien)
// et fige nom et prix au moment de la commande. Le prix est relu depuis le
// catalogue : il peut différer de l'instantané du panier si le catalogue a
// changé entre-temps. Le stock est vérifié mais pas réservé.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, form CheckoutForm, cartItems []models.CartItem) (*models.Order, error) {
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(cartItems))
	total := 0.0
	for _, ci := range cartItems {
		product, err := s.products.GetProduct(ctx, ci.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w : produit %s", ErrProductUnavailable, ci.ProductID)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w : %s", ErrProductUnavailable, product.Name)
		}
		if product.Stock < ci.Quantity {
			return nil, fmt.Errorf("%w : %s", ErrInsufficientStock, product.Name)
		}

		lineTotal := product.Price * float64(ci.Quantity)
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    ci.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  lineTotal,
		})
		total += lineTotal
	}

	now := time.Now()
	order := &models.Order{
		ID:              uuid.NewString(),
		CustomerID:      customerID,
		CustomerName:    form.CustomerName,
		CustomerPhone:   form.CustomerPhone,
		DeliveryAddress: form.DeliveryAddress,
		TotalAmount:     total,
		Status:          models.OrderPending,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("création commande : %w", err)
	}

	log.Printf("✅ Commande %s créée pour %s (%.2f)", order.ID, customerID, total)
	return order, nil
}

// AttachPaymentProof n'est légal que sur une commande PENDING : une fois la
// vérification en cours, toute nouvelle preuve est refusée.
func (s *OrderService) AttachPaymentProof(ctx context.Context, orderID, blobRef string) (*models.PaymentProof, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, fmt.Errorf("%w (statut %s)", ErrInvalidState, order.Status)
	}

	proof := &models.PaymentProof{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		BlobRef:    blobRef,
		UploadedAt: time.Now(),
	}
	if err := s.proofs.CreateProof(ctx, proof); err != nil {
		return nil, fmt.Errorf("enregistrement preuve : %w", err)
	}

	applied, err := s.orders.TransitionOrderStatus(ctx, orderID, models.OrderPending, models.OrderAwaitingVerification, time.Now())
	if err != nil {
		return nil, fmt.Errorf("mise à jour statut : %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w (dépôt concurrent)", ErrInvalidState)
	}

	s.events.PublishProofUploaded(ctx, ProofUploadedEvent{
		OrderID:    orderID,
		CustomerID: order.CustomerID,
	})

	log.Printf("📸 Preuve de paiement reçue pour la commande %s", orderID)
	return proof, nil
}

// VerifyPayment applique la décision de l'opérateur. Un second appel sur une
// commande déjà tranchée échoue (ErrInvalidState), jamais de re-vérification
// silencieuse : la transition de statut est conditionnelle, une seule des
// décisions concurrentes l'emporte et décrémente le stock. Un échec de
// décrément (stock évaporé entre création et approbation) est journalisé mais
// n'annule pas le passage en PAID.
func (s *OrderService) VerifyPayment(ctx context.Context, orderID, operatorID string, approved bool) error {
	if !s.oracle.IsPrivileged(ctx, operatorID) {
		return ErrUnauthorized
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderAwaitingVerification {
		return fmt.Errorf("%w (statut %s)", ErrInvalidState, order.Status)
	}

	proof, err := s.proofs.UnverifiedByOrder(ctx, orderID)
	if err != nil {
		return ErrNoUnverifiedProof
	}

	status := models.OrderRejected
	if approved {
		status = models.OrderPaid
	}
	applied, err := s.orders.TransitionOrderStatus(ctx, orderID, models.OrderAwaitingVerification, status, time.Now())
	if err != nil {
		return fmt.Errorf("mise à jour statut : %w", err)
	}
	if !applied {
		return fmt.Errorf("%w (décision concurrente)", ErrInvalidState)
	}

	if err := s.proofs.MarkVerified(ctx, proof.ID, operatorID, time.Now()); err != nil {
		return fmt.Errorf("vérification preuve : %w", err)
	}

	if approved {
		for _, item := range order.Items {
			ok, err := s.inventory.Decrement(ctx, item.ProductID, item.Quantity)
			if err != nil {
				log.Printf("❌ Décrément stock %s (commande %s) : %v", item.ProductID, orderID, err)
				continue
			}
			if !ok {
				log.Printf("⚠️ Stock insuffisant pour %s lors de l'approbation de la commande %s — la commande reste PAID", item.ProductName, orderID)
			}
		}
	}

	s.events.PublishVerificationResult(ctx, VerificationResultEvent{
		CustomerID: order.CustomerID,
		OrderID:    orderID,
		Approved:   approved,
	})

	log.Printf("✅ Commande %s → %s (opérateur %s)", orderID, status, operatorID)
	return nil
}

// ListPendingVerification renvoie les commandes en attente, les plus
// anciennes d'abord.
func (s *OrderService) ListPendingVerification(ctx context.Context) ([]models.Order, error) {
	return s.orders.ListByStatus(ctx, models.OrderAwaitingVerification)
}

// OrderDetails renvoie la commande complète et la présence d'une preuve,
// pour examen par l'opérateur avant décision.
func (s *OrderService) OrderDetails(ctx context.Context, orderID string) (*models.Order, bool, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	proofs, err := s.proofs.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	return order, len(proofs) > 0, nil
}

// ProofBlobRef renvoie la référence blob de la dernière preuve déposée.
func (s *OrderService) ProofBlobRef(ctx context.Context, orderID string) (string, error) {
	proofs, err := s.proofs.ListByOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if len(proofs) == 0 {
		return "", ErrNotFound
	}
	return proofs[len(proofs)-1].BlobRef, nil
}

func (s *OrderService) OrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}
