package shop_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempora_back_end/internal/models"
	"tempora_back_end/internal/shop"
	"tempora_back_end/internal/store"
)

type eventRecorder struct {
	mu      sync.Mutex
	proofs  []shop.ProofUploadedEvent
	results []shop.VerificationResultEvent
}

func (r *eventRecorder) PublishProofUploaded(ctx context.Context, ev shop.ProofUploadedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proofs = append(r.proofs, ev)
}

func (r *eventRecorder) PublishVerificationResult(ctx context.Context, ev shop.VerificationResultEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, ev)
}

type orderFixture struct {
	mem    *store.Memory
	orders *shop.OrderService
	carts  *shop.CartService
	events *eventRecorder
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	mem := store.NewMemory()
	events := &eventRecorder{}
	oracle := shop.NewAdminOracle(mem, "op1")
	inventory := shop.NewInventoryAdjuster(mem)
	return &orderFixture{
		mem:    mem,
		orders: shop.NewOrderService(mem, mem, mem, inventory, oracle, events),
		carts:  shop.NewCartService(mem),
		events: events,
	}
}

func (f *orderFixture) seedProduct(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	now := time.Now()
	p := &models.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.mem.CreateProduct(context.Background(), p))
	return p
}

func (f *orderFixture) cartWith(t *testing.T, productIDs ...string) *shop.Cart {
	t.Helper()
	cart := shop.NewCart()
	for _, id := range productIDs {
		_, err := f.carts.Add(context.Background(), cart, id)
		require.NoError(t, err)
	}
	return cart
}

var checkoutForm = shop.CheckoutForm{
	CustomerName:    "Jean Dupont",
	CustomerPhone:   "+33612345678",
	DeliveryAddress: "12 rue des Horlogers, Besançon",
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, nil)
	assert.ErrorIs(t, err, shop.ErrEmptyCart)
}

func TestCreateOrderFreezesCatalogPrice(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)

	// Le prix change entre l'ajout au panier et la commande : c'est le prix
	// catalogue du moment qui est figé.
	p.Price = 300
	require.NoError(t, f.mem.UpdateProduct(context.Background(), p))

	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)
	assert.Equal(t, 300.0, order.Items[0].UnitPrice)
	assert.Equal(t, 300.0, order.TotalAmount)
	assert.Equal(t, models.OrderPending, order.Status)
}

func TestCreateOrderDoesNotReserveStock(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)

	_, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)

	fresh, err := f.mem.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, fresh.Stock)
}

func TestCreateOrderRejectsDeactivatedProduct(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)

	p.IsActive = false
	require.NoError(t, f.mem.UpdateProduct(context.Background(), p))

	_, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	assert.ErrorIs(t, err, shop.ErrProductUnavailable)
}

func TestCreateOrderAllOrNothing(t *testing.T) {
	f := newOrderFixture(t)
	ok := f.seedProduct(t, "Chrono Acier", 250, 5)
	scarce := f.seedProduct(t, "Édition Limitée", 900, 1)
	cart := f.cartWith(t, ok.ID, scarce.ID)

	scarce.Stock = 0
	require.NoError(t, f.mem.UpdateProduct(context.Background(), scarce))

	_, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	assert.ErrorIs(t, err, shop.ErrInsufficientStock)

	// Aucune commande partielle.
	orders, err := f.mem.ListByCustomer(context.Background(), "client1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestAttachProofMovesToAwaitingVerification(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)
	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)

	proof, err := f.orders.AttachPaymentProof(context.Background(), order.ID, "payment_proof_x.jpg")
	require.NoError(t, err)
	assert.Equal(t, order.ID, proof.OrderID)

	fresh, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderAwaitingVerification, fresh.Status)

	require.Len(t, f.events.proofs, 1)
	assert.Equal(t, "client1", f.events.proofs[0].CustomerID)
}

func TestAttachProofOnlyOnPendingOrder(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)
	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)

	_, err = f.orders.AttachPaymentProof(context.Background(), order.ID, "proof1.jpg")
	require.NoError(t, err)

	_, err = f.orders.AttachPaymentProof(context.Background(), order.ID, "proof2.jpg")
	assert.ErrorIs(t, err, shop.ErrInvalidState)
}

func TestVerifyPaymentUnauthorized(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)
	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)
	_, err = f.orders.AttachPaymentProof(context.Background(), order.ID, "proof.jpg")
	require.NoError(t, err)

	err = f.orders.VerifyPayment(context.Background(), order.ID, "intrus", true)
	assert.ErrorIs(t, err, shop.ErrUnauthorized)
}

func TestVerifyPaymentApprovedDecrementsStock(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)
	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)
	_, err = f.orders.AttachPaymentProof(context.Background(), order.ID, "proof.jpg")
	require.NoError(t, err)

	require.NoError(t, f.orders.VerifyPayment(context.Background(), order.ID, "op1", true))

	fresh, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, fresh.Status)

	product, err := f.mem.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, product.Stock)

	proofs, err := f.mem.ListByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	require.NotNil(t, proofs[0].VerifiedAt)
	assert.Equal(t, "op1", proofs[0].VerifiedBy)

	require.Len(t, f.events.results, 1)
	assert.True(t, f.events.results[0].Approved)
}

func TestVerifyPaymentRejectedKeepsStock(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)
	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)
	_, err = f.orders.AttachPaymentProof(context.Background(), order.ID, "proof.jpg")
	require.NoError(t, err)

	require.NoError(t, f.orders.VerifyPayment(context.Background(), order.ID, "op1", false))

	fresh, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRejected, fresh.Status)

	product, err := f.mem.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, product.Stock)

	require.Len(t, f.events.results, 1)
	assert.False(t, f.events.results[0].Approved)
}

func TestVerifyPaymentTwiceFails(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)
	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)
	_, err = f.orders.AttachPaymentProof(context.Background(), order.ID, "proof.jpg")
	require.NoError(t, err)

	require.NoError(t, f.orders.VerifyPayment(context.Background(), order.ID, "op1", true))

	// Pas de re-vérification silencieuse : le stock ne bouge plus.
	err = f.orders.VerifyPayment(context.Background(), order.ID, "op1", true)
	assert.ErrorIs(t, err, shop.ErrInvalidState)

	product, err := f.mem.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, product.Stock)
}

func TestVerifyPaymentConcurrentApprovalsDecrementOnce(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)
	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)
	_, err = f.orders.AttachPaymentProof(context.Background(), order.ID, "proof.jpg")
	require.NoError(t, err)

	const workers = 16
	errs := make([]error, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = f.orders.VerifyPayment(context.Background(), order.ID, "op1", true)
		}(i)
	}
	close(start)
	wg.Wait()

	// Une seule décision l'emporte, le stock n'est décrémenté qu'une fois.
	succeeded := 0
	for _, e := range errs {
		if e == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	product, err := f.mem.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, product.Stock)

	fresh, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, fresh.Status)

	require.Len(t, f.events.results, 1)
}

func TestVerifyPaymentWithoutProof(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 5)
	cart := f.cartWith(t, p.ID)
	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)

	// Statut forcé sans preuve déposée.
	require.NoError(t, f.mem.UpdateOrderStatus(context.Background(), order.ID, models.OrderAwaitingVerification, time.Now()))

	err = f.orders.VerifyPayment(context.Background(), order.ID, "op1", true)
	assert.ErrorIs(t, err, shop.ErrNoUnverifiedProof)
}

func TestVerifyPaymentStaysApprovedOnStockShortfall(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 1)
	cart := f.cartWith(t, p.ID)
	order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
	require.NoError(t, err)
	_, err = f.orders.AttachPaymentProof(context.Background(), order.ID, "proof.jpg")
	require.NoError(t, err)

	// Le stock s'évapore entre la création et l'approbation.
	p.Stock = 0
	require.NoError(t, f.mem.UpdateProduct(context.Background(), p))

	require.NoError(t, f.orders.VerifyPayment(context.Background(), order.ID, "op1", true))

	fresh, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, fresh.Status)
}

func TestListPendingVerificationOldestFirst(t *testing.T) {
	f := newOrderFixture(t)
	p := f.seedProduct(t, "Chrono Acier", 250, 10)

	var ids []string
	for i := 0; i < 3; i++ {
		cart := f.cartWith(t, p.ID)
		order, err := f.orders.CreateOrder(context.Background(), "client1", checkoutForm, cart.Items())
		require.NoError(t, err)
		_, err = f.orders.AttachPaymentProof(context.Background(), order.ID, "proof.jpg")
		require.NoError(t, err)
		ids = append(ids, order.ID)
		time.Sleep(2 * time.Millisecond)
	}

	pending, err := f.orders.ListPendingVerification(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, o := range pending {
		assert.Equal(t, ids[i], o.ID)
	}
}
