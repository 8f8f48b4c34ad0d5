package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tempora_back_end/internal/models"
	"tempora_back_end/internal/shop"
)

// Memory implémente tous les stores en mémoire, derrière un seul verrou.
// Utilisé par les tests et par le profil de développement (STORE_BACKEND=memory).
type Memory struct {
	mu         sync.RWMutex
	products   map[string]*models.Product
	categories map[string]*models.Category
	users      map[string]*models.AppUser
	orders     map[string]*models.Order
	proofs     map[string]*models.PaymentProof
}

func NewMemory() *Memory {
	return &Memory{
		products:   make(map[string]*models.Product),
		categories: make(map[string]*models.Category),
		users:      make(map[string]*models.AppUser),
		orders:     make(map[string]*models.Order),
		proofs:     make(map[string]*models.PaymentProof),
	}
}

// --- Produits ---

func (m *Memory) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, shop.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *Memory) ListByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Product
	for _, p := range m.products {
		if p.CategoryID == categoryID && p.IsActive {
			out = append(out, *cloneProduct(p))
		}
	}
	sortProductsByName(out)
	return out, nil
}

func (m *Memory) ListActive(ctx context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Product
	for _, p := range m.products {
		if p.IsActive {
			out = append(out, *cloneProduct(p))
		}
	}
	sortProductsByName(out)
	return out, nil
}

func (m *Memory) ExistsByName(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) CreateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[p.ID] = cloneProduct(p)
	return nil
}

func (m *Memory) UpdateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ID]; !ok {
		return shop.ErrNotFound
	}
	m.products[p.ID] = cloneProduct(p)
	return nil
}

// DecrementStock fait la lecture et l'écriture dans la même section critique :
// pas de mise à jour perdue entre approbations concurrentes.
func (m *Memory) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return false, shop.ErrNotFound
	}
	if p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	p.UpdatedAt = time.Now()
	return true, nil
}

// --- Catégories ---

func (m *Memory) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, shop.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *Memory) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) CreateCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *c
	m.categories[c.ID] = &clone
	return nil
}

// --- Utilisateurs ---

func (m *Memory) GetUser(ctx context.Context, id string) (*models.AppUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, shop.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *Memory) UpsertUser(ctx context.Context, u *models.AppUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *u
	now := time.Now()
	if existing, ok := m.users[u.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	m.users[u.ID] = &clone
	return nil
}

func (m *Memory) ListAdmins(ctx context.Context) ([]models.AppUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.AppUser
	for _, u := range m.users {
		if u.IsAdmin {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Commandes ---

func (m *Memory) CreateOrder(ctx context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, shop.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *Memory) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return shop.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	return nil
}

// TransitionOrderStatus fait la comparaison et l'écriture dans la même
// section critique : une seule des décisions concurrentes peut l'emporter.
func (m *Memory) TransitionOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, updatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return false, shop.ErrNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = updatedAt
	return true, nil
}

func (m *Memory) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Order
	for _, o := range m.orders {
		if o.Status == status {
			out = append(out, *cloneOrder(o))
		}
	}
	// Les plus anciennes d'abord : l'opérateur traite la file dans l'ordre.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Order
	for _, o := range m.orders {
		if !o.CreatedAt.Before(since) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- Preuves de paiement ---

func (m *Memory) CreateProof(ctx context.Context, p *models.PaymentProof) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.proofs[p.ID] = cloneProof(p)
	return nil
}

func (m *Memory) UnverifiedByOrder(ctx context.Context, orderID string) (*models.PaymentProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.proofs {
		if p.OrderID == orderID && p.VerifiedAt == nil {
			return cloneProof(p), nil
		}
	}
	return nil, shop.ErrNotFound
}

func (m *Memory) ListByOrder(ctx context.Context, orderID string) ([]models.PaymentProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.PaymentProof
	for _, p := range m.proofs {
		if p.OrderID == orderID {
			out = append(out, *cloneProof(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (m *Memory) MarkVerified(ctx context.Context, proofID, operatorID string, verifiedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.proofs[proofID]
	if !ok {
		return shop.ErrNotFound
	}
	p.VerifiedAt = &verifiedAt
	p.VerifiedBy = operatorID
	return nil
}

// --- Clones : jamais de pointeur interne partagé avec l'appelant ---

func cloneProduct(p *models.Product) *models.Product {
	clone := *p
	return &clone
}

func cloneOrder(o *models.Order) *models.Order {
	clone := *o
	clone.Items = make([]models.OrderItem, len(o.Items))
	copy(clone.Items, o.Items)
	return &clone
}

func cloneProof(p *models.PaymentProof) *models.PaymentProof {
	clone := *p
	if p.VerifiedAt != nil {
		t := *p.VerifiedAt
		clone.VerifiedAt = &t
	}
	return &clone
}

func sortProductsByName(products []models.Product) {
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
}
