package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"tempora_back_end/internal/models"
	"tempora_back_end/internal/shop"
)

// Nombre d'essais de la mise à jour conditionnelle du stock avant abandon.
const stockCASRetries = 5

// Scylla implémente les stores sur ScyllaDB. Les tables sont créées par
// scripts/scylladb_init.cql.
type Scylla struct {
	products *gocql.Session
	orders   *gocql.Session
	users    *gocql.Session
}

func NewScylla(products, orders, users *gocql.Session) *Scylla {
	return &Scylla{products: products, orders: orders, users: users}
}

// --- Produits ---

func (s *Scylla) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.products.Query(
		`SELECT product_id, name, description, price, stock, category_id, image_ref, is_active, created_at, updated_at
		 FROM products WHERE product_id = ?`, id).WithContext(ctx).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.ImageRef, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, shop.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit : %w", err)
	}
	return &p, nil
}

func (s *Scylla) ListByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	iter := s.products.Query(
		`SELECT product_id, name, description, price, stock, category_id, image_ref, is_active, created_at, updated_at
		 FROM products WHERE category_id = ? ALLOW FILTERING`, categoryID).WithContext(ctx).Iter()
	products, err := scanProducts(iter)
	if err != nil {
		return nil, err
	}
	return keepActive(products), nil
}

func (s *Scylla) ListActive(ctx context.Context) ([]models.Product, error) {
	iter := s.products.Query(
		`SELECT product_id, name, description, price, stock, category_id, image_ref, is_active, created_at, updated_at
		 FROM products`).WithContext(ctx).Iter()
	products, err := scanProducts(iter)
	if err != nil {
		return nil, err
	}
	return keepActive(products), nil
}

func (s *Scylla) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.products.Query(`SELECT COUNT(*) FROM products WHERE name = ? ALLOW FILTERING`, name).
		WithContext(ctx).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("recherche par nom : %w", err)
	}
	return count > 0, nil
}

func (s *Scylla) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.products.Query(
		`INSERT INTO products (product_id, name, description, price, stock, category_id, image_ref, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.ImageRef, p.IsActive, p.CreatedAt, p.UpdatedAt).
		WithContext(ctx).Exec()
}

func (s *Scylla) UpdateProduct(ctx context.Context, p *models.Product) error {
	return s.products.Query(
		`UPDATE products SET name = ?, description = ?, price = ?, stock = ?, category_id = ?, image_ref = ?, is_active = ?, updated_at = ?
		 WHERE product_id = ?`,
		p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.ImageRef, p.IsActive, p.UpdatedAt, p.ID).
		WithContext(ctx).Exec()
}

// DecrementStock utilise une mise à jour conditionnelle (IF stock = ?) :
// deux approbations concurrentes ne peuvent pas écraser la même lecture.
func (s *Scylla) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	for attempt := 0; attempt < stockCASRetries; attempt++ {
		var stock int
		err := s.products.Query(`SELECT stock FROM products WHERE product_id = ?`, productID).
			WithContext(ctx).Scan(&stock)
		if err == gocql.ErrNotFound {
			return false, shop.ErrNotFound
		}
		if err != nil {
			return false, fmt.Errorf("lecture stock : %w", err)
		}
		if stock < quantity {
			return false, nil
		}

		var current int
		applied, err := s.products.Query(
			`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
			stock-quantity, time.Now(), productID, stock).
			WithContext(ctx).ScanCAS(&current)
		if err != nil {
			return false, fmt.Errorf("décrément stock : %w", err)
		}
		if applied {
			return true, nil
		}
		// Quelqu'un est passé avant nous : relire et retenter.
	}
	return false, fmt.Errorf("décrément stock %s : trop de conflits concurrents", productID)
}

// --- Catégories ---

func (s *Scylla) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	err := s.products.Query(
		`SELECT category_id, name, description, created_at FROM categories WHERE category_id = ?`, id).
		WithContext(ctx).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err == gocql.ErrNotFound {
		return nil, shop.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture catégorie : %w", err)
	}
	return &c, nil
}

func (s *Scylla) ListCategories(ctx context.Context) ([]models.Category, error) {
	iter := s.products.Query(`SELECT category_id, name, description, created_at FROM categories`).
		WithContext(ctx).Iter()

	var out []models.Category
	var c models.Category
	for iter.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt) {
		out = append(out, c)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("liste catégories : %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Scylla) CreateCategory(ctx context.Context, c *models.Category) error {
	return s.products.Query(
		`INSERT INTO categories (category_id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.CreatedAt).WithContext(ctx).Exec()
}

// --- Utilisateurs ---

func (s *Scylla) GetUser(ctx context.Context, id string) (*models.AppUser, error) {
	var u models.AppUser
	err := s.users.Query(
		`SELECT user_id, username, first_name, last_name, is_admin, created_at, updated_at
		 FROM users WHERE user_id = ?`, id).WithContext(ctx).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, shop.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture utilisateur : %w", err)
	}
	return &u, nil
}

func (s *Scylla) UpsertUser(ctx context.Context, u *models.AppUser) error {
	now := time.Now()
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return s.users.Query(
		`INSERT INTO users (user_id, username, first_name, last_name, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.FirstName, u.LastName, u.IsAdmin, createdAt, now).
		WithContext(ctx).Exec()
}

func (s *Scylla) ListAdmins(ctx context.Context) ([]models.AppUser, error) {
	iter := s.users.Query(
		`SELECT user_id, username, first_name, last_name, is_admin, created_at, updated_at
		 FROM users WHERE is_admin = true ALLOW FILTERING`).WithContext(ctx).Iter()

	var out []models.AppUser
	var u models.AppUser
	for iter.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt) {
		out = append(out, u)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("liste opérateurs : %w", err)
	}
	return out, nil
}

// --- Commandes ---

func (s *Scylla) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := s.orders.Query(
		`INSERT INTO orders (order_id, customer_id, customer_name, customer_phone, delivery_address, total_amount, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, o.CustomerName, o.CustomerPhone, o.DeliveryAddress, o.TotalAmount, string(o.Status), o.CreatedAt, o.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("insertion commande : %w", err)
	}

	for i, item := range o.Items {
		if err := s.orders.Query(
			`INSERT INTO order_items (order_id, line_no, product_id, product_name, quantity, unit_price, total_price)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, i, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice).
			WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("insertion ligne commande : %w", err)
		}
	}
	return nil
}

func (s *Scylla) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	var status string
	err := s.orders.Query(
		`SELECT order_id, customer_id, customer_name, customer_phone, delivery_address, total_amount, status, created_at, updated_at
		 FROM orders WHERE order_id = ?`, id).WithContext(ctx).
		Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.CustomerPhone, &o.DeliveryAddress, &o.TotalAmount, &status, &o.CreatedAt, &o.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, shop.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande : %w", err)
	}
	o.Status = models.OrderStatus(status)

	items, err := s.orderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *Scylla) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, updatedAt time.Time) error {
	return s.orders.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`,
		string(status), updatedAt, id).WithContext(ctx).Exec()
}

// TransitionOrderStatus utilise une mise à jour conditionnelle (IF status = ?)
// pour qu'une seule des décisions concurrentes sur la même commande l'emporte.
func (s *Scylla) TransitionOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, updatedAt time.Time) (bool, error) {
	var current string
	applied, err := s.orders.Query(
		`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF status = ?`,
		string(to), updatedAt, id, string(from)).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		return false, fmt.Errorf("transition statut : %w", err)
	}
	return applied, nil
}

func (s *Scylla) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	iter := s.orders.Query(
		`SELECT order_id, customer_id, customer_name, customer_phone, delivery_address, total_amount, status, created_at, updated_at
		 FROM orders WHERE status = ? ALLOW FILTERING`, string(status)).WithContext(ctx).Iter()
	orders, err := s.scanOrders(ctx, iter)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

func (s *Scylla) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	iter := s.orders.Query(
		`SELECT order_id, customer_id, customer_name, customer_phone, delivery_address, total_amount, status, created_at, updated_at
		 FROM orders WHERE customer_id = ? ALLOW FILTERING`, customerID).WithContext(ctx).Iter()
	orders, err := s.scanOrders(ctx, iter)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (s *Scylla) ListSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	iter := s.orders.Query(
		`SELECT order_id, customer_id, customer_name, customer_phone, delivery_address, total_amount, status, created_at, updated_at
		 FROM orders WHERE created_at >= ? ALLOW FILTERING`, since).WithContext(ctx).Iter()
	orders, err := s.scanOrders(ctx, iter)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

func (s *Scylla) orderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	iter := s.orders.Query(
		`SELECT product_id, product_name, quantity, unit_price, total_price
		 FROM order_items WHERE order_id = ?`, orderID).WithContext(ctx).Iter()

	var items []models.OrderItem
	var it models.OrderItem
	for iter.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.TotalPrice) {
		items = append(items, it)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lignes de commande : %w", err)
	}
	return items, nil
}

func (s *Scylla) scanOrders(ctx context.Context, iter *gocql.Iter) ([]models.Order, error) {
	var out []models.Order
	var o models.Order
	var status string
	for iter.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.CustomerPhone, &o.DeliveryAddress, &o.TotalAmount, &status, &o.CreatedAt, &o.UpdatedAt) {
		o.Status = models.OrderStatus(status)
		out = append(out, o)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("liste commandes : %w", err)
	}

	for i := range out {
		items, err := s.orderItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// --- Preuves de paiement ---

func (s *Scylla) CreateProof(ctx context.Context, p *models.PaymentProof) error {
	return s.orders.Query(
		`INSERT INTO payment_proofs (proof_id, order_id, blob_ref, uploaded_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.OrderID, p.BlobRef, p.UploadedAt).WithContext(ctx).Exec()
}

func (s *Scylla) UnverifiedByOrder(ctx context.Context, orderID string) (*models.PaymentProof, error) {
	proofs, err := s.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for i := range proofs {
		if proofs[i].VerifiedAt == nil {
			return &proofs[i], nil
		}
	}
	return nil, shop.ErrNotFound
}

func (s *Scylla) ListByOrder(ctx context.Context, orderID string) ([]models.PaymentProof, error) {
	iter := s.orders.Query(
		`SELECT proof_id, order_id, blob_ref, uploaded_at, verified_at, verified_by
		 FROM payment_proofs WHERE order_id = ? ALLOW FILTERING`, orderID).WithContext(ctx).Iter()

	var out []models.PaymentProof
	for {
		var p models.PaymentProof
		var verifiedAt time.Time
		if !iter.Scan(&p.ID, &p.OrderID, &p.BlobRef, &p.UploadedAt, &verifiedAt, &p.VerifiedBy) {
			break
		}
		if !verifiedAt.IsZero() {
			t := verifiedAt
			p.VerifiedAt = &t
		}
		out = append(out, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("liste preuves : %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (s *Scylla) MarkVerified(ctx context.Context, proofID, operatorID string, verifiedAt time.Time) error {
	return s.orders.Query(
		`UPDATE payment_proofs SET verified_at = ?, verified_by = ? WHERE proof_id = ?`,
		verifiedAt, operatorID, proofID).WithContext(ctx).Exec()
}

func scanProducts(iter *gocql.Iter) ([]models.Product, error) {
	var out []models.Product
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.ImageRef, &p.IsActive, &p.CreatedAt, &p.UpdatedAt) {
		out = append(out, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("liste produits : %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func keepActive(products []models.Product) []models.Product {
	out := products[:0]
	for _, p := range products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}
