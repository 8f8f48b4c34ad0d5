package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempora_back_end/internal/blob"
	"tempora_back_end/internal/middleware"
	"tempora_back_end/internal/models"
	"tempora_back_end/internal/shop"
	"tempora_back_end/internal/store"
)

type nopEvents struct{}

func (nopEvents) PublishProofUploaded(ctx context.Context, ev shop.ProofUploadedEvent)         {}
func (nopEvents) PublishVerificationResult(ctx context.Context, ev shop.VerificationResultEvent) {}

type apiFixture struct {
	mem    *store.Memory
	orders *shop.OrderService
	router *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("OPERATOR_API_SECRET", "s3cret")
	t.Setenv("JWT_SECRET", "test_secret")

	mem := store.NewMemory()
	oracle := shop.NewAdminOracle(mem, "op1")
	inventory := shop.NewInventoryAdjuster(mem)
	orders := shop.NewOrderService(mem, mem, mem, inventory, oracle, nopEvents{})

	h := &Handlers{
		Orders:     orders,
		Catalog:    shop.NewCatalogService(mem, mem),
		Stats:      shop.NewStatsService(mem),
		Products:   mem,
		Categories: mem,
		Users:      mem,
		Oracle:     oracle,
		Blobs:      blob.NewMemoryStore(),
	}

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/login", h.Login)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired(), middleware.RequireOperator)
	{
		authorized.GET("/orders/pending", h.ListPendingOrders)
		authorized.POST("/orders/:id/verify", h.VerifyOrder)
		authorized.POST("/products", h.CreateProduct)
		authorized.GET("/stats/daily", h.DailyStats)
	}

	return &apiFixture{mem: mem, orders: orders, router: router}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) login(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"operator_id": "op1",
		"secret":      "s3cret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (f *apiFixture) awaitingOrder(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	p := &models.Product{ID: uuid.NewString(), Name: "Chrono Acier", Price: 250, Stock: 5, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, f.mem.CreateProduct(ctx, p))

	order, err := f.orders.CreateOrder(ctx, "client1", shop.CheckoutForm{CustomerName: "Jean"}, []models.CartItem{
		{ProductID: p.ID, ProductName: p.Name, UnitPrice: 250, Quantity: 1},
	})
	require.NoError(t, err)
	_, err = f.orders.AttachPaymentProof(ctx, order.ID, "proof.jpg")
	require.NoError(t, err)
	return order.ID
}

func TestLoginRejectsBadSecret(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"operator_id": "op1", "secret": "faux"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsNonOperator(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"operator_id": "client1", "secret": "s3cret"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/orders/pending", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/orders/pending", "pas-un-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerificationFlow(t *testing.T) {
	f := newAPIFixture(t)
	orderID := f.awaitingOrder(t)
	token := f.login(t)

	w := f.do(t, http.MethodGet, "/api/orders/pending", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), orderID)

	w = f.do(t, http.MethodPost, "/api/orders/"+orderID+"/verify", token, gin.H{"approved": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PAID")

	// Une commande déjà tranchée renvoie un conflit.
	w = f.do(t, http.MethodPost, "/api/orders/"+orderID+"/verify", token, gin.H{"approved": false})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVerifyRequiresApprovedField(t *testing.T) {
	f := newAPIFixture(t)
	orderID := f.awaitingOrder(t)
	token := f.login(t)

	w := f.do(t, http.MethodPost, "/api/orders/"+orderID+"/verify", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProductValidation(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)

	w := f.do(t, http.MethodPost, "/api/products", token, gin.H{"name": "", "price": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/products", token, gin.H{"name": "Montre", "price": 10, "stock": 1, "category_id": "absente"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDailyStatsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)

	w := f.do(t, http.MethodGet, "/api/stats/daily", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order_count")
}
