package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tempora_back_end/internal/blob"
	"tempora_back_end/internal/chat"
	"tempora_back_end/internal/models"
	"tempora_back_end/internal/session"
	"tempora_back_end/internal/shop"
	"tempora_back_end/internal/store"
)

// fakeSender enregistre les messages sortants par destinataire.
type fakeSender struct {
	mu     sync.Mutex
	texts  map[string][]string
	images map[string][]string
}

func newFakeSender() *fakeSender {
	return &fakeSender{texts: make(map[string][]string), images: make(map[string][]string)}
}

func (s *fakeSender) SendText(ctx context.Context, userID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[userID] = append(s.texts[userID], text)
	return nil
}

func (s *fakeSender) SendImage(ctx context.Context, userID, blobRef, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[userID] = append(s.images[userID], blobRef)
	return nil
}

func (s *fakeSender) lastText(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.texts[userID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func (s *fakeSender) sawText(userID, fragment string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.texts[userID] {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

type nopEvents struct{}

func (nopEvents) PublishProofUploaded(ctx context.Context, ev shop.ProofUploadedEvent)         {}
func (nopEvents) PublishVerificationResult(ctx context.Context, ev shop.VerificationResultEvent) {}

// botFixture câble les deux bots sur les mêmes stores en mémoire.
type botFixture struct {
	mem      *store.Memory
	blobs    *blob.MemoryStore
	sender   *fakeSender
	orders   *shop.OrderService
	carts    *shop.CartService
	customer *CustomerBot
	admin    *AdminBot
	sessions *session.Store[CustomerSession]
	adminSns *session.Store[AdminSession]
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	mem := store.NewMemory()
	blobs := blob.NewMemoryStore()
	sender := newFakeSender()

	oracle := shop.NewAdminOracle(mem, "op1")
	carts := shop.NewCartService(mem)
	inventory := shop.NewInventoryAdjuster(mem)
	orders := shop.NewOrderService(mem, mem, mem, inventory, oracle, nopEvents{})
	catalog := shop.NewCatalogService(mem, mem)
	stats := shop.NewStatsService(mem)

	customerSessions := session.NewStore(NewCustomerSession, time.Minute)
	adminSessions := session.NewStore(NewAdminSession, time.Minute)

	merchant := Merchant{Name: "Tempora", PaymentDetails: "FR76 0000 1111 2222"}

	return &botFixture{
		mem:      mem,
		blobs:    blobs,
		sender:   sender,
		orders:   orders,
		carts:    carts,
		sessions: customerSessions,
		adminSns: adminSessions,
		customer: NewCustomerBot(sender, blobs, mem, mem, carts, orders, oracle, customerSessions, merchant),
		admin:    NewAdminBot(sender, mem, catalog, orders, stats, oracle, adminSessions),
	}
}

func (f *botFixture) seedCatalog(t *testing.T, name string, price float64, stock int) (*models.Category, *models.Product) {
	t.Helper()
	now := time.Now()
	category := &models.Category{ID: uuid.NewString(), Name: "Montres", CreatedAt: now}
	require.NoError(t, f.mem.CreateCategory(context.Background(), category))

	product := &models.Product{
		ID:         uuid.NewString(),
		Name:       name,
		Price:      price,
		Stock:      stock,
		CategoryID: category.ID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.mem.CreateProduct(context.Background(), product))
	return category, product
}

func text(userID, msg string) chat.Inbound {
	return chat.Inbound{UserID: userID, Kind: chat.KindText, Text: msg, FirstName: "Jean"}
}

func image(userID, blobRef string) chat.Inbound {
	return chat.Inbound{UserID: userID, Kind: chat.KindImage, BlobRef: blobRef}
}

func location(userID string, lat, lon float64) chat.Inbound {
	return chat.Inbound{UserID: userID, Kind: chat.KindLocation, Latitude: lat, Longitude: lon}
}
