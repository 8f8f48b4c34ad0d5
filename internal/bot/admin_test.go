package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempora_back_end/internal/models"
)

// awaitingOrder pousse une commande jusqu'à AWAITING_VERIFICATION via le
// parcours client.
func (f *botFixture) awaitingOrder(t *testing.T, productID string) string {
	t.Helper()
	ctx := context.Background()

	f.customer.Handle(ctx, text("client1", "/ajouter "+productID))
	f.customer.Handle(ctx, text("client1", "/commander"))
	f.customer.Handle(ctx, text("client1", "Jean Dupont"))
	f.customer.Handle(ctx, text("client1", "+33612345678"))
	f.customer.Handle(ctx, location("client1", 47.2, 6.0))

	orderID := f.sessions.Get("client1").pendingOrderID
	require.NotEmpty(t, orderID)

	require.NoError(t, f.blobs.Put(ctx, "chat-uploads/photo.jpg", []byte("photo"), "image/jpeg"))
	f.customer.Handle(ctx, image("client1", "chat-uploads/photo.jpg"))
	return orderID
}

func TestAdminAccessDenied(t *testing.T) {
	f := newBotFixture(t)

	f.admin.Handle(context.Background(), text("client1", "/attente"))

	assert.Contains(t, f.sender.lastText("client1"), "réservé aux opérateurs")
}

func TestAdminPendingQueueAndApproval(t *testing.T) {
	f := newBotFixture(t)
	_, product := f.seedCatalog(t, "Chrono Acier", 250, 5)
	orderID := f.awaitingOrder(t, product.ID)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/attente"))
	assert.Contains(t, f.sender.lastText("op1"), orderID)

	f.admin.Handle(ctx, text("op1", "/commande "+orderID))
	assert.True(t, f.sender.sawText("op1", "Jean Dupont"))
	// La preuve est renvoyée en image.
	require.NotEmpty(t, f.sender.images["op1"])

	f.admin.Handle(ctx, text("op1", "/approuver "+orderID))
	assert.Contains(t, f.sender.lastText("op1"), "approuvé")

	order, err := f.mem.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)

	fresh, err := f.mem.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.Stock)
}

func TestAdminRejection(t *testing.T) {
	f := newBotFixture(t)
	_, product := f.seedCatalog(t, "Chrono Acier", 250, 5)
	orderID := f.awaitingOrder(t, product.ID)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/rejeter "+orderID))

	order, err := f.mem.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRejected, order.Status)

	fresh, err := f.mem.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, fresh.Stock)
}

func TestAdminDecisionOnSettledOrder(t *testing.T) {
	f := newBotFixture(t)
	_, product := f.seedCatalog(t, "Chrono Acier", 250, 5)
	orderID := f.awaitingOrder(t, product.ID)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/approuver "+orderID))
	f.admin.Handle(ctx, text("op1", "/approuver "+orderID))

	assert.Contains(t, f.sender.lastText("op1"), "pas en attente")
}

func TestProductWizardRepromptsOnInvalidPrice(t *testing.T) {
	f := newBotFixture(t)
	f.seedCatalog(t, "Existant", 100, 1)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/produit_ajouter"))
	f.admin.Handle(ctx, text("op1", "Régulateur Or"))
	f.admin.Handle(ctx, text("op1", "Boîtier or rose 40mm"))

	f.admin.Handle(ctx, text("op1", "pas-un-prix"))
	assert.True(t, f.sender.sawText("op1", "prix invalide"))
	// L'invite du prix est répétée.
	assert.Contains(t, f.sender.lastText("op1"), "Prix")

	f.admin.Handle(ctx, text("op1", "1499,90"))
	assert.Contains(t, f.sender.lastText("op1"), "stock")
}

func TestProductWizardFullFlow(t *testing.T) {
	f := newBotFixture(t)
	category, _ := f.seedCatalog(t, "Existant", 100, 1)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/produit_ajouter"))
	f.admin.Handle(ctx, text("op1", "Régulateur Or"))
	f.admin.Handle(ctx, text("op1", "Boîtier or rose 40mm"))
	f.admin.Handle(ctx, text("op1", "1499.90"))
	f.admin.Handle(ctx, text("op1", "3"))
	f.admin.Handle(ctx, text("op1", category.ID))
	f.admin.Handle(ctx, text("op1", "passer"))

	assert.Contains(t, f.sender.lastText("op1"), "Régulateur Or créé")

	exists, err := f.mem.ExistsByName(ctx, "Régulateur Or")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProductWizardDuplicateName(t *testing.T) {
	f := newBotFixture(t)
	category, _ := f.seedCatalog(t, "Chrono Acier", 250, 5)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/produit_ajouter"))
	f.admin.Handle(ctx, text("op1", "Chrono Acier"))
	f.admin.Handle(ctx, text("op1", "doublon"))
	f.admin.Handle(ctx, text("op1", "100"))
	f.admin.Handle(ctx, text("op1", "1"))
	f.admin.Handle(ctx, text("op1", category.ID))
	f.admin.Handle(ctx, text("op1", "passer"))

	assert.Contains(t, f.sender.lastText("op1"), "existe déjà")
}

func TestWizardCancel(t *testing.T) {
	f := newBotFixture(t)
	f.seedCatalog(t, "Existant", 100, 1)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/produit_ajouter"))
	f.admin.Handle(ctx, text("op1", "/annuler"))
	assert.Contains(t, f.sender.lastText("op1"), "annulée")

	// Les commandes redeviennent disponibles.
	f.admin.Handle(ctx, text("op1", "/attente"))
	assert.Contains(t, f.sender.lastText("op1"), "Aucun paiement")
}

func TestWizardCancelThenCategoryWizard(t *testing.T) {
	f := newBotFixture(t)
	f.seedCatalog(t, "Existant", 100, 1)
	ctx := context.Background()

	// Assistant produit abandonné après l'étape du nom : le brouillon ne doit
	// pas contaminer l'assistant suivant.
	f.admin.Handle(ctx, text("op1", "/produit_ajouter"))
	f.admin.Handle(ctx, text("op1", "Régulateur Or"))
	f.admin.Handle(ctx, text("op1", "/annuler"))

	f.admin.Handle(ctx, text("op1", "/categorie_ajouter"))
	f.admin.Handle(ctx, text("op1", "Montres de poche"))
	f.admin.Handle(ctx, text("op1", "passer"))

	assert.Contains(t, f.sender.lastText("op1"), "Montres de poche créée")

	categories, err := f.mem.ListCategories(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Montres de poche")

	exists, err := f.mem.ExistsByName(ctx, "Régulateur Or")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWizardOverwrittenByNewStart(t *testing.T) {
	f := newBotFixture(t)
	f.seedCatalog(t, "Existant", 100, 1)
	ctx := context.Background()

	// Une commande start en plein assistant écrase l'assistant en cours au
	// lieu d'être consommée comme saisie d'étape.
	f.admin.Handle(ctx, text("op1", "/produit_ajouter"))
	f.admin.Handle(ctx, text("op1", "Régulateur Or"))
	f.admin.Handle(ctx, text("op1", "/categorie_ajouter"))
	assert.Contains(t, f.sender.lastText("op1"), "Nom de la catégorie")

	f.admin.Handle(ctx, text("op1", "Montres de poche"))
	f.admin.Handle(ctx, text("op1", "passer"))
	assert.Contains(t, f.sender.lastText("op1"), "Montres de poche créée")

	exists, err := f.mem.ExistsByName(ctx, "Régulateur Or")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCategoryWizard(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/categorie_ajouter"))
	f.admin.Handle(ctx, text("op1", "Montres de poche"))
	f.admin.Handle(ctx, text("op1", "passer"))

	assert.Contains(t, f.sender.lastText("op1"), "Montres de poche créée")

	categories, err := f.mem.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Empty(t, categories[0].Description)
}

func TestAdminStockUpdateAndSoftDelete(t *testing.T) {
	f := newBotFixture(t)
	_, product := f.seedCatalog(t, "Chrono Acier", 250, 5)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/stock "+product.ID+" 12"))
	fresh, err := f.mem.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, fresh.Stock)

	f.admin.Handle(ctx, text("op1", "/produit_supprimer "+product.ID))
	fresh, err = f.mem.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, fresh.IsActive)
}

func TestAdminSalesStats(t *testing.T) {
	f := newBotFixture(t)
	_, product := f.seedCatalog(t, "Chrono Acier", 250, 5)
	orderID := f.awaitingOrder(t, product.ID)
	ctx := context.Background()

	f.admin.Handle(ctx, text("op1", "/approuver "+orderID))
	f.admin.Handle(ctx, text("op1", "/stats_jour"))
	assert.Contains(t, f.sender.lastText("op1"), "250.00")

	f.admin.Handle(ctx, text("op1", "/top"))
	assert.Contains(t, f.sender.lastText("op1"), "Chrono Acier")
}
