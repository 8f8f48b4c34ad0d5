package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"tempora_back_end/internal/chat"
	"tempora_back_end/internal/models"
	"tempora_back_end/internal/session"
	"tempora_back_end/internal/shop"
)

type wizardKind int

const (
	wizardNone wizardKind = iota
	wizardProduct
	wizardCategory
)

// AdminSession est l'état conversationnel d'un opérateur : l'assistant de
// saisie en cours, s'il y en a un.
type AdminSession struct {
	wizard        *Form
	kind          wizardKind
	productDraft  shop.ProductDraft
	categoryDraft shop.CategoryDraft
}

func NewAdminSession() *AdminSession {
	return &AdminSession{}
}

// resetWizard abandonne l'assistant en cours, brouillons compris : un
// brouillon à moitié rempli ne doit jamais survivre à une annulation.
func (s *AdminSession) resetWizard() {
	s.wizard = nil
	s.kind = wizardNone
	s.productDraft = shop.ProductDraft{}
	s.categoryDraft = shop.CategoryDraft{}
}

// AdminBot est la surface de chat opérateur : file de vérification des
// paiements, assistants de saisie catalogue et statistiques de vente.
type AdminBot struct {
	sender     chat.Sender
	categories shop.CategoryStore
	catalog    *shop.CatalogService
	orders     *shop.OrderService
	stats      *shop.StatsService
	oracle     *shop.AdminOracle
	sessions   *session.Store[AdminSession]
}

func NewAdminBot(sender chat.Sender, categories shop.CategoryStore, catalog *shop.CatalogService,
	orders *shop.OrderService, stats *shop.StatsService, oracle *shop.AdminOracle,
	sessions *session.Store[AdminSession]) *AdminBot {
	return &AdminBot{
		sender:     sender,
		categories: categories,
		catalog:    catalog,
		orders:     orders,
		stats:      stats,
		oracle:     oracle,
		sessions:   sessions,
	}
}

func (b *AdminBot) Handle(ctx context.Context, in chat.Inbound) {
	if err := b.oracle.RegisterUser(ctx, in.UserID, in.Username, in.FirstName, in.LastName); err != nil {
		log.Printf("⚠️ Enregistrement utilisateur %s : %v", in.UserID, err)
	}

	if !b.oracle.IsPrivileged(ctx, in.UserID) {
		b.reply(ctx, in.UserID, "⛔ Accès réservé aux opérateurs.")
		return
	}

	sess := b.sessions.Get(in.UserID)

	// Un assistant en cours capte la saisie, sauf /annuler et les commandes
	// start qui l'écrasent.
	if sess.wizard != nil {
		if in.Kind == chat.KindText {
			switch cmd, _ := splitCommand(in.Text); cmd {
			case "/annuler":
				sess.resetWizard()
				b.reply(ctx, in.UserID, "Saisie annulée.")
				return
			case "/produit_ajouter":
				sess.resetWizard()
				b.startProductWizard(ctx, in.UserID, sess)
				return
			case "/categorie_ajouter":
				sess.resetWizard()
				b.startCategoryWizard(ctx, in.UserID, sess)
				return
			}
		}
		b.advanceWizard(ctx, in, sess)
		return
	}

	if in.Kind != chat.KindText {
		b.reply(ctx, in.UserID, "Je n'attends pas ce type de message. Tapez /aide pour les commandes opérateur.")
		return
	}

	cmd, arg := splitCommand(in.Text)
	switch cmd {
	case "/start", "/aide":
		b.reply(ctx, in.UserID, adminHelp)
	case "/attente":
		b.listPending(ctx, in.UserID)
	case "/commande":
		b.showOrder(ctx, in.UserID, arg)
	case "/approuver":
		b.decide(ctx, in.UserID, arg, true)
	case "/rejeter":
		b.decide(ctx, in.UserID, arg, false)
	case "/stats_jour":
		b.sendStats(ctx, in.UserID, b.stats.DailySales)
	case "/stats_semaine":
		b.sendStats(ctx, in.UserID, b.stats.WeeklySales)
	case "/stats_mois":
		b.sendStats(ctx, in.UserID, b.stats.MonthlySales)
	case "/top":
		b.sendTopProducts(ctx, in.UserID)
	case "/produit_ajouter":
		b.startProductWizard(ctx, in.UserID, sess)
	case "/categorie_ajouter":
		b.startCategoryWizard(ctx, in.UserID, sess)
	case "/produit_supprimer":
		b.deactivateProduct(ctx, in.UserID, arg)
	case "/stock":
		b.updateStock(ctx, in.UserID, arg)
	default:
		b.reply(ctx, in.UserID, "Commande inconnue. Tapez /aide pour les commandes opérateur.")
	}
}

const adminHelp = `Commandes opérateur :
/attente — paiements à vérifier
/commande <id> — détail d'une commande et sa preuve
/approuver <id> — valider le paiement
/rejeter <id> — refuser le paiement
/produit_ajouter — assistant nouveau produit
/categorie_ajouter — assistant nouvelle catégorie
/produit_supprimer <id> — retirer un produit de la vente
/stock <id> <quantité> — corriger un stock
/stats_jour /stats_semaine /stats_mois — chiffre d'affaires
/top — meilleurs vendeurs (30 jours)
/annuler — abandonner la saisie en cours`

func (b *AdminBot) listPending(ctx context.Context, userID string) {
	orders, err := b.orders.ListPendingVerification(ctx)
	if err != nil {
		b.reply(ctx, userID, "❌ File de vérification indisponible.")
		return
	}
	if len(orders) == 0 {
		b.reply(ctx, userID, "✅ Aucun paiement en attente de vérification.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⏳ %d paiement(s) à vérifier :\n", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&sb, "• %s — %s — %.2f € — /commande %s\n", o.ID, o.CustomerName, o.TotalAmount, o.ID)
	}
	b.reply(ctx, userID, sb.String())
}

func (b *AdminBot) showOrder(ctx context.Context, userID, orderID string) {
	if orderID == "" {
		b.reply(ctx, userID, "Usage : /commande <id>")
		return
	}
	order, hasProof, err := b.orders.OrderDetails(ctx, orderID)
	if err != nil {
		b.reply(ctx, userID, "Commande introuvable.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 Commande %s — %s\n", order.ID, statusLabel(order.Status))
	fmt.Fprintf(&sb, "Client : %s (%s)\nLivraison : %s\n\n", order.CustomerName, order.CustomerPhone, order.DeliveryAddress)
	for _, it := range order.Items {
		fmt.Fprintf(&sb, "• %s x%d — %.2f €\n", it.ProductName, it.Quantity, it.TotalPrice)
	}
	fmt.Fprintf(&sb, "\nTotal : %.2f €", order.TotalAmount)
	if order.Status == models.OrderAwaitingVerification {
		fmt.Fprintf(&sb, "\n\n/approuver %s ou /rejeter %s", order.ID, order.ID)
	}
	b.reply(ctx, userID, sb.String())

	if !hasProof {
		return
	}
	ref, err := b.orders.ProofBlobRef(ctx, orderID)
	if err != nil {
		log.Printf("⚠️ Preuve de la commande %s : %v", orderID, err)
		return
	}
	if err := b.sender.SendImage(ctx, userID, ref, "Preuve de paiement reçue"); err != nil {
		log.Printf("⚠️ Envoi preuve %s vers %s : %v", orderID, userID, err)
	}
}

func (b *AdminBot) decide(ctx context.Context, userID, orderID string, approved bool) {
	if orderID == "" {
		b.reply(ctx, userID, "Usage : /approuver <id> ou /rejeter <id>")
		return
	}

	err := b.orders.VerifyPayment(ctx, orderID, userID, approved)
	switch {
	case errors.Is(err, shop.ErrNotFound):
		b.reply(ctx, userID, "Commande introuvable.")
	case errors.Is(err, shop.ErrInvalidState):
		b.reply(ctx, userID, "⚠️ Cette commande n'est pas en attente de vérification.")
	case errors.Is(err, shop.ErrNoUnverifiedProof):
		b.reply(ctx, userID, "⚠️ Aucune preuve de paiement à vérifier sur cette commande.")
	case errors.Is(err, shop.ErrUnauthorized):
		b.reply(ctx, userID, "⛔ Accès réservé aux opérateurs.")
	case err != nil:
		b.reply(ctx, userID, "❌ Décision non appliquée, réessayez.")
	case approved:
		b.reply(ctx, userID, fmt.Sprintf("✅ Paiement de la commande %s approuvé, stock mis à jour.", orderID))
	default:
		b.reply(ctx, userID, fmt.Sprintf("❌ Paiement de la commande %s rejeté.", orderID))
	}
}

func (b *AdminBot) sendStats(ctx context.Context, userID string, fetch func(context.Context) (shop.SalesStats, error)) {
	stats, err := fetch(ctx)
	if err != nil {
		b.reply(ctx, userID, "❌ Statistiques indisponibles.")
		return
	}
	b.reply(ctx, userID, fmt.Sprintf("📊 %s : %d commande(s) payée(s), %.2f € de chiffre d'affaires.",
		stats.Period, stats.OrderCount, stats.TotalRevenue))
}

func (b *AdminBot) sendTopProducts(ctx context.Context, userID string) {
	top, err := b.stats.TopProducts(ctx, 30, 5)
	if err != nil {
		b.reply(ctx, userID, "❌ Statistiques indisponibles.")
		return
	}
	if len(top) == 0 {
		b.reply(ctx, userID, "Aucune vente sur les 30 derniers jours.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 Meilleurs vendeurs (30 jours) :\n")
	for i, ps := range top {
		fmt.Fprintf(&sb, "%d. %s — %d vendu(s)\n", i+1, ps.ProductName, ps.TotalSold)
	}
	b.reply(ctx, userID, sb.String())
}

// startProductWizard ouvre l'assistant nom → description → prix → stock →
// catégorie → photo. Chaque valeur invalide répète l'étape sans avancer.
func (b *AdminBot) startProductWizard(ctx context.Context, userID string, sess *AdminSession) {
	categories, err := b.categories.ListCategories(ctx)
	if err != nil || len(categories) == 0 {
		b.reply(ctx, userID, "⚠️ Créez d'abord une catégorie avec /categorie_ajouter.")
		return
	}

	var catPrompt strings.Builder
	catPrompt.WriteString("📂 Envoyez l'identifiant de la catégorie :\n")
	valid := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		fmt.Fprintf(&catPrompt, "• %s — %s\n", c.ID, c.Name)
		valid[c.ID] = struct{}{}
	}

	sess.productDraft = shop.ProductDraft{}
	sess.kind = wizardProduct
	sess.wizard = NewForm(
		Step{
			Prompt: "📝 Nom du produit ?",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				if in.Kind != chat.KindText || strings.TrimSpace(in.Text) == "" {
					return errors.New("envoyez le nom en texte")
				}
				sess.productDraft.Name = strings.TrimSpace(in.Text)
				return nil
			},
		},
		Step{
			Prompt: "📝 Description du produit ?",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				if in.Kind != chat.KindText {
					return errors.New("envoyez la description en texte")
				}
				sess.productDraft.Description = strings.TrimSpace(in.Text)
				return nil
			},
		},
		Step{
			Prompt: "💰 Prix en euros (ex : 249.90) ?",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				if in.Kind != chat.KindText {
					return errors.New("envoyez le prix en texte")
				}
				price, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(in.Text), ",", "."), 64)
				if err != nil || price <= 0 {
					return errors.New("prix invalide, envoyez un nombre positif")
				}
				sess.productDraft.Price = price
				return nil
			},
		},
		Step{
			Prompt: "📦 Quantité en stock ?",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				if in.Kind != chat.KindText {
					return errors.New("envoyez le stock en texte")
				}
				stock, err := strconv.Atoi(strings.TrimSpace(in.Text))
				if err != nil || stock < 0 {
					return errors.New("stock invalide, envoyez un entier positif ou nul")
				}
				sess.productDraft.Stock = stock
				return nil
			},
		},
		Step{
			Prompt: catPrompt.String(),
			Handle: func(ctx context.Context, in chat.Inbound) error {
				if in.Kind != chat.KindText {
					return errors.New("envoyez l'identifiant en texte")
				}
				id := strings.TrimSpace(in.Text)
				if _, ok := valid[id]; !ok {
					return errors.New("catégorie inconnue, reprenez un identifiant de la liste")
				}
				sess.productDraft.CategoryID = id
				return nil
			},
		},
		Step{
			Prompt: "📸 Envoyez une photo du produit, ou « passer ».",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				switch {
				case in.Kind == chat.KindImage:
					sess.productDraft.ImageRef = in.BlobRef
				case in.Kind == chat.KindText && strings.EqualFold(strings.TrimSpace(in.Text), "passer"):
					sess.productDraft.ImageRef = ""
				default:
					return errors.New("envoyez une photo ou « passer »")
				}
				return nil
			},
		},
	)
	b.reply(ctx, userID, sess.wizard.Prompt())
}

func (b *AdminBot) startCategoryWizard(ctx context.Context, userID string, sess *AdminSession) {
	sess.categoryDraft = shop.CategoryDraft{}
	sess.kind = wizardCategory
	sess.wizard = NewForm(
		Step{
			Prompt: "📝 Nom de la catégorie ?",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				if in.Kind != chat.KindText || strings.TrimSpace(in.Text) == "" {
					return errors.New("envoyez le nom en texte")
				}
				sess.categoryDraft.Name = strings.TrimSpace(in.Text)
				return nil
			},
		},
		Step{
			Prompt: "📝 Description de la catégorie, ou « passer ».",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				if in.Kind != chat.KindText {
					return errors.New("envoyez la description en texte ou « passer »")
				}
				text := strings.TrimSpace(in.Text)
				if strings.EqualFold(text, "passer") {
					text = ""
				}
				sess.categoryDraft.Description = text
				return nil
			},
		},
	)
	b.reply(ctx, userID, sess.wizard.Prompt())
}

func (b *AdminBot) advanceWizard(ctx context.Context, in chat.Inbound, sess *AdminSession) {
	done, err := sess.wizard.Submit(ctx, in)
	if err != nil {
		b.reply(ctx, in.UserID, "⚠️ "+err.Error())
		b.reply(ctx, in.UserID, sess.wizard.Prompt())
		return
	}
	if !done {
		b.reply(ctx, in.UserID, sess.wizard.Prompt())
		return
	}

	kind := sess.kind
	sess.wizard = nil
	sess.kind = wizardNone
	if kind == wizardProduct {
		b.finishProductWizard(ctx, in.UserID, sess)
		return
	}
	b.finishCategoryWizard(ctx, in.UserID, sess)
}

func (b *AdminBot) finishProductWizard(ctx context.Context, userID string, sess *AdminSession) {
	draft := sess.productDraft
	sess.productDraft = shop.ProductDraft{}

	product, err := b.catalog.CreateProduct(ctx, draft)
	if err != nil {
		if errors.Is(err, shop.ErrValidation) || errors.Is(err, shop.ErrNotFound) {
			b.reply(ctx, userID, "⚠️ "+err.Error())
			return
		}
		b.reply(ctx, userID, "❌ Produit non créé, réessayez.")
		return
	}
	b.reply(ctx, userID, fmt.Sprintf("✅ Produit %s créé (%.2f €, %d en stock).", product.Name, product.Price, product.Stock))
}

func (b *AdminBot) finishCategoryWizard(ctx context.Context, userID string, sess *AdminSession) {
	draft := sess.categoryDraft
	sess.categoryDraft = shop.CategoryDraft{}

	category, err := b.catalog.CreateCategory(ctx, draft)
	if err != nil {
		if errors.Is(err, shop.ErrValidation) {
			b.reply(ctx, userID, "⚠️ "+err.Error())
			return
		}
		b.reply(ctx, userID, "❌ Catégorie non créée, réessayez.")
		return
	}
	b.reply(ctx, userID, fmt.Sprintf("✅ Catégorie %s créée (id %s).", category.Name, category.ID))
}

func (b *AdminBot) deactivateProduct(ctx context.Context, userID, productID string) {
	if productID == "" {
		b.reply(ctx, userID, "Usage : /produit_supprimer <id>")
		return
	}
	if err := b.catalog.DeactivateProduct(ctx, productID); err != nil {
		b.reply(ctx, userID, "Produit introuvable.")
		return
	}
	b.reply(ctx, userID, "✅ Produit retiré de la vente (les commandes passées sont conservées).")
}

func (b *AdminBot) updateStock(ctx context.Context, userID, arg string) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		b.reply(ctx, userID, "Usage : /stock <id> <quantité>")
		return
	}
	qty, err := strconv.Atoi(fields[1])
	if err != nil {
		b.reply(ctx, userID, "Quantité invalide.")
		return
	}

	if err := b.catalog.UpdateStock(ctx, fields[0], qty); err != nil {
		switch {
		case errors.Is(err, shop.ErrValidation):
			b.reply(ctx, userID, "⚠️ "+err.Error())
		case errors.Is(err, shop.ErrNotFound):
			b.reply(ctx, userID, "Produit introuvable.")
		default:
			b.reply(ctx, userID, "❌ Stock non mis à jour, réessayez.")
		}
		return
	}
	b.reply(ctx, userID, fmt.Sprintf("✅ Stock mis à jour : %d unité(s).", qty))
}

func (b *AdminBot) reply(ctx context.Context, userID, text string) {
	if err := b.sender.SendText(ctx, userID, text); err != nil {
		log.Printf("⚠️ Envoi vers %s : %v", userID, err)
	}
}
