package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"tempora_back_end/internal/blob"
	"tempora_back_end/internal/chat"
	"tempora_back_end/internal/models"
	"tempora_back_end/internal/session"
	"tempora_back_end/internal/shop"
)

// Merchant porte les coordonnées de paiement affichées après la commande.
type Merchant struct {
	Name           string
	PaymentDetails string
}

// CustomerSession est l'état conversationnel d'un client : son panier, le
// formulaire de commande en cours et l'attente éventuelle d'une preuve de
// paiement.
type CustomerSession struct {
	Cart *shop.Cart

	checkout *Form
	form     shop.CheckoutForm

	awaitingProof  bool
	pendingOrderID string
}

func NewCustomerSession() *CustomerSession {
	return &CustomerSession{Cart: shop.NewCart()}
}

// CustomerBot est la surface de chat cliente : navigation catalogue, panier,
// parcours de commande et dépôt de preuve de paiement.
type CustomerBot struct {
	sender     chat.Sender
	blobs      blob.Store
	products   shop.ProductStore
	categories shop.CategoryStore
	carts      *shop.CartService
	orders     *shop.OrderService
	oracle     *shop.AdminOracle
	sessions   *session.Store[CustomerSession]
	merchant   Merchant
}

func NewCustomerBot(sender chat.Sender, blobs blob.Store, products shop.ProductStore,
	categories shop.CategoryStore, carts *shop.CartService, orders *shop.OrderService,
	oracle *shop.AdminOracle, sessions *session.Store[CustomerSession], merchant Merchant) *CustomerBot {
	return &CustomerBot{
		sender:     sender,
		blobs:      blobs,
		products:   products,
		categories: categories,
		carts:      carts,
		orders:     orders,
		oracle:     oracle,
		sessions:   sessions,
		merchant:   merchant,
	}
}

func (b *CustomerBot) Handle(ctx context.Context, in chat.Inbound) {
	if err := b.oracle.RegisterUser(ctx, in.UserID, in.Username, in.FirstName, in.LastName); err != nil {
		log.Printf("⚠️ Enregistrement utilisateur %s : %v", in.UserID, err)
	}

	sess := b.sessions.Get(in.UserID)

	// Un formulaire de commande en cours capte tous les événements.
	if sess.checkout != nil {
		b.advanceCheckout(ctx, in, sess)
		return
	}

	if in.Kind == chat.KindImage {
		b.handlePhoto(ctx, in, sess)
		return
	}
	if in.Kind != chat.KindText {
		b.reply(ctx, in.UserID, "Je n'attends pas ce type de message. Tapez /aide pour les commandes disponibles.")
		return
	}

	cmd, arg := splitCommand(in.Text)
	switch cmd {
	case "/start":
		b.reply(ctx, in.UserID, fmt.Sprintf("Bienvenue chez %s ! ⌚\nTapez /produits pour parcourir le catalogue ou /aide pour la liste des commandes.", b.merchant.Name))
	case "/aide":
		b.reply(ctx, in.UserID, customerHelp)
	case "/produits":
		b.listCategories(ctx, in.UserID)
	case "/categorie":
		b.listProducts(ctx, in.UserID, arg)
	case "/produit":
		b.showProduct(ctx, in.UserID, arg)
	case "/ajouter":
		b.addToCart(ctx, in.UserID, arg, sess)
	case "/retirer":
		b.carts.Remove(sess.Cart, arg)
		b.reply(ctx, in.UserID, "Article retiré du panier.")
	case "/panier":
		b.showCart(ctx, in.UserID, sess)
	case "/commander":
		b.startCheckout(ctx, in, sess)
	case "/commandes":
		b.listOrders(ctx, in.UserID)
	default:
		b.reply(ctx, in.UserID, "Commande inconnue. Tapez /aide pour la liste des commandes.")
	}
}

const customerHelp = `Commandes disponibles :
/produits — catégories du catalogue
/categorie <id> — produits d'une catégorie
/produit <id> — fiche produit
/ajouter <id> — ajouter une unité au panier
/retirer <id> — retirer un article du panier
/panier — contenu du panier
/commander — passer la commande
/commandes — vos commandes passées`

func (b *CustomerBot) listCategories(ctx context.Context, userID string) {
	categories, err := b.categories.ListCategories(ctx)
	if err != nil {
		b.reply(ctx, userID, "❌ Catalogue indisponible, réessayez plus tard.")
		return
	}
	if len(categories) == 0 {
		b.reply(ctx, userID, "Le catalogue est vide pour le moment.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📂 Catégories :\n")
	for _, c := range categories {
		fmt.Fprintf(&sb, "• %s — /categorie %s\n", c.Name, c.ID)
	}
	b.reply(ctx, userID, sb.String())
}

func (b *CustomerBot) listProducts(ctx context.Context, userID, categoryID string) {
	if categoryID == "" {
		b.reply(ctx, userID, "Usage : /categorie <id>")
		return
	}
	products, err := b.products.ListByCategory(ctx, categoryID)
	if err != nil {
		b.reply(ctx, userID, "❌ Catalogue indisponible, réessayez plus tard.")
		return
	}

	var sb strings.Builder
	sb.WriteString("⌚ Produits :\n")
	shown := 0
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		fmt.Fprintf(&sb, "• %s — %.2f € — /produit %s\n", p.Name, p.Price, p.ID)
		shown++
	}
	if shown == 0 {
		b.reply(ctx, userID, "Aucun produit dans cette catégorie.")
		return
	}
	b.reply(ctx, userID, sb.String())
}

func (b *CustomerBot) showProduct(ctx context.Context, userID, productID string) {
	if productID == "" {
		b.reply(ctx, userID, "Usage : /produit <id>")
		return
	}
	product, err := b.products.GetProduct(ctx, productID)
	if err != nil || !product.IsActive {
		b.reply(ctx, userID, "Produit introuvable.")
		return
	}

	text := fmt.Sprintf("⌚ %s\n%s\nPrix : %.2f €\nEn stock : %d\n\nAjouter au panier : /ajouter %s",
		product.Name, product.Description, product.Price, product.Stock, product.ID)
	if product.ImageRef != "" {
		if err := b.sender.SendImage(ctx, userID, product.ImageRef, text); err == nil {
			return
		}
	}
	b.reply(ctx, userID, text)
}

func (b *CustomerBot) addToCart(ctx context.Context, userID, productID string, sess *CustomerSession) {
	if productID == "" {
		b.reply(ctx, userID, "Usage : /ajouter <id>")
		return
	}
	item, err := b.carts.Add(ctx, sess.Cart, productID)
	switch {
	case errors.Is(err, shop.ErrStockLimitReached):
		b.reply(ctx, userID, fmt.Sprintf("⚠️ Stock maximum atteint pour %s (%d en panier).", item.ProductName, item.Quantity))
	case errors.Is(err, shop.ErrProductUnavailable):
		b.reply(ctx, userID, "Ce produit n'est plus disponible.")
	case err != nil:
		b.reply(ctx, userID, "❌ Impossible d'ajouter ce produit, réessayez plus tard.")
	default:
		b.reply(ctx, userID, fmt.Sprintf("✅ %s ajouté (x%d). Voir le panier : /panier", item.ProductName, item.Quantity))
	}
}

func (b *CustomerBot) showCart(ctx context.Context, userID string, sess *CustomerSession) {
	if sess.Cart.IsEmpty() {
		b.reply(ctx, userID, "Votre panier est vide. Parcourez le catalogue avec /produits.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🛒 Votre panier :\n")
	for _, it := range sess.Cart.Items() {
		fmt.Fprintf(&sb, "• %s x%d — %.2f €\n", it.ProductName, it.Quantity, it.Subtotal())
	}
	fmt.Fprintf(&sb, "\nTotal : %.2f €\nPasser commande : /commander", sess.Cart.Total())
	b.reply(ctx, userID, sb.String())
}

func (b *CustomerBot) listOrders(ctx context.Context, userID string) {
	orders, err := b.orders.OrdersByCustomer(ctx, userID)
	if err != nil {
		b.reply(ctx, userID, "❌ Historique indisponible, réessayez plus tard.")
		return
	}
	if len(orders) == 0 {
		b.reply(ctx, userID, "Vous n'avez pas encore de commande.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📦 Vos commandes :\n")
	for _, o := range orders {
		fmt.Fprintf(&sb, "• %s — %.2f € — %s — %s\n",
			o.ID, o.TotalAmount, statusLabel(o.Status), o.CreatedAt.Format("02/01/2006"))
	}
	b.reply(ctx, userID, sb.String())
}

// startCheckout ouvre le formulaire nom → téléphone → adresse de livraison.
// Le panier est vérifié avant d'entamer la saisie, pas seulement à la fin.
func (b *CustomerBot) startCheckout(ctx context.Context, in chat.Inbound, sess *CustomerSession) {
	if sess.Cart.IsEmpty() {
		b.reply(ctx, in.UserID, "Votre panier est vide, rien à commander.")
		return
	}

	sess.form = shop.CheckoutForm{}
	sess.checkout = NewForm(
		Step{
			Prompt: "📝 À quel nom livrons-nous la commande ?",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				if in.Kind != chat.KindText || strings.TrimSpace(in.Text) == "" {
					return errors.New("envoyez votre nom en texte")
				}
				sess.form.CustomerName = strings.TrimSpace(in.Text)
				return nil
			},
		},
		Step{
			Prompt: "📞 Quel est votre numéro de téléphone ?",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				if in.Kind != chat.KindText || strings.TrimSpace(in.Text) == "" {
					return errors.New("envoyez votre numéro en texte")
				}
				sess.form.CustomerPhone = strings.TrimSpace(in.Text)
				return nil
			},
		},
		Step{
			Prompt: "📍 Envoyez votre position ou tapez l'adresse de livraison.",
			Handle: func(ctx context.Context, in chat.Inbound) error {
				switch in.Kind {
				case chat.KindLocation:
					sess.form.DeliveryAddress = fmt.Sprintf("lat: %.6f, lon: %.6f", in.Latitude, in.Longitude)
				case chat.KindText:
					if strings.TrimSpace(in.Text) == "" {
						return errors.New("envoyez une position ou une adresse")
					}
					sess.form.DeliveryAddress = strings.TrimSpace(in.Text)
				default:
					return errors.New("envoyez une position ou une adresse")
				}
				return nil
			},
		},
	)
	b.reply(ctx, in.UserID, sess.checkout.Prompt())
}

func (b *CustomerBot) advanceCheckout(ctx context.Context, in chat.Inbound, sess *CustomerSession) {
	done, err := sess.checkout.Submit(ctx, in)
	if err != nil {
		b.reply(ctx, in.UserID, "⚠️ "+err.Error())
		b.reply(ctx, in.UserID, sess.checkout.Prompt())
		return
	}
	if !done {
		b.reply(ctx, in.UserID, sess.checkout.Prompt())
		return
	}
	b.finishCheckout(ctx, in.UserID, sess)
}

// finishCheckout crée la commande. Quel que soit le résultat, le panier est
// vidé et le formulaire fermé : pas de panier fantôme après un échec.
func (b *CustomerBot) finishCheckout(ctx context.Context, userID string, sess *CustomerSession) {
	order, err := b.orders.CreateOrder(ctx, userID, sess.form, sess.Cart.Items())

	sess.Cart.Clear()
	sess.checkout = nil
	sess.form = shop.CheckoutForm{}

	if err != nil {
		switch {
		case errors.Is(err, shop.ErrProductUnavailable), errors.Is(err, shop.ErrInsufficientStock):
			b.reply(ctx, userID, "⚠️ "+err.Error()+"\nVotre panier a été vidé, recomposez votre commande.")
		default:
			b.reply(ctx, userID, "❌ La commande n'a pas pu être créée, réessayez plus tard.")
		}
		return
	}

	sess.awaitingProof = true
	sess.pendingOrderID = order.ID

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Commande %s enregistrée !\n\n", order.ID)
	for _, it := range order.Items {
		fmt.Fprintf(&sb, "• %s x%d — %.2f €\n", it.ProductName, it.Quantity, it.TotalPrice)
	}
	fmt.Fprintf(&sb, "\nTotal : %.2f €\n\n💳 Règlement : %s\n\nEnvoyez ensuite la photo de votre preuve de paiement.",
		order.TotalAmount, b.merchant.PaymentDetails)
	b.reply(ctx, userID, sb.String())

	b.sendPaymentQR(ctx, userID, order.ID, order.TotalAmount)
}

// sendPaymentQR génère un QR avec les coordonnées de règlement. Best-effort :
// le texte ci-dessus contient déjà tout le nécessaire.
func (b *CustomerBot) sendPaymentQR(ctx context.Context, userID, orderID string, amount float64) {
	payload := fmt.Sprintf("%s|%s|%.2f|%s", b.merchant.Name, b.merchant.PaymentDetails, amount, orderID)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		log.Printf("⚠️ Génération QR commande %s : %v", orderID, err)
		return
	}

	ref := fmt.Sprintf("qr/%s.png", orderID)
	if err := b.blobs.Put(ctx, ref, png, "image/png"); err != nil {
		log.Printf("⚠️ Dépôt QR commande %s : %v", orderID, err)
		return
	}
	if err := b.sender.SendImage(ctx, userID, ref, "Scannez pour régler votre commande"); err != nil {
		log.Printf("⚠️ Envoi QR commande %s : %v", orderID, err)
	}
}

// handlePhoto rattache la photo comme preuve de paiement de la commande en
// attente. En cas d'échec la session reste en attente : le client peut
// renvoyer une photo.
func (b *CustomerBot) handlePhoto(ctx context.Context, in chat.Inbound, sess *CustomerSession) {
	if !sess.awaitingProof {
		b.reply(ctx, in.UserID, "Je n'attends pas de photo pour le moment.")
		return
	}

	data, err := b.blobs.Get(ctx, in.BlobRef)
	if err != nil {
		b.reply(ctx, in.UserID, "❌ Photo illisible, renvoyez-la.")
		return
	}

	ref := fmt.Sprintf("payment_proof_%s_%d.jpg", sess.pendingOrderID, time.Now().UnixNano())
	if err := b.blobs.Put(ctx, ref, data, "image/jpeg"); err != nil {
		b.reply(ctx, in.UserID, "❌ Photo non enregistrée, renvoyez-la.")
		return
	}

	if _, err := b.orders.AttachPaymentProof(ctx, sess.pendingOrderID, ref); err != nil {
		if errors.Is(err, shop.ErrInvalidState) {
			sess.awaitingProof = false
			sess.pendingOrderID = ""
			b.reply(ctx, in.UserID, "Cette commande n'accepte plus de preuve de paiement.")
			return
		}
		b.reply(ctx, in.UserID, "❌ Preuve non enregistrée, renvoyez la photo.")
		return
	}

	sess.awaitingProof = false
	sess.pendingOrderID = ""
	b.reply(ctx, in.UserID, "📸 Preuve reçue ! Votre paiement est en cours de vérification, vous serez notifié du résultat.")
}

func (b *CustomerBot) reply(ctx context.Context, userID, text string) {
	if err := b.sender.SendText(ctx, userID, text); err != nil {
		log.Printf("⚠️ Envoi vers %s : %v", userID, err)
	}
}

func splitCommand(text string) (cmd, arg string) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func statusLabel(status models.OrderStatus) string {
	switch status {
	case models.OrderPending:
		return "en attente de paiement"
	case models.OrderAwaitingVerification:
		return "paiement en vérification"
	case models.OrderPaid:
		return "payée ✅"
	case models.OrderRejected:
		return "paiement refusé ❌"
	case models.OrderCancelled:
		return "annulée"
	default:
		return string(status)
	}
}
