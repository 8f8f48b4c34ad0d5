package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"tempora_back_end/internal/chat"
	"tempora_back_end/internal/shop"
)

// Notifier pousse les notifications de la machine à états des commandes vers
// le chat : résultat de vérification au client, alerte aux opérateurs quand
// une preuve arrive. Les deux publics vivent sur des surfaces séparées, d'où
// les deux canaux sortants. Best-effort : un destinataire injoignable est
// journalisé et oublié.
type Notifier struct {
	customers chat.Sender
	admins    chat.Sender
	users     shop.UserStore
	adminIDs  []string
}

func NewNotifier(customers, admins chat.Sender, users shop.UserStore, adminIDs string) *Notifier {
	ids := make([]string, 0)
	for _, id := range strings.Split(adminIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return &Notifier{customers: customers, admins: admins, users: users, adminIDs: ids}
}

func (n *Notifier) HandleProofUploaded(ctx context.Context, ev shop.ProofUploadedEvent) {
	text := fmt.Sprintf("📸 Nouvelle preuve de paiement sur la commande %s.\nExaminer : /commande %s", ev.OrderID, ev.OrderID)
	for _, adminID := range n.operatorIDs(ctx) {
		if err := n.admins.SendText(ctx, adminID, text); err != nil {
			log.Printf("⚠️ Alerte opérateur %s : %v", adminID, err)
		}
	}
}

// operatorIDs réunit la liste blanche de configuration et les opérateurs
// promus en base. Si le store est indisponible, la liste blanche suffit.
func (n *Notifier) operatorIDs(ctx context.Context) []string {
	seen := make(map[string]struct{}, len(n.adminIDs))
	out := make([]string, 0, len(n.adminIDs))
	for _, id := range n.adminIDs {
		seen[id] = struct{}{}
		out = append(out, id)
	}

	admins, err := n.users.ListAdmins(ctx)
	if err != nil {
		log.Printf("⚠️ Liste des opérateurs : %v", err)
		return out
	}
	for _, u := range admins {
		if _, ok := seen[u.ID]; !ok {
			out = append(out, u.ID)
		}
	}
	return out
}

func (n *Notifier) HandleVerificationResult(ctx context.Context, ev shop.VerificationResultEvent) {
	text := fmt.Sprintf("❌ Le paiement de votre commande %s a été refusé. Contactez-nous si vous pensez qu'il s'agit d'une erreur.", ev.OrderID)
	if ev.Approved {
		text = fmt.Sprintf("✅ Paiement confirmé ! Votre commande %s est en préparation.", ev.OrderID)
	}
	if err := n.customers.SendText(ctx, ev.CustomerID, text); err != nil {
		log.Printf("⚠️ Notification client %s : %v", ev.CustomerID, err)
	}
}
