package chat

import "context"

// Kind est le type d'un événement entrant. Chaque étape d'un parcours
// n'accepte qu'un seul type d'entrée.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindLocation Kind = "location"
)

// Inbound est un événement de chat entrant, attribué à une identité.
type Inbound struct {
	UserID    string
	Kind      Kind
	Text      string
	BlobRef   string
	Latitude  float64
	Longitude float64

	// Profil fourni par le transport, si disponible.
	Username  string
	FirstName string
	LastName  string
}

// Sender est le canal sortant vers un utilisateur.
type Sender interface {
	SendText(ctx context.Context, userID, text string) error
	SendImage(ctx context.Context, userID, blobRef, caption string) error
}

// Handler consomme les événements entrants d'une surface de chat.
type Handler interface {
	Handle(ctx context.Context, in Inbound)
}
