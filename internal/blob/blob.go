package blob

import "context"

// Store est un dépôt de blobs adressé par référence : la référence rendue
// par Put doit permettre de relire les octets (consultation opérateur).
type Store interface {
	Put(ctx context.Context, ref string, data []byte, contentType string) error
	Get(ctx context.Context, ref string) ([]byte, error)
	// URL renvoie un lien de consultation temporaire vers le blob.
	URL(ctx context.Context, ref string) (string, error)
}
