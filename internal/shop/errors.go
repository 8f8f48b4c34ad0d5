package shop

import "errors"

// Erreurs remontées jusqu'à la frontière bot/API puis traduites en message
// utilisateur. Aucune n'est fatale pour le process.
var (
	ErrNotFound           = errors.New("ressource introuvable")
	ErrProductUnavailable = errors.New("produit indisponible")
	ErrStockLimitReached  = errors.New("limite de stock atteinte")
	ErrInsufficientStock  = errors.New("stock insuffisant")
	ErrEmptyCart          = errors.New("le panier est vide")
	ErrInvalidState       = errors.New("opération impossible dans l'état actuel de la commande")
	ErrNoUnverifiedProof  = errors.New("aucune preuve de paiement en attente de vérification")
	ErrUnauthorized       = errors.New("action réservée aux administrateurs")
	ErrValidation         = errors.New("saisie invalide")
)
