package shop

import (
	"context"
	"strings"

	"tempora_back_end/internal/models"
)

// AdminOracle répond à « cet identifiant est-il privilégié ? » : union du
// drapeau persisté en base et d'une liste blanche de configuration.
type AdminOracle struct {
	users     UserStore
	allowList map[string]struct{}
}

func NewAdminOracle(users UserStore, allowedIDs string) *AdminOracle {
	allow := make(map[string]struct{})
	for _, id := range strings.Split(allowedIDs, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			allow[id] = struct{}{}
		}
	}
	return &AdminOracle{users: users, allowList: allow}
}

func (o *AdminOracle) IsPrivileged(ctx context.Context, userID string) bool {
	if _, ok := o.allowList[userID]; ok {
		return true
	}
	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		return false
	}
	return user.IsAdmin
}

// RegisterUser crée ou met à jour l'identité chat à chaque message entrant.
// Un identifiant de la liste blanche est promu admin en base au passage.
func (o *AdminOracle) RegisterUser(ctx context.Context, id, username, firstName, lastName string) error {
	_, allowed := o.allowList[id]

	existing, err := o.users.GetUser(ctx, id)
	if err == nil {
		existing.Username = username
		existing.FirstName = firstName
		existing.LastName = lastName
		if allowed {
			existing.IsAdmin = true
		}
		return o.users.UpsertUser(ctx, existing)
	}

	return o.users.UpsertUser(ctx, &models.AppUser{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		IsAdmin:   allowed,
	})
}
