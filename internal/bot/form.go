package bot

import (
	"context"

	"tempora_back_end/internal/chat"
)

// Step est une étape de collecte : une invite et un validateur qui range la
// valeur dans le brouillon. Une erreur de validation laisse le formulaire sur
// place, l'invite est simplement répétée.
type Step struct {
	Prompt string
	Handle func(ctx context.Context, in chat.Inbound) error
}

// Form fait avancer l'utilisateur d'étape en étape dans l'ordre. C'est le
// même mécanisme pour le parcours de commande client et les assistants de
// saisie opérateur.
type Form struct {
	steps []Step
	idx   int
}

func NewForm(steps ...Step) *Form {
	return &Form{steps: steps}
}

// Prompt renvoie l'invite de l'étape courante.
func (f *Form) Prompt() string {
	return f.steps[f.idx].Prompt
}

// Submit soumet l'événement à l'étape courante. En cas d'erreur le
// formulaire n'avance pas ; sinon il passe à l'étape suivante et signale
// s'il est terminé.
func (f *Form) Submit(ctx context.Context, in chat.Inbound) (done bool, err error) {
	if err := f.steps[f.idx].Handle(ctx, in); err != nil {
		return false, err
	}
	f.idx++
	return f.idx >= len(f.steps), nil
}
