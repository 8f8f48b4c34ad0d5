package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// Store garde un état par identité utilisateur, créé paresseusement.
// Deux premiers contacts concurrents de la même identité convergent vers le
// même objet. Contrairement aux maps de sessions qui grossissent sans fin,
// un balayage périodique évince les sessions inactives au-delà du délai
// configuré.
type Store[S any] struct {
	mu          sync.Mutex
	entries     map[string]*entry[S]
	factory     func() *S
	idleTimeout time.Duration
}

type entry[S any] struct {
	state    *S
	lastSeen time.Time
}

func NewStore[S any](factory func() *S, idleTimeout time.Duration) *Store[S] {
	return &Store[S]{
		entries:     make(map[string]*entry[S]),
		factory:     factory,
		idleTimeout: idleTimeout,
	}
}

// Get renvoie la session de l'identité, en la créant au premier contact.
// Chaque accès repousse l'éviction.
func (s *Store[S]) Get(userID string) *S {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &entry[S]{state: s.factory()}
		s.entries[userID] = e
	}
	e.lastSeen = time.Now()
	return e.state
}

func (s *Store[S]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep évince les sessions inactives depuis plus de idleTimeout et renvoie
// le nombre d'évictions.
func (s *Store[S]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.idleTimeout)
	evicted := 0
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper lance le balayage périodique jusqu'à annulation du contexte.
func (s *Store[S]) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Printf("🧹 %d session(s) inactive(s) évincée(s)", n)
				}
			}
		}
	}()
}
