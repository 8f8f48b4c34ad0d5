package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type state struct {
	counter int
}

func TestGetCreatesOncePerIdentity(t *testing.T) {
	s := NewStore(func() *state { return &state{} }, time.Minute)

	a := s.Get("u1")
	b := s.Get("u1")
	assert.Same(t, a, b)
	assert.NotSame(t, a, s.Get("u2"))
	assert.Equal(t, 2, s.Len())
}

func TestConcurrentFirstContactConverges(t *testing.T) {
	s := NewStore(func() *state { return &state{} }, time.Minute)

	const workers = 50
	results := make([]*state, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = s.Get("u1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, s.Len())
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	s := NewStore(func() *state { return &state{} }, 20*time.Millisecond)

	s.Get("vieux")
	time.Sleep(30 * time.Millisecond)
	s.Get("récent")

	evicted := s.Sweep()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, s.Len())

	// L'accès recrée la session de zéro.
	fresh := s.Get("vieux")
	assert.Equal(t, 0, fresh.counter)
}

func TestGetPostponesEviction(t *testing.T) {
	s := NewStore(func() *state { return &state{} }, 30*time.Millisecond)

	s.Get("u1")
	time.Sleep(20 * time.Millisecond)
	s.Get("u1") // repousse l'éviction
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, s.Sweep())
	assert.Equal(t, 1, s.Len())
}
