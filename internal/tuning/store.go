// Package tuning holds the shared Settings value read by every worker.
package tuning

import (
	"sync"
	"sync/atomic"

	"stereovision/internal/models"
)

// Store publishes Settings by atomic pointer swap. Readers get a copy that
// cannot change underneath them; writers replace the whole value.
type Store struct {
	current atomic.Pointer[models.Settings]
	writeMu sync.Mutex
}

func NewStore(initial models.Settings) *Store {
	s := &Store{}
	s.current.Store(&initial)
	return s
}

// Load returns a snapshot of the current settings.
func (s *Store) Load() models.Settings {
	return *s.current.Load()
}

// Replace swaps in next and returns the previous value.
func (s *Store) Replace(next models.Settings) models.Settings {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	prev := s.current.Swap(&next)
	return *prev
}

// Update applies fn to a copy of the current settings and publishes the
// result. fn returning an error leaves the store untouched.
func (s *Store) Update(fn func(*models.Settings) error) (prev, next models.Settings, err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev = *s.current.Load()
	next = prev
	if err := fn(&next); err != nil {
		return prev, prev, err
	}
	s.current.Store(&next)
	return prev, next, nil
}
