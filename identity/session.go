package identity

import (
	"sync"

	"todo-stream/domain"
)

// Session tracks the current principal and pushes transitions to
// subscribers. A transition between nil and a concrete user is a full
// resubscribe boundary for anything observing per-user data.
type Session struct {
	mu      sync.Mutex
	current *domain.User
	subs    map[chan *domain.User]struct{}
}

func NewSession() *Session {
	return &Session{subs: make(map[chan *domain.User]struct{})}
}

// Current returns the principal snapshot, nil when signed out.
func (s *Session) Current() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Changes subscribes to principal transitions. The returned cancel func
// must be called on scope exit. Only the latest transition is retained for
// a slow subscriber.
func (s *Session) Changes() (<-chan *domain.User, func()) {
	ch := make(chan *domain.User, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	cancel := func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
	return ch, cancel
}

// Set replaces the current principal and notifies every subscriber.
func (s *Session) Set(u *domain.User) {
	s.mu.Lock()
	s.current = u
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- u
	}
	s.mu.Unlock()
}
