package react

import "sync"

// store mirrors one member's reactive value into a cell the native runtime
// may read from any goroutine. It is the only state shared between the
// network and native polling reads. Callers update the store before firing
// the change notification, so a read triggered by the notification always
// observes the new value.
type store struct {
	mu    sync.Mutex
	value any
}

func newStore(initial any) *store {
	return &store{value: initial}
}

func (s *store) Read() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *store) set(v any) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}
