package settings

import (
	"sync"
)

// MemoryStore is an in-memory implementation of the Store interface.
// This is primarily useful for testing and devices that don't need persistence.
type MemoryStore struct {
	mu sync.RWMutex

	initialized bool
	values      map[string][]byte
	handlers    map[string]Handler
}

// NewMemoryStore creates a new in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string][]byte),
		handlers: make(map[string]Handler),
	}
}

// Init marks the store ready.
func (s *MemoryStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	return nil
}

// Register adds a namespace handler.
func (s *MemoryStore) Register(h Handler) error {
	if err := ValidateKey(h.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[h.Name]; exists {
		return ErrHandlerExists
	}
	s.handlers[h.Name] = h
	return nil
}

// Load replays all values to their handlers.
func (s *MemoryStore) Load() error {
	s.mu.RLock()
	if !s.initialized {
		s.mu.RUnlock()
		return ErrNotInitialized
	}
	values := make(map[string][]byte, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	handlers := make(map[string]Handler, len(s.handlers))
	for k, h := range s.handlers {
		handlers[k] = h
	}
	s.mu.RUnlock()

	return replay(values, handlers)
}

// SaveOne stores a copy of value under key.
func (s *MemoryStore) SaveOne(key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	delete(s.values, key)
	return nil
}

// Get returns a copy of the value stored under key.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Keys returns the number of stored keys.
func (s *MemoryStore) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Compile-time interface satisfaction check.
var _ Store = (*MemoryStore)(nil)
