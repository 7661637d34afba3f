package storage

import "sync"

// memoryStorage is an in-memory Storage used by tests and as a fallback
// when no durable store is configured.
type memoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory returns an empty in-memory Storage.
func NewMemory() Storage {
	return &memoryStorage{values: make(map[string][]byte)}
}

func (s *memoryStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	value := make([]byte, len(data))
	copy(value, data)
	return value, nil
}

func (s *memoryStorage) Set(key string, value []byte) error {
	return s.SetMulti(map[string][]byte{key: value})
}

func (s *memoryStorage) SetMulti(values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values {
		stored := make([]byte, len(value))
		copy(stored, value)
		s.values[key] = stored
	}
	return nil
}

func (s *memoryStorage) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *memoryStorage) Close() error {
	return nil
}
