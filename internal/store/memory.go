package store

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// memoryStoreItem holds the value and expiration timestamp for a key.
type memoryStoreItem struct {
	value     []byte
	expiresAt int64 // Unix-nano timestamp. 0 for no expiry.
}

// MemoryStore is an in-memory key-value store that is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	data        map[string]any
	stopCleanup chan struct{}
}

// NewMemoryStore creates and returns a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		data:        make(map[string]any),
		stopCleanup: make(chan struct{}),
	}
	// Expired items that are never read again would otherwise accumulate
	go s.cleanupExpiredItems()
	return s
}

// Close cleans up resources.
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	return nil
}

// Set stores a key-value pair.
func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().UnixNano() + ttl.Nanoseconds()
	}

	s.data[key] = memoryStoreItem{
		value:     value,
		expiresAt: expiresAt,
	}
	return nil
}

// Get retrieves a value by its key.
func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	rawItem, exists := s.data[key]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}

	item, ok := rawItem.(memoryStoreItem)
	if !ok {
		return nil, fmt.Errorf("type mismatch: key '%s' holds a different data type", key)
	}

	if item.expiresAt > 0 && time.Now().UnixNano() > item.expiresAt {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	return item.value, nil
}

// Delete removes a value by its key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Exists checks if a key exists.
func (s *MemoryStore) Exists(key string) (bool, error) {
	s.mu.RLock()
	rawItem, exists := s.data[key]
	s.mu.RUnlock()

	if !exists {
		return false, nil
	}

	if item, ok := rawItem.(memoryStoreItem); ok {
		if item.expiresAt > 0 && time.Now().UnixNano() > item.expiresAt {
			s.mu.Lock()
			delete(s.data, key)
			s.mu.Unlock()
			return false, nil
		}
	}

	return true, nil
}

// SetNX sets a key-value pair if the key does not already exist.
func (s *MemoryStore) SetNX(key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawItem, exists := s.data[key]
	if exists {
		if item, ok := rawItem.(memoryStoreItem); ok {
			if item.expiresAt == 0 || time.Now().UnixNano() < item.expiresAt {
				return false, nil
			}
		} else {
			// Key exists but is not a simple K/V item, treat as existing
			return false, nil
		}
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().UnixNano() + ttl.Nanoseconds()
	}
	s.data[key] = memoryStoreItem{
		value:     value,
		expiresAt: expiresAt,
	}
	return true, nil
}

// --- HASH operations ---

func (s *MemoryStore) HSet(key string, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := s.hashForWrite(key)
	if err != nil {
		return err
	}

	for field, value := range values {
		hash[field] = fmt.Sprint(value)
	}
	return nil
}

func (s *MemoryStore) HGetAll(key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rawHash, exists := s.data[key]
	if !exists {
		return make(map[string]string), nil
	}

	hash, ok := rawHash.(map[string]string)
	if !ok {
		return nil, fmt.Errorf("type mismatch: key '%s' holds a different data type", key)
	}

	result := make(map[string]string, len(hash))
	for k, v := range hash {
		result[k] = v
	}

	return result, nil
}

func (s *MemoryStore) HIncrBy(key, field string, incr int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := s.hashForWrite(key)
	if err != nil {
		return 0, err
	}

	currentVal, _ := strconv.ParseInt(hash[field], 10, 64)
	newVal := currentVal + incr
	hash[field] = strconv.FormatInt(newVal, 10)

	return newVal, nil
}

// hashForWrite returns the hash at key, creating it when absent.
// Callers must hold the write lock.
func (s *MemoryStore) hashForWrite(key string) (map[string]string, error) {
	rawHash, exists := s.data[key]
	if !exists {
		hash := make(map[string]string)
		s.data[key] = hash
		return hash, nil
	}

	hash, ok := rawHash.(map[string]string)
	if !ok {
		return nil, fmt.Errorf("type mismatch: key '%s' holds a different data type", key)
	}
	return hash, nil
}

// Clear clears all data.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any)
	return nil
}

// cleanupExpiredItems periodically removes expired items from the store.
func (s *MemoryStore) cleanupExpiredItems() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performCleanup()
		case <-s.stopCleanup:
			logrus.Debug("MemoryStore cleanup goroutine stopped")
			return
		}
	}
}

// performCleanup scans the store and removes expired items.
func (s *MemoryStore) performCleanup() {
	now := time.Now().UnixNano()
	expiredKeys := make([]string, 0, 100)

	s.mu.RLock()
	for key, rawItem := range s.data {
		if item, ok := rawItem.(memoryStoreItem); ok {
			if item.expiresAt > 0 && now > item.expiresAt {
				expiredKeys = append(expiredKeys, key)
			}
		}
	}
	s.mu.RUnlock()

	if len(expiredKeys) > 0 {
		deletedCount := 0
		s.mu.Lock()
		for _, key := range expiredKeys {
			// Re-check under the write lock: the key may have been replaced
			if rawItem, exists := s.data[key]; exists {
				if item, ok := rawItem.(memoryStoreItem); ok {
					if item.expiresAt > 0 && now > item.expiresAt {
						delete(s.data, key)
						deletedCount++
					}
				}
			}
		}
		s.mu.Unlock()

		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logrus.Debugf("MemoryStore cleanup: removed %d expired items", deletedCount)
		}
	}
}
