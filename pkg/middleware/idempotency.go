package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// IdemStore remembers recently seen idempotency keys.
type IdemStore interface {
	// Set returns true when the key was stored, false when it already exists.
	Set(key string, ttl time.Duration) bool
}

type memoryIdemStore struct {
	mu sync.Mutex
	m  map[string]time.Time
}

func newMemoryIdemStore() *memoryIdemStore {
	s := &memoryIdemStore{m: make(map[string]time.Time)}
	go s.gc()
	return s
}

func (s *memoryIdemStore) Set(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if exp, ok := s.m[key]; ok && exp.After(now) {
		return false
	}
	s.m[key] = now.Add(ttl)
	return true
}

func (s *memoryIdemStore) gc() {
	for {
		time.Sleep(time.Minute)
		now := time.Now()
		s.mu.Lock()
		for k, exp := range s.m {
			if exp.Before(now) {
				delete(s.m, k)
			}
		}
		s.mu.Unlock()
	}
}

// Idempotency rejects a repeated X-Idempotency-Key within ttl with 409. Keys
// are optional; requests without one pass through. Panic-trigger buttons tend
// to fire twice, so the trigger endpoint sits behind this.
func Idempotency(ttl time.Duration) gin.HandlerFunc {
	store := newMemoryIdemStore()
	return func(c *gin.Context) {
		key := c.GetHeader("X-Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}
		if !store.Set(c.Request.Method+":"+c.FullPath()+":"+key, ttl) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		c.Next()
	}
}
