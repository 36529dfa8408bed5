package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Cache é um cache em memória com TTL
type Cache[V any] struct {
	mu       sync.RWMutex
	items    map[string]*cacheItem[V]
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once

	// generation muda a cada Clear/InvalidatePrefix
	generation uint64

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

// Stats são as estatísticas do cache
type Stats struct {
	ItemCount int   `json:"item_count"`
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`
}

// NewCache cria um cache com o TTL informado e inicia a limpeza periódica
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return newCache[V](ttl, time.Minute)
}

func newCache[V any](ttl, cleanupEvery time.Duration) *Cache[V] {
	c := &Cache[V]{
		items:    make(map[string]*cacheItem[V]),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	go c.cleanup(cleanupEvery)

	return c
}

// Get busca um valor; itens expirados contam como ausentes
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || time.Now().After(item.expiration) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	return item.value, true
}

// Set armazena um valor com o TTL padrão
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL armazena um valor com TTL próprio
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem[V]{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
}

// GetOrCompute devolve o valor em cache ou calcula, armazena e devolve.
// Se o cache for invalidado durante o cálculo o valor é devolvido sem ser armazenado.
func (c *Cache[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	v, err := compute()
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.items[key] = &cacheItem[V]{
			value:      v,
			expiration: time.Now().Add(c.ttl),
		}
	}
	return v, nil
}

// Clear remove todos os itens
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*cacheItem[V])
	c.generation++
}

// InvalidatePrefix remove todas as chaves com o prefixo
func (c *Cache[V]) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Stats retorna as estatísticas atuais
func (c *Cache[V]) Stats() Stats {
	return Stats{
		ItemCount: c.Size(),
		HitCount:  c.hits.Load(),
		MissCount: c.misses.Load(),
	}
}

func (c *Cache[V]) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Cache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}

// Stop encerra a limpeza periódica; pode ser chamado mais de uma vez
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// Size retorna a quantidade de itens armazenados (inclui expirados ainda não limpos)
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
