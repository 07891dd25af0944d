package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/stockledger-api/internal/application/ports"
)

var _ ports.CacheInvalidator = (*LocalCache)(nil)

type entry struct {
	raw     []byte
	expires time.Time
}

// LocalCache caché en proceso para despliegues de una sola réplica y tests.
// El LRU expulsa por tamaño y por maxTTL; cada entrada además respeta su propio TTL.
type LocalCache struct {
	lru  *expirable.LRU[string, entry]
	now  func() time.Time
	mu   sync.Mutex
	gens map[string]int64
}

// NewLocalCache size entradas como máximo; maxTTL es el techo de vida de cualquier entrada.
func NewLocalCache(size int, maxTTL time.Duration) *LocalCache {
	if size <= 0 {
		size = 10000
	}
	if maxTTL <= 0 {
		maxTTL = time.Hour
	}
	return &LocalCache{
		lru:  expirable.NewLRU[string, entry](size, nil, maxTTL),
		now:  time.Now,
		gens: make(map[string]int64),
	}
}

func (c *LocalCache) Get(_ context.Context, key string, dest any) (bool, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.lru.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dest); err != nil {
		return false, fmt.Errorf("decodificar %s: %w", key, err)
	}
	return true, nil
}

func (c *LocalCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("codificar %s: %w", key, err)
	}
	e := entry{raw: raw}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

func (c *LocalCache) Generation(_ context.Context, companyID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[companyID], nil
}

func (c *LocalCache) Invalidate(_ context.Context, companyID string) error {
	c.mu.Lock()
	c.gens[companyID]++
	c.mu.Unlock()
	prefix := ports.CompanyPrefix(companyID)
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
	return nil
}

// Len entradas vivas.
func (c *LocalCache) Len() int {
	return c.lru.Len()
}
