package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
)

type entry struct {
	data   []byte
	expiry time.Time
}

func (e entry) IsExpired() bool {
	return time.Now().After(e.expiry)
}

type LRU struct {
	expiration time.Duration
	lru        *simplelru.LRU
	mu         *sync.Mutex
}

var _ Cache = &LRU{}

func NewLRU(size int, expiration time.Duration) (*LRU, error) {
	var onEvict simplelru.EvictCallback
	lru, err := simplelru.NewLRU(size, onEvict)
	if err != nil {
		return nil, err
	}

	return &LRU{
		expiration: expiration,
		lru:        lru,
		mu:         &sync.Mutex{},
	}, nil
}

func (c *LRU) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return false, nil
	}

	cached := e.(entry)
	if cached.IsExpired() {
		c.lru.Remove(key)
		return false, nil
	}

	if err := decode(cached.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *LRU) Set(_ context.Context, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.lru.Add(key, entry{
		data:   data,
		expiry: time.Now().Add(c.expiration),
	})
	return nil
}

func (c *LRU) Purge(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
	return nil
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}
