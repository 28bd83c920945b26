package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/admin/tg-bots/store-bot/internal/ports/cache"
)

// entry значение с моментом истечения
type entry struct {
	value     string
	expiresAt time.Time
}

// Cache in-memory реализация cache.Cache с TTL.
// Используется когда Redis не сконфигурирован. Истёкшие записи удаляются
// лениво при чтении и фоновым Sweep — рост памяти ограничен TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewCache создаёт новый in-memory кэш
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
	}
}

// Get получает значение по ключу
func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", fmt.Errorf("key not found: %s", key)
	}
	return e.value, nil
}

// Set устанавливает значение с TTL (ttl<=0 — без истечения)
func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

// Delete удаляет значение по ключу
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Exists проверяет существование ключа
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	return err == nil, nil
}

// Close ничего не делает (для симметрии с Redis-клиентом)
func (c *Cache) Close() error {
	return nil
}

// Sweep удаляет истёкшие записи. Запускается периодически из жизненного
// цикла приложения.
func (c *Cache) Sweep() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// RunJanitor периодически вызывает Sweep до отмены контекста
func (c *Cache) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

var _ cache.Cache = (*Cache)(nil)
