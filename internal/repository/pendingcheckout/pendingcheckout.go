package pendingCheckoutRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/store-bot/internal/domain"
	"github.com/admin/tg-bots/store-bot/internal/ports/cache"
)

const keyPrefix = "pending_checkout:"

// Tracker реализует IPendingCheckouts поверх кэша с TTL.
// TTL ограничивает время жизни записей: провайдер отвечает на pre_checkout
// за минуты, зависшие записи не накапливаются.
type Tracker struct {
	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт трекер ожидающих чекаутов
func New(c cache.Cache, ttl time.Duration, log *slog.Logger) cache.IPendingCheckouts {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Tracker{
		cache: c,
		ttl:   ttl,
		log:   log,
	}
}

// Put регистрирует чекаут по id pre_checkout_query
func (t *Tracker) Put(ctx context.Context, queryID string, checkout domain.PendingCheckout) error {
	data, err := json.Marshal(checkout)
	if err != nil {
		return fmt.Errorf("failed to marshal pending checkout: %w", err)
	}

	if err := t.cache.Set(ctx, keyPrefix+queryID, string(data), t.ttl); err != nil {
		return fmt.Errorf("failed to store pending checkout: %w", err)
	}

	t.log.Debug("pending checkout registered",
		"query_id", queryID,
		"payer_id", checkout.PayerID,
		"product_id", checkout.ProductID,
	)
	return nil
}

// Get возвращает чекаут по id query
func (t *Tracker) Get(ctx context.Context, queryID string) (*domain.PendingCheckout, error) {
	raw, err := t.cache.Get(ctx, keyPrefix+queryID)
	if err != nil {
		return nil, fmt.Errorf("pending checkout not found: %w", err)
	}

	var checkout domain.PendingCheckout
	if err := json.Unmarshal([]byte(raw), &checkout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending checkout: %w", err)
	}
	return &checkout, nil
}

// Delete удаляет чекаут (обычно не требуется — записи истекают по TTL)
func (t *Tracker) Delete(ctx context.Context, queryID string) error {
	return t.cache.Delete(ctx, keyPrefix+queryID)
}
