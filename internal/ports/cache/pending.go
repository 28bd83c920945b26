package cache

import (
	"context"

	"github.com/admin/tg-bots/store-bot/internal/domain"
)

// IPendingCheckouts трекер чекаутов, ожидающих подтверждения провайдера.
// Ключ — id pre_checkout_query. Записи живут ограниченное время (TTL),
// явного удаления по успеху не требуется.
type IPendingCheckouts interface {
	Put(ctx context.Context, queryID string, checkout domain.PendingCheckout) error
	Get(ctx context.Context, queryID string) (*domain.PendingCheckout, error)
	Delete(ctx context.Context, queryID string) error
}
