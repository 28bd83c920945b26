package service

import (
	"context"

	"github.com/admin/tg-bots/store-bot/internal/domain"
)

// ITransactionLog внешний журнал транзакций платёжного цикла.
// Публикация не должна блокировать основной поток обработки платежа:
// ошибки публикации логируются вызывающим, но не проваливают операцию.
type ITransactionLog interface {
	Publish(ctx context.Context, event domain.TransactionEvent) error
}
