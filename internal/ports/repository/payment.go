package repository

import (
	"context"
	"time"

	"github.com/admin/tg-bots/store-bot/internal/domain"
)

// IPaymentRepo интерфейс хранилища записей о платежах.
// Контракт: charge_id уникален; Create с уже существующим charge_id —
// no-op (created=false), не ошибка; MarkRefunded переводит refunded
// false→true ровно один раз (flipped=false при повторе).
type IPaymentRepo interface {
	// Create добавляет запись о платеже. created=false если charge_id уже есть.
	Create(ctx context.Context, record *domain.PaymentRecord) (created bool, err error)
	GetByChargeID(ctx context.Context, chargeID string) (*domain.PaymentRecord, error)
	// MarkRefunded атомарно выставляет refunded=true. flipped=false если
	// запись уже была refunded (или не существует).
	MarkRefunded(ctx context.Context, chargeID string, refundedAt time.Time) (flipped bool, err error)
}

// IFailedDeliveryRepo append-only журнал неисполненных поставок.
// Только запись — система его не читает, журнал для оператора.
type IFailedDeliveryRepo interface {
	Append(ctx context.Context, entry *domain.FailedDeliveryEntry) error
}
