package service

import (
	"context"

	"github.com/admin/tg-bots/store-bot/internal/domain"
)

// IPaymentUseCase операции платёжного цикла, доступные транспортным слоям
type IPaymentUseCase interface {
	IssueInvoice(ctx context.Context, payerID int64, productID string) (string, *domain.Product, error)
	HandlePreCheckout(ctx context.Context, query *domain.PreCheckoutQuery) error
	HandleSuccessfulPayment(ctx context.Context, payer *domain.TelegramUser, chatID int64, pay *domain.SuccessfulPayment) error
	Refund(ctx context.Context, chargeID string, requestedBy int64) (*domain.PaymentRecord, error)
}
