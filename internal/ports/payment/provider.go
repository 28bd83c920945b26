package payment

import "context"

// IPaymentProvider интерфейс платёжного провайдера (Telegram Stars).
// Use case зависит только от этого интерфейса, не зная деталей реализации
type IPaymentProvider interface {
	// CreateInvoiceLink создаёт ссылку на invoice для открытия на клиенте
	CreateInvoiceLink(ctx context.Context, req CreateInvoiceLinkRequest) (string, error)

	// AnswerPreCheckout отвечает на pre_checkout_query: подтверждает (ok=true)
	// или отклоняет с причиной errorMessage
	AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage *string) error

	// RefundStarPayment возвращает звёзды по charge_id завершённого платежа
	RefundStarPayment(ctx context.Context, payerID int64, chargeID string) error
}

// CreateInvoiceLinkRequest запрос на создание ссылки invoice
type CreateInvoiceLinkRequest struct {
	Title       string
	Description string
	Payload     string // сериализованный InvoicePayload
	Currency    string // "XTR" для Stars
	Amount      int64  // количество звёзд
}
