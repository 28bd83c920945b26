package telegram_stars

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/admin/tg-bots/store-bot/internal/adapters/secondary/telegram"
	paymentPort "github.com/admin/tg-bots/store-bot/internal/ports/payment"
)

// Provider реализует IPaymentProvider для Telegram Stars
type Provider struct {
	client *telegram.Client
	log    *slog.Logger
}

// NewProvider создаёт новый провайдер для Telegram Stars
func NewProvider(client *telegram.Client, log *slog.Logger) *Provider {
	return &Provider{
		client: client,
		log:    log,
	}
}

// CreateInvoiceLink создаёт ссылку на invoice через Telegram API
func (p *Provider) CreateInvoiceLink(ctx context.Context, req paymentPort.CreateInvoiceLinkRequest) (string, error) {
	// Для Stars prices — одна позиция с количеством звёзд
	invoiceReq := telegram.CreateInvoiceLinkRequest{
		Title:       req.Title,
		Description: req.Description,
		Payload:     req.Payload,
		Currency:    req.Currency, // "XTR" для Stars
		Prices: []telegram.LabeledPrice{
			{
				Label:  req.Title,
				Amount: req.Amount,
			},
		},
	}

	link, err := p.client.CreateInvoiceLink(ctx, invoiceReq)
	if err != nil {
		return "", fmt.Errorf("failed to create invoice link: %w", err)
	}

	return link, nil
}

// AnswerPreCheckout отвечает на pre_checkout_query
func (p *Provider) AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage *string) error {
	if err := p.client.AnswerPreCheckoutQuery(ctx, queryID, ok, errorMessage); err != nil {
		return fmt.Errorf("failed to answer pre_checkout_query: %w", err)
	}
	return nil
}

// RefundStarPayment возвращает звёзды по charge_id
func (p *Provider) RefundStarPayment(ctx context.Context, payerID int64, chargeID string) error {
	if err := p.client.RefundStarPayment(ctx, payerID, chargeID); err != nil {
		return fmt.Errorf("failed to refund star payment: %w", err)
	}
	return nil
}
