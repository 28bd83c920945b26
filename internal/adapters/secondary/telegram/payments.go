package telegram

import (
	"context"
	"fmt"
)

// LabeledPrice представляет цену в invoice
type LabeledPrice struct {
	Label  string `json:"label"`  // название позиции
	Amount int64  `json:"amount"` // для Stars - количество звёзд
}

// CreateInvoiceLinkRequest запрос на создание ссылки invoice (Telegram Stars)
// Документация: https://core.telegram.org/bots/api#createinvoicelink
type CreateInvoiceLinkRequest struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Payload       string         `json:"payload"`                  // уникальный payload платежа
	ProviderToken string         `json:"provider_token,omitempty"` // не нужен для Stars
	Currency      string         `json:"currency"`                 // "XTR" для Stars
	Prices        []LabeledPrice `json:"prices"`
}

// CreateInvoiceLinkResponse ответ от Telegram API на createInvoiceLink
type CreateInvoiceLinkResponse struct {
	APIResponse
	Result string `json:"result"` // ссылка на invoice
}

// CreateInvoiceLink создаёт ссылку на invoice для открытия на клиенте
func (c *Client) CreateInvoiceLink(ctx context.Context, req CreateInvoiceLinkRequest) (string, error) {
	var resp CreateInvoiceLinkResponse
	if err := c.callMethod(ctx, "createInvoiceLink", req, &resp); err != nil {
		return "", err
	}

	c.log.Debug("invoice link created", "title", req.Title)
	return resp.Result, nil
}

// AnswerPreCheckoutQueryRequest запрос на ответ pre_checkout_query
type AnswerPreCheckoutQueryRequest struct {
	PreCheckoutQueryID string  `json:"pre_checkout_query_id"`
	OK                 bool    `json:"ok"`                      // true - подтвердить, false - отклонить
	ErrorMessage       *string `json:"error_message,omitempty"` // причина отклонения (если ok=false)
}

// AnswerPreCheckoutQuery отвечает на pre_checkout_query (подтверждает или отклоняет платёж)
// Документация: https://core.telegram.org/bots/api#answerprecheckoutquery
func (c *Client) AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage *string) error {
	reqBody := AnswerPreCheckoutQueryRequest{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
		ErrorMessage:       errorMessage,
	}

	var resp APIResponse
	if err := c.callMethod(ctx, "answerPreCheckoutQuery", reqBody, &resp); err != nil {
		return fmt.Errorf("answerPreCheckoutQuery [query_id=%s]: %w", queryID, err)
	}

	c.log.Debug("pre_checkout_query answered successfully",
		"query_id", queryID,
		"ok", ok,
	)
	return nil
}

// RefundStarPaymentRequest запрос на возврат платежа в Stars
type RefundStarPaymentRequest struct {
	UserID                  int64  `json:"user_id"`
	TelegramPaymentChargeID string `json:"telegram_payment_charge_id"`
}

// RefundStarPayment возвращает звёзды по charge_id завершённого платежа
// Документация: https://core.telegram.org/bots/api#refundstarpayment
func (c *Client) RefundStarPayment(ctx context.Context, userID int64, chargeID string) error {
	reqBody := RefundStarPaymentRequest{
		UserID:                  userID,
		TelegramPaymentChargeID: chargeID,
	}

	var resp APIResponse
	if err := c.callMethod(ctx, "refundStarPayment", reqBody, &resp); err != nil {
		return fmt.Errorf("refundStarPayment [charge_id=%s]: %w", chargeID, err)
	}

	c.log.Info("star payment refunded",
		"user_id", userID,
		"charge_id", chargeID,
	)
	return nil
}
