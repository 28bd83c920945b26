package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// InvoicePayload полезная нагрузка, вшиваемая в invoice при создании.
// Провайдер возвращает её в pre_checkout_query и successful_payment,
// где она парсится и валидируется заново. product_id никогда не берётся
// на веру — каждая стадия заново резолвит его в каталоге.
type InvoicePayload struct {
	ProductID string `json:"product_id"`
	PayerID   int64  `json:"payer_id"`
	IssuedAt  int64  `json:"issued_at"` // epoch millis
}

// Encode сериализует payload в строку для createInvoiceLink
func (p InvoicePayload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal invoice payload: %w", err)
	}
	return string(data), nil
}

// ParseInvoicePayload разбирает payload из колбэка провайдера.
// Ошибка парсинга — отдельный явный вариант ошибки, не паника.
func ParseInvoicePayload(raw string) (*InvoicePayload, error) {
	var payload InvoicePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload.ProductID == "" || payload.PayerID == 0 {
		return nil, fmt.Errorf("%w: empty product_id or payer_id", ErrInvalidPayload)
	}
	return &payload, nil
}

// PendingCheckout транзитная запись об ожидающем подтверждения чекауте.
// Ключ — id pre_checkout_query, живёт в трекере с TTL, на диск не пишется.
type PendingCheckout struct {
	PayerID    int64  `json:"payer_id"`
	ProductID  string `json:"product_id"`
	ObservedAt int64  `json:"observed_at"` // epoch millis
}

// PaymentRecord долговременная запись о завершённом платеже.
// charge_id глобально уникален — это ключ идемпотентности: повторное
// событие с тем же charge_id не создаёт дубликат.
type PaymentRecord struct {
	ID               int64      `json:"id" db:"id"`
	PayerID          int64      `json:"payer_id" db:"payer_id"`
	PayerUsername    string     `json:"payer_username" db:"payer_username"`
	ChargeID         string     `json:"charge_id" db:"charge_id"`
	ProviderChargeID string     `json:"provider_charge_id" db:"provider_charge_id"`
	ProductID        string     `json:"product_id" db:"product_id"`
	Amount           int64      `json:"amount" db:"amount"`         // оплачено звёзд
	Quantity         int64      `json:"quantity" db:"quantity"`     // выдано единиц товара
	CreatedAt        int64      `json:"created_at" db:"created_at"` // epoch millis события платежа
	RecordedAt       time.Time  `json:"recorded_at" db:"recorded_at"`
	Refunded         bool       `json:"refunded" db:"refunded"`
	RefundedAt       *time.Time `json:"refunded_at,omitempty" db:"refunded_at"`
}

// FailedDeliveryEntry запись о захваченном, но не исполненном платеже.
// Append-only журнал для оператора, программно не читается.
// charge_id здесь — единственная ручка для ручной сверки и возврата.
type FailedDeliveryEntry struct {
	ID        int64     `json:"id" db:"id"`
	PayerID   int64     `json:"payer_id" db:"payer_id"`
	ChargeID  string    `json:"charge_id" db:"charge_id"`
	Error     string    `json:"error" db:"error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
