package domain

// TransactionEventType тип записи в транзакционном журнале
type TransactionEventType string

const (
	TxEventInvoiceCreated TransactionEventType = "invoice_created"
	TxEventPreCheckout    TransactionEventType = "pre_checkout"
	TxEventSuccess        TransactionEventType = "success"
	TxEventFraudAlert     TransactionEventType = "fraud_alert"
	TxEventDeliveryFailed TransactionEventType = "delivery_failed"
	TxEventRefund         TransactionEventType = "refund"
)

// TransactionEvent запись аудита платёжного цикла, публикуется во внешний
// журнал транзакций. fraud_alert и delivery_failed — alert-уровень,
// остальные — обычный аудит.
type TransactionEvent struct {
	EventID   string               `json:"event_id"` // uuid, ключ дедупликации для потребителей журнала
	Type      TransactionEventType `json:"type"`
	PayerID   int64                `json:"payer_id"`
	ProductID string               `json:"product_id,omitempty"`
	Amount    int64                `json:"amount,omitempty"`
	ChargeID  string               `json:"charge_id,omitempty"`
	Detail    string               `json:"detail,omitempty"`
	At        int64                `json:"at"` // epoch millis
}
