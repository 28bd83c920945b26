package invoiceController

import "github.com/admin/tg-bots/store-bot/internal/domain"

// CreateInvoiceRequest запрос mini app на выставление счёта
type CreateInvoiceRequest struct {
	UserID    int64  `json:"userId"`
	ProductID string `json:"productId"`
}

// CreateInvoiceResponse ссылка на оплату и товар, за который она выставлена
type CreateInvoiceResponse struct {
	InvoiceLink string          `json:"invoiceLink"`
	Product     *domain.Product `json:"product"`
}
