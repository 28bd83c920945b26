package invoiceController

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/admin/tg-bots/store-bot/internal/domain"
	"github.com/admin/tg-bots/store-bot/internal/ports/service"
)

type InvoiceController struct {
	payment service.IPaymentUseCase
	log     *slog.Logger
}

func New(payment service.IPaymentUseCase, log *slog.Logger) *InvoiceController {
	return &InvoiceController{
		payment: payment,
		log:     log,
	}
}

func (c *InvoiceController) RegisterRoutes(r *gin.Engine) {
	r.POST("/create-invoice", c.createInvoice)
}

// createInvoice выставляет счёт на оплату звёздами для mini app
func (c *InvoiceController) createInvoice(ctx *gin.Context) {
	var req CreateInvoiceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	link, product, err := c.payment.IssueInvoice(ctx.Request.Context(), req.UserID, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingParameter):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "userId and productId are required"})
		case errors.Is(err, domain.ErrUnknownProduct):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown product"})
		default:
			c.log.Error("failed to create invoice",
				"error", err,
				"user_id", req.UserID,
				"product_id", req.ProductID,
			)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create invoice"})
		}
		return
	}

	ctx.JSON(http.StatusOK, CreateInvoiceResponse{
		InvoiceLink: link,
		Product:     product,
	})
}
