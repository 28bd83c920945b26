package invoiceController

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/admin/tg-bots/store-bot/internal/domain"
)

type fakePayment struct {
	link    string
	product *domain.Product
	err     error

	gotPayerID   int64
	gotProductID string
}

func (f *fakePayment) IssueInvoice(ctx context.Context, payerID int64, productID string) (string, *domain.Product, error) {
	f.gotPayerID = payerID
	f.gotProductID = productID
	if f.err != nil {
		return "", nil, f.err
	}
	return f.link, f.product, nil
}

func (f *fakePayment) HandlePreCheckout(ctx context.Context, query *domain.PreCheckoutQuery) error {
	return nil
}

func (f *fakePayment) HandleSuccessfulPayment(ctx context.Context, payer *domain.TelegramUser, chatID int64, pay *domain.SuccessfulPayment) error {
	return nil
}

func (f *fakePayment) Refund(ctx context.Context, chargeID string, requestedBy int64) (*domain.PaymentRecord, error) {
	return nil, nil
}

func newTestRouter(payment *fakePayment) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(payment, slog.New(slog.DiscardHandler)).RegisterRoutes(router)
	return router
}

func doCreateInvoice(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/create-invoice", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateInvoice_Success(t *testing.T) {
	payment := &fakePayment{
		link: "https://t.me/$invoice",
		product: &domain.Product{
			ID:       "package_mini",
			Price:    25,
			Quantity: 250,
			Title:    "Мини-пакет",
		},
	}
	router := newTestRouter(payment)

	rec := doCreateInvoice(t, router, `{"userId":100,"productId":"package_mini"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(100), payment.gotPayerID)
	require.Equal(t, "package_mini", payment.gotProductID)

	var resp CreateInvoiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "https://t.me/$invoice", resp.InvoiceLink)
	require.NotNil(t, resp.Product)
	require.Equal(t, int64(25), resp.Product.Price)
}

func TestCreateInvoice_InvalidBody(t *testing.T) {
	router := newTestRouter(&fakePayment{})

	rec := doCreateInvoice(t, router, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateInvoice_MissingParameters(t *testing.T) {
	router := newTestRouter(&fakePayment{err: domain.ErrMissingParameter})

	rec := doCreateInvoice(t, router, `{"userId":0,"productId":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "required")
}

func TestCreateInvoice_UnknownProduct(t *testing.T) {
	router := newTestRouter(&fakePayment{err: domain.ErrUnknownProduct})

	rec := doCreateInvoice(t, router, `{"userId":100,"productId":"nope"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "unknown product")
}

func TestCreateInvoice_ProviderFailure(t *testing.T) {
	router := newTestRouter(&fakePayment{err: errors.New("telegram api down")})

	rec := doCreateInvoice(t, router, `{"userId":100,"productId":"package_mini"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
