package payment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/require"

	"github.com/admin/tg-bots/store-bot/internal/domain"
	paymentPort "github.com/admin/tg-bots/store-bot/internal/ports/payment"
	"github.com/admin/tg-bots/store-bot/internal/usecases/catalog"
	"github.com/admin/tg-bots/store-bot/internal/usecases/payment"
)

const (
	testPayerID = int64(777001)
	testChatID  = int64(777001)
	testAdminID = int64(424242)
)

type fakePaymentRepo struct {
	mu      sync.Mutex
	records map[string]*domain.PaymentRecord
	nextID  int64

	createErr error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{records: make(map[string]*domain.PaymentRecord)}
}

func (r *fakePaymentRepo) Create(_ context.Context, record *domain.PaymentRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return false, r.createErr
	}
	if _, exists := r.records[record.ChargeID]; exists {
		return false, nil
	}
	r.nextID++
	cp := *record
	cp.ID = r.nextID
	r.records[record.ChargeID] = &cp
	return true, nil
}

func (r *fakePaymentRepo) GetByChargeID(_ context.Context, chargeID string) (*domain.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[chargeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, chargeID)
	}
	cp := *rec
	return &cp, nil
}

func (r *fakePaymentRepo) MarkRefunded(_ context.Context, chargeID string, refundedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[chargeID]
	if !ok || rec.Refunded {
		return false, nil
	}
	rec.Refunded = true
	rec.RefundedAt = &refundedAt
	return true, nil
}

func (r *fakePaymentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakeFailedRepo struct {
	mu      sync.Mutex
	entries []domain.FailedDeliveryEntry
}

func (r *fakeFailedRepo) Append(_ context.Context, entry *domain.FailedDeliveryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

type fakePending struct {
	mu    sync.Mutex
	items map[string]domain.PendingCheckout
}

func newFakePending() *fakePending {
	return &fakePending{items: make(map[string]domain.PendingCheckout)}
}

func (p *fakePending) Put(_ context.Context, queryID string, checkout domain.PendingCheckout) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[queryID] = checkout
	return nil
}

func (p *fakePending) Get(_ context.Context, queryID string) (*domain.PendingCheckout, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.items[queryID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &c, nil
}

func (p *fakePending) Delete(_ context.Context, queryID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.items, queryID)
	return nil
}

type answeredQuery struct {
	queryID string
	ok      bool
	reason  string
}

type fakeProvider struct {
	mu          sync.Mutex
	invoiceReqs []paymentPort.CreateInvoiceLinkRequest
	answers     []answeredQuery
	refunds     []string
	invoiceErr  error
	refundErr   error
	invoiceLink string
}

func (f *fakeProvider) CreateInvoiceLink(_ context.Context, req paymentPort.CreateInvoiceLinkRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoiceReqs = append(f.invoiceReqs, req)
	if f.invoiceErr != nil {
		return "", f.invoiceErr
	}
	if f.invoiceLink == "" {
		return "https://t.me/$test-invoice", nil
	}
	return f.invoiceLink, nil
}

func (f *fakeProvider) AnswerPreCheckout(_ context.Context, queryID string, ok bool, errorMessage *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reason := ""
	if errorMessage != nil {
		reason = *errorMessage
	}
	f.answers = append(f.answers, answeredQuery{queryID: queryID, ok: ok, reason: reason})
	return nil
}

func (f *fakeProvider) RefundStarPayment(_ context.Context, _ int64, chargeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunds = append(f.refunds, chargeID)
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
}

func (f *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeTelegram) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, _ map[string]interface{}) error {
	return f.SendMessage(ctx, chatID, text)
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (f *fakeAlerter) SendAlert(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, message)
	return nil
}

type fakeTxLog struct {
	mu     sync.Mutex
	events []domain.TransactionEvent
}

func (f *fakeTxLog) Publish(_ context.Context, event domain.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeTxLog) byType(t domain.TransactionEventType) []domain.TransactionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TransactionEvent
	for _, e := range f.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	svc      *payment.Service
	repo     *fakePaymentRepo
	failed   *fakeFailedRepo
	pending  *fakePending
	provider *fakeProvider
	tg       *fakeTelegram
	alerter  *fakeAlerter
	txlog    *fakeTxLog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat, err := catalog.New([]domain.Product{
		{ID: "package_mini", Price: 25, Quantity: 250, Title: "Мини-пакет", Description: "250 монет"},
		{ID: "package_max", Price: 500, Quantity: 6000, Title: "Максимальный пакет", Description: "6000 монет"},
	})
	require.NoError(t, err)

	env := &testEnv{
		repo:     newFakePaymentRepo(),
		failed:   &fakeFailedRepo{},
		pending:  newFakePending(),
		provider: &fakeProvider{},
		tg:       &fakeTelegram{},
		alerter:  &fakeAlerter{},
		txlog:    &fakeTxLog{},
	}
	env.svc = payment.New(
		cat,
		env.repo,
		env.failed,
		env.pending,
		env.provider,
		env.tg,
		env.alerter,
		env.txlog,
		[]int64{testAdminID},
		slog.New(slog.DiscardHandler),
	)
	return env
}

func validPayload(t *testing.T, productID string) string {
	t.Helper()
	payload := domain.InvoicePayload{ProductID: productID, PayerID: testPayerID, IssuedAt: time.Now().UnixMilli()}
	encoded, err := payload.Encode()
	require.NoError(t, err)
	return encoded
}

func preCheckout(t *testing.T, queryID string, amount int64, payload string) *domain.PreCheckoutQuery {
	t.Helper()
	return &domain.PreCheckoutQuery{
		ID:             queryID,
		From:           &domain.TelegramUser{ID: testPayerID},
		Currency:       "XTR",
		TotalAmount:    amount,
		InvoicePayload: payload,
	}
}

func successfulPayment(amount int64, chargeID, payload string) (*domain.TelegramUser, *domain.SuccessfulPayment) {
	username := "buyer"
	payer := &domain.TelegramUser{ID: testPayerID, Username: &username}
	return payer, &domain.SuccessfulPayment{
		Currency:                "XTR",
		TotalAmount:             amount,
		InvoicePayload:          payload,
		TelegramPaymentChargeID: chargeID,
		ProviderPaymentChargeID: "prov_" + chargeID,
	}
}

func TestIssueInvoice_UsesCatalogPriceNotCallerInput(t *testing.T) {
	env := newTestEnv(t)

	link, product, err := env.svc.IssueInvoice(context.Background(), testPayerID, "package_mini")
	require.NoError(t, err)
	require.NotEmpty(t, link)
	require.Equal(t, int64(25), product.Price)
	require.Equal(t, int64(250), product.Quantity)

	require.Len(t, env.provider.invoiceReqs, 1)
	req := env.provider.invoiceReqs[0]
	require.Equal(t, int64(25), req.Amount)
	require.Equal(t, "XTR", req.Currency)

	payload, err := domain.ParseInvoicePayload(req.Payload)
	require.NoError(t, err)
	require.Equal(t, "package_mini", payload.ProductID)
	require.Equal(t, testPayerID, payload.PayerID)
	require.NotZero(t, payload.IssuedAt)

	require.Len(t, env.txlog.byType(domain.TxEventInvoiceCreated), 1)
}

func TestIssueInvoice_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.svc.IssueInvoice(context.Background(), testPayerID, "package_nonexistent")
	require.ErrorIs(t, err, domain.ErrUnknownProduct)
	require.Empty(t, env.provider.invoiceReqs)
}

func TestIssueInvoice_MissingParameters(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.svc.IssueInvoice(context.Background(), 0, "package_mini")
	require.ErrorIs(t, err, domain.ErrMissingParameter)

	_, _, err = env.svc.IssueInvoice(context.Background(), testPayerID, "")
	require.ErrorIs(t, err, domain.ErrMissingParameter)
}

func TestIssueInvoice_ProviderFailureSurfaced(t *testing.T) {
	env := newTestEnv(t)
	env.provider.invoiceErr = errors.New("telegram API error [code=400]")

	_, _, err := env.svc.IssueInvoice(context.Background(), testPayerID, "package_mini")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invoice creation failed")
}

func TestPreCheckout_Approved(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.HandlePreCheckout(context.Background(), preCheckout(t, "q1", 25, validPayload(t, "package_mini")))
	require.NoError(t, err)

	require.Len(t, env.provider.answers, 1)
	require.True(t, env.provider.answers[0].ok)

	pending, err := env.pending.Get(context.Background(), "q1")
	require.NoError(t, err)
	require.Equal(t, testPayerID, pending.PayerID)
	require.Equal(t, "package_mini", pending.ProductID)

	require.Len(t, env.txlog.byType(domain.TxEventPreCheckout), 1)
	require.Empty(t, env.alerter.alerts)
}

func TestPreCheckout_PriceMismatchIsFraudSignal(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.HandlePreCheckout(context.Background(), preCheckout(t, "q1", 30, validPayload(t, "package_mini")))
	require.NoError(t, err)

	require.Len(t, env.provider.answers, 1)
	require.False(t, env.provider.answers[0].ok)
	require.Equal(t, "price mismatch", env.provider.answers[0].reason)

	// трекер пуст, алерт ушёл
	require.Empty(t, env.pending.items)
	require.Len(t, env.alerter.alerts, 1)
	require.Len(t, env.txlog.byType(domain.TxEventFraudAlert), 1)
}

func TestPreCheckout_InvalidPayloadRejected(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.HandlePreCheckout(context.Background(), preCheckout(t, "q1", 25, "{not json"))
	require.NoError(t, err)

	require.Len(t, env.provider.answers, 1)
	require.False(t, env.provider.answers[0].ok)
	require.Equal(t, "invalid payload", env.provider.answers[0].reason)
	require.Empty(t, env.pending.items)
}

func TestPreCheckout_UnknownProductRejected(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.HandlePreCheckout(context.Background(), preCheckout(t, "q1", 25, validPayload(t, "package_gone")))
	require.NoError(t, err)

	require.Len(t, env.provider.answers, 1)
	require.False(t, env.provider.answers[0].ok)
	require.Equal(t, "unknown product", env.provider.answers[0].reason)
}

func TestSuccessfulPayment_CreatesRecordAndDelivers(t *testing.T) {
	env := newTestEnv(t)

	payer, pay := successfulPayment(25, "abc", validPayload(t, "package_mini"))
	err := env.svc.HandleSuccessfulPayment(context.Background(), payer, testChatID, pay)
	require.NoError(t, err)

	record, err := env.repo.GetByChargeID(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "package_mini", record.ProductID)
	require.Equal(t, int64(25), record.Amount)
	require.Equal(t, int64(250), record.Quantity)
	require.False(t, record.Refunded)
	require.Equal(t, "buyer", record.PayerUsername)

	require.Len(t, env.tg.sent, 1)
	require.Equal(t, testChatID, env.tg.sent[0].chatID)
	require.Len(t, env.txlog.byType(domain.TxEventSuccess), 1)
	require.Empty(t, env.failed.entries)
}

func TestSuccessfulPayment_DuplicateChargeIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	payer, pay := successfulPayment(25, "abc", validPayload(t, "package_mini"))
	require.NoError(t, env.svc.HandleSuccessfulPayment(context.Background(), payer, testChatID, pay))
	require.NoError(t, env.svc.HandleSuccessfulPayment(context.Background(), payer, testChatID, pay))

	require.Equal(t, 1, env.repo.count())
	require.Len(t, env.tg.sent, 1) // одна доставка, не две
	require.Len(t, env.txlog.byType(domain.TxEventSuccess), 1)
}

func TestSuccessfulPayment_UnknownProductLeavesTrail(t *testing.T) {
	env := newTestEnv(t)

	payer, pay := successfulPayment(25, "charge_x", validPayload(t, "package_gone"))
	err := env.svc.HandleSuccessfulPayment(context.Background(), payer, testChatID, pay)
	require.Error(t, err)
	require.True(t, domain.IsBusinessError(err))

	require.Equal(t, 0, env.repo.count())

	require.Len(t, env.failed.entries, 1)
	require.Equal(t, "charge_x", env.failed.entries[0].ChargeID)

	// плательщик получил сообщение с charge_id для поддержки
	require.Len(t, env.tg.sent, 1)
	require.Contains(t, env.tg.sent[0].text, "charge_x")

	require.Len(t, env.alerter.alerts, 1)
	require.Contains(t, env.alerter.alerts[0], "charge_x")
	require.Len(t, env.txlog.byType(domain.TxEventDeliveryFailed), 1)
}

func TestSuccessfulPayment_AmountMismatchLeavesTrail(t *testing.T) {
	env := newTestEnv(t)

	payer, pay := successfulPayment(30, "charge_y", validPayload(t, "package_mini"))
	err := env.svc.HandleSuccessfulPayment(context.Background(), payer, testChatID, pay)
	require.Error(t, err)

	require.Equal(t, 0, env.repo.count())
	require.Len(t, env.failed.entries, 1)
	require.Equal(t, "charge_y", env.failed.entries[0].ChargeID)
}

func TestSuccessfulPayment_DeliverySendFailureLeavesTrail(t *testing.T) {
	env := newTestEnv(t)
	env.tg.sendErr = errors.New("telegram unavailable")

	payer, pay := successfulPayment(25, "charge_z", validPayload(t, "package_mini"))
	err := env.svc.HandleSuccessfulPayment(context.Background(), payer, testChatID, pay)
	require.Error(t, err)

	// запись создана (деньги списаны), но поставка не прошла — след остался
	require.Equal(t, 1, env.repo.count())
	require.Len(t, env.failed.entries, 1)
	require.Equal(t, "charge_z", env.failed.entries[0].ChargeID)
	require.Len(t, env.alerter.alerts, 1)
}

func TestRefund_Success(t *testing.T) {
	env := newTestEnv(t)

	payer, pay := successfulPayment(25, "abc", validPayload(t, "package_mini"))
	require.NoError(t, env.svc.HandleSuccessfulPayment(context.Background(), payer, testChatID, pay))

	record, err := env.svc.Refund(context.Background(), "abc", testAdminID)
	require.NoError(t, err)
	require.True(t, record.Refunded)
	require.NotNil(t, record.RefundedAt)
	require.Equal(t, []string{"abc"}, env.provider.refunds)
	require.Len(t, env.txlog.byType(domain.TxEventRefund), 1)

	stored, err := env.repo.GetByChargeID(context.Background(), "abc")
	require.NoError(t, err)
	require.True(t, stored.Refunded)
}

func TestRefund_IdempotentSecondCallDoesNotHitProvider(t *testing.T) {
	env := newTestEnv(t)

	payer, pay := successfulPayment(25, "abc", validPayload(t, "package_mini"))
	require.NoError(t, env.svc.HandleSuccessfulPayment(context.Background(), payer, testChatID, pay))

	_, err := env.svc.Refund(context.Background(), "abc", testAdminID)
	require.NoError(t, err)

	_, err = env.svc.Refund(context.Background(), "abc", testAdminID)
	require.ErrorIs(t, err, domain.ErrAlreadyRefunded)
	require.Len(t, env.provider.refunds, 1)
}

func TestRefund_UnknownChargeNoProviderCall(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Refund(context.Background(), "missing", testAdminID)
	require.ErrorIs(t, err, domain.ErrPaymentNotFound)
	require.Empty(t, env.provider.refunds)
}

func TestRefund_Unauthorized(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Refund(context.Background(), "abc", testPayerID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.Empty(t, env.provider.refunds)
}

func TestRefund_ProviderFailureKeepsRecordUnrefunded(t *testing.T) {
	env := newTestEnv(t)

	payer, pay := successfulPayment(25, "abc", validPayload(t, "package_mini"))
	require.NoError(t, env.svc.HandleSuccessfulPayment(context.Background(), payer, testChatID, pay))

	env.provider.refundErr = errors.New("provider timeout")
	_, err := env.svc.Refund(context.Background(), "abc", testAdminID)
	require.Error(t, err)

	stored, err := env.repo.GetByChargeID(context.Background(), "abc")
	require.NoError(t, err)
	require.False(t, stored.Refunded)
}
