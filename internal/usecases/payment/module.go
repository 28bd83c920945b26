package payment

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/store-bot/internal/domain"
	"github.com/admin/tg-bots/store-bot/internal/ports/cache"
	paymentPort "github.com/admin/tg-bots/store-bot/internal/ports/payment"
	"github.com/admin/tg-bots/store-bot/internal/ports/repository"
	"github.com/admin/tg-bots/store-bot/internal/ports/service"
	"github.com/admin/tg-bots/store-bot/internal/usecases/catalog"
)

// starsCurrency валюта Telegram Stars
const starsCurrency = "XTR"

// Причины отклонения pre_checkout_query. Уходят провайдеру как error_message
// и показываются плательщику.
const (
	reasonInvalidPayload = "invalid payload"
	reasonUnknownProduct = "unknown product"
	reasonPriceMismatch  = "price mismatch"
	reasonTryAgainLater  = "try again later"
)

// Service платёжный цикл: выпуск invoice, валидация pre_checkout,
// фиксация и исполнение платежа, административный возврат.
type Service struct {
	Catalog         *catalog.Catalog
	PaymentRepo     repository.IPaymentRepo
	FailedRepo      repository.IFailedDeliveryRepo
	Pending         cache.IPendingCheckouts
	Provider        paymentPort.IPaymentProvider // Telegram Stars провайдер
	TelegramService service.ITelegramService
	AlerterService  service.IAlerterService // может быть nil
	TxLog           service.ITransactionLog // может быть nil
	Admins          map[int64]struct{}
	Log             *slog.Logger

	now func() time.Time // подменяется в тестах
}

func New(
	cat *catalog.Catalog,
	paymentRepo repository.IPaymentRepo,
	failedRepo repository.IFailedDeliveryRepo,
	pending cache.IPendingCheckouts,
	provider paymentPort.IPaymentProvider,
	telegramService service.ITelegramService,
	alerterService service.IAlerterService,
	txLog service.ITransactionLog,
	adminIDs []int64,
	log *slog.Logger,
) *Service {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Service{
		Catalog:         cat,
		PaymentRepo:     paymentRepo,
		FailedRepo:      failedRepo,
		Pending:         pending,
		Provider:        provider,
		TelegramService: telegramService,
		AlerterService:  alerterService,
		TxLog:           txLog,
		Admins:          admins,
		Log:             log,
		now:             time.Now,
	}
}

// IssueInvoice создаёт ссылку на invoice для продукта каталога.
// Цена, количество и описание берутся только из каталога — данные вызывающего
// игнорируются, дешёвый invoice на дорогой продукт запросить нельзя.
func (s *Service) IssueInvoice(ctx context.Context, payerID int64, productID string) (string, *domain.Product, error) {
	if payerID == 0 || productID == "" {
		return "", nil, domain.ErrMissingParameter
	}

	product, err := s.Catalog.Get(productID)
	if err != nil {
		return "", nil, err
	}

	payload := domain.InvoicePayload{
		ProductID: product.ID,
		PayerID:   payerID,
		IssuedAt:  s.now().UnixMilli(),
	}
	encoded, err := payload.Encode()
	if err != nil {
		return "", nil, err
	}

	link, err := s.Provider.CreateInvoiceLink(ctx, paymentPort.CreateInvoiceLinkRequest{
		Title:       product.Title,
		Description: product.Description,
		Payload:     encoded,
		Currency:    starsCurrency,
		Amount:      product.Price,
	})
	if err != nil {
		s.Log.Error("failed to create invoice link",
			"error", err,
			"payer_id", payerID,
			"product_id", product.ID,
		)
		return "", nil, fmt.Errorf("invoice creation failed: %w", err)
	}

	s.publishTx(ctx, domain.TransactionEvent{
		Type:      domain.TxEventInvoiceCreated,
		PayerID:   payerID,
		ProductID: product.ID,
		Amount:    product.Price,
		At:        s.now().UnixMilli(),
	})

	s.Log.Info("invoice link created",
		"payer_id", payerID,
		"product_id", product.ID,
		"amount", product.Price,
	)

	return link, product, nil
}

// HandlePreCheckout валидирует pre_checkout_query до списания средств.
// Каждая ветка отвечает провайдеру ровно один раз; при внутренней ошибке
// ответ — отклонение (fail-closed), неотвеченных query не остаётся.
func (s *Service) HandlePreCheckout(ctx context.Context, query *domain.PreCheckoutQuery) error {
	if query == nil || query.From == nil {
		return fmt.Errorf("invalid pre_checkout_query")
	}

	payload, err := domain.ParseInvoicePayload(query.InvoicePayload)
	if err != nil {
		s.Log.Warn("pre_checkout payload parse failed",
			"error", err,
			"query_id", query.ID,
			"payer_id", query.From.ID,
		)
		return s.reject(ctx, query.ID, reasonInvalidPayload)
	}

	product, err := s.Catalog.Get(payload.ProductID)
	if err != nil {
		s.Log.Warn("pre_checkout for unknown product",
			"query_id", query.ID,
			"payer_id", query.From.ID,
			"product_id", payload.ProductID,
		)
		return s.reject(ctx, query.ID, reasonUnknownProduct)
	}

	// Критический инвариант: заявленная сумма обязана совпадать с ценой
	// каталога. Расхождение — сигнал о подмене цены, не пользовательская ошибка.
	if query.TotalAmount != product.Price {
		s.alert(ctx, fmt.Sprintf(
			"🚨 *Price mismatch on pre_checkout*\n\n*Payer:* %d\n*Product:* %s\n*Expected:* %d⭐\n*Received:* %d⭐",
			query.From.ID, product.ID, product.Price, query.TotalAmount,
		))
		s.publishTx(ctx, domain.TransactionEvent{
			Type:      domain.TxEventFraudAlert,
			PayerID:   query.From.ID,
			ProductID: product.ID,
			Amount:    query.TotalAmount,
			Detail:    fmt.Sprintf("expected %d, received %d", product.Price, query.TotalAmount),
			At:        s.now().UnixMilli(),
		})
		s.Log.Warn("pre_checkout price mismatch",
			"query_id", query.ID,
			"payer_id", query.From.ID,
			"product_id", product.ID,
			"expected", product.Price,
			"received", query.TotalAmount,
		)
		return s.reject(ctx, query.ID, reasonPriceMismatch)
	}

	pending := domain.PendingCheckout{
		PayerID:    query.From.ID,
		ProductID:  product.ID,
		ObservedAt: s.now().UnixMilli(),
	}
	if err := s.Pending.Put(ctx, query.ID, pending); err != nil {
		s.Log.Error("failed to register pending checkout",
			"error", err,
			"query_id", query.ID,
		)
		return s.reject(ctx, query.ID, reasonTryAgainLater)
	}

	s.publishTx(ctx, domain.TransactionEvent{
		Type:      domain.TxEventPreCheckout,
		PayerID:   query.From.ID,
		ProductID: product.ID,
		Amount:    query.TotalAmount,
		At:        s.now().UnixMilli(),
	})

	if err := s.Provider.AnswerPreCheckout(ctx, query.ID, true, nil); err != nil {
		return fmt.Errorf("failed to confirm pre_checkout_query: %w", err)
	}

	s.Log.Info("pre_checkout approved",
		"query_id", query.ID,
		"payer_id", query.From.ID,
		"product_id", product.ID,
		"amount", query.TotalAmount,
	)

	return nil
}

// reject отклоняет pre_checkout_query с причиной
func (s *Service) reject(ctx context.Context, queryID, reason string) error {
	if err := s.Provider.AnswerPreCheckout(ctx, queryID, false, &reason); err != nil {
		return fmt.Errorf("failed to reject pre_checkout_query: %w", err)
	}
	return nil
}

// HandleSuccessfulPayment фиксирует подтверждённый провайдером платёж и
// выдаёт товар. Деньги уже списаны: любая ошибка после подтверждения не
// теряется молча, а оставляет след для оператора (см. failDelivery) —
// charge_id при этом сохраняется во всех трёх каналах.
func (s *Service) HandleSuccessfulPayment(ctx context.Context, payer *domain.TelegramUser, chatID int64, pay *domain.SuccessfulPayment) error {
	if payer == nil || pay == nil {
		return fmt.Errorf("invalid successful_payment")
	}
	chargeID := pay.TelegramPaymentChargeID

	payload, err := domain.ParseInvoicePayload(pay.InvoicePayload)
	if err != nil {
		return s.failDelivery(ctx, payer.ID, chatID, chargeID, fmt.Errorf("payload parse failed: %w", err))
	}

	product, err := s.Catalog.Get(payload.ProductID)
	if err != nil {
		return s.failDelivery(ctx, payer.ID, chatID, chargeID, fmt.Errorf("product reference invalid: %w", err))
	}

	// Повторная проверка суммы: провайдер подтвердил списание, но запись
	// с неверной суммой молча не принимается
	if pay.TotalAmount != product.Price {
		return s.failDelivery(ctx, payer.ID, chatID, chargeID,
			fmt.Errorf("%w: expected %d, paid %d", domain.ErrAmountMismatch, product.Price, pay.TotalAmount))
	}

	record := &domain.PaymentRecord{
		PayerID:          payer.ID,
		PayerUsername:    payer.UsernameOrEmpty(),
		ChargeID:         chargeID,
		ProviderChargeID: pay.ProviderPaymentChargeID,
		ProductID:        product.ID,
		Amount:           pay.TotalAmount,
		Quantity:         product.Quantity,
		CreatedAt:        s.now().UnixMilli(),
		RecordedAt:       s.now().UTC(),
	}

	created, err := s.PaymentRepo.Create(ctx, record)
	if err != nil {
		return s.failDelivery(ctx, payer.ID, chatID, chargeID, fmt.Errorf("failed to persist payment: %w", err))
	}
	if !created {
		// Дубликат successful_payment от провайдера: запись уже есть,
		// повторной выдачи не делаем
		s.Log.Info("duplicate successful_payment ignored",
			"charge_id", chargeID,
			"payer_id", payer.ID,
		)
		return nil
	}

	deliveryMsg := fmt.Sprintf("✅ Оплата получена!\n\nНачислено: %d монет (%s).\nСпасибо за покупку!",
		product.Quantity, product.Title)
	if err := s.TelegramService.SendMessage(ctx, chatID, deliveryMsg); err != nil {
		return s.failDelivery(ctx, payer.ID, chatID, chargeID, fmt.Errorf("delivery failed: %w", err))
	}

	s.publishTx(ctx, domain.TransactionEvent{
		Type:      domain.TxEventSuccess,
		PayerID:   payer.ID,
		ProductID: product.ID,
		Amount:    pay.TotalAmount,
		ChargeID:  chargeID,
		At:        s.now().UnixMilli(),
	})

	s.Log.Info("payment fulfilled",
		"charge_id", chargeID,
		"payer_id", payer.ID,
		"product_id", product.ID,
		"amount", pay.TotalAmount,
		"quantity", product.Quantity,
	)

	return nil
}

// failDelivery след ручного разбора: плательщик предупреждён (с charge_id
// для поддержки), запись в журнале неисполненных поставок, алерт оператору
// с указанием пути возврата
func (s *Service) failDelivery(ctx context.Context, payerID, chatID int64, chargeID string, cause error) error {
	s.Log.Error("payment captured but not fulfilled",
		"error", cause,
		"charge_id", chargeID,
		"payer_id", payerID,
	)

	supportMsg := fmt.Sprintf(
		"⚠️ Платёж получен, но при выдаче товара произошла ошибка.\nОбратитесь в поддержку и укажите код операции: %s",
		chargeID)
	if err := s.TelegramService.SendMessage(ctx, chatID, supportMsg); err != nil {
		s.Log.Warn("failed to notify payer about delivery failure",
			"error", err,
			"charge_id", chargeID,
		)
	}

	entry := &domain.FailedDeliveryEntry{
		PayerID:   payerID,
		ChargeID:  chargeID,
		Error:     cause.Error(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.FailedRepo.Append(ctx, entry); err != nil {
		// журнал недоступен — charge_id остаётся хотя бы в логе и алерте
		s.Log.Error("failed to append failed delivery entry",
			"error", err,
			"charge_id", chargeID,
		)
	}

	s.alert(ctx, fmt.Sprintf(
		"⚠️ *Payment captured, delivery failed*\n\n*Charge:* `%s`\n*Payer:* %d\n*Error:* %s\n\nRemediate manually: `/refund %s`",
		chargeID, payerID, cause.Error(), chargeID,
	))

	s.publishTx(ctx, domain.TransactionEvent{
		Type:     domain.TxEventDeliveryFailed,
		PayerID:  payerID,
		ChargeID: chargeID,
		Detail:   cause.Error(),
		At:       s.now().UnixMilli(),
	})

	return domain.WrapBusinessError(cause)
}

// Refund возврат платежа администратором по charge_id. Идемпотентен:
// повторный возврат того же платежа — ErrAlreadyRefunded без вызова
// провайдера.
func (s *Service) Refund(ctx context.Context, chargeID string, requestedBy int64) (*domain.PaymentRecord, error) {
	if _, ok := s.Admins[requestedBy]; !ok {
		s.Log.Warn("refund rejected: not an administrator",
			"requested_by", requestedBy,
			"charge_id", chargeID,
		)
		return nil, domain.ErrUnauthorized
	}
	if chargeID == "" {
		return nil, domain.ErrMissingParameter
	}

	record, err := s.PaymentRepo.GetByChargeID(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if record.Refunded {
		return nil, domain.ErrAlreadyRefunded
	}

	if err := s.Provider.RefundStarPayment(ctx, record.PayerID, chargeID); err != nil {
		s.Log.Error("provider refund failed",
			"error", err,
			"charge_id", chargeID,
			"payer_id", record.PayerID,
		)
		return nil, fmt.Errorf("provider refund failed: %w", err)
	}

	refundedAt := s.now().UTC()
	flipped, err := s.PaymentRepo.MarkRefunded(ctx, chargeID, refundedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment refunded: %w", err)
	}
	if !flipped {
		// гонка с параллельным возвратом: флаг уже выставлен
		return nil, domain.ErrAlreadyRefunded
	}
	record.Refunded = true
	record.RefundedAt = &refundedAt

	s.publishTx(ctx, domain.TransactionEvent{
		Type:      domain.TxEventRefund,
		PayerID:   record.PayerID,
		ProductID: record.ProductID,
		Amount:    record.Amount,
		ChargeID:  chargeID,
		At:        s.now().UnixMilli(),
	})

	notice := fmt.Sprintf("↩️ Выполнен возврат %d⭐ по операции %s.", record.Amount, chargeID)
	if err := s.TelegramService.SendMessage(ctx, record.PayerID, notice); err != nil {
		s.Log.Warn("failed to notify payer about refund",
			"error", err,
			"charge_id", chargeID,
		)
	}

	s.Log.Info("payment refunded",
		"charge_id", chargeID,
		"payer_id", record.PayerID,
		"amount", record.Amount,
		"requested_by", requestedBy,
	)

	return record, nil
}

// publishTx публикует событие в журнал транзакций (nil-safe, best-effort)
func (s *Service) publishTx(ctx context.Context, event domain.TransactionEvent) {
	if s.TxLog == nil {
		return
	}
	if err := s.TxLog.Publish(ctx, event); err != nil {
		s.Log.Warn("failed to publish transaction event",
			"error", err,
			"event_type", event.Type,
			"charge_id", event.ChargeID,
		)
	}
}

// alert отправляет alert-уровневое сообщение оператору (nil-safe)
func (s *Service) alert(ctx context.Context, message string) {
	if s.AlerterService == nil {
		return
	}
	if err := s.AlerterService.SendAlert(ctx, message); err != nil {
		s.Log.Warn("failed to send alert", "error", err)
	}
}
