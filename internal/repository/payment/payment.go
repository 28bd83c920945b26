package paymentRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/store-bot/internal/domain"
	"github.com/admin/tg-bots/store-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/store-bot/internal/ports/repository"
)

type paymentColumns struct {
	TableName        string
	ID               string
	PayerID          string
	PayerUsername    string
	ChargeID         string
	ProviderChargeID string
	ProductID        string
	Amount           string
	Quantity         string
	CreatedAt        string
	RecordedAt       string
	Refunded         string
	RefundedAt       string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns paymentColumns
}

// New создаёт репозиторий записей о платежах
func New(db persistence.Persistence, log *slog.Logger) ports.IPaymentRepo {
	cols := paymentColumns{
		TableName:        "payments",
		ID:               "id",
		PayerID:          "payer_id",
		PayerUsername:    "payer_username",
		ChargeID:         "charge_id",
		ProviderChargeID: "provider_charge_id",
		ProductID:        "product_id",
		Amount:           "amount",
		Quantity:         "quantity",
		CreatedAt:        "created_at",
		RecordedAt:       "recorded_at",
		Refunded:         "refunded",
		RefundedAt:       "refunded_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (12 полей)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.PayerID,
		r.columns.PayerUsername,
		r.columns.ChargeID,
		r.columns.ProviderChargeID,
		r.columns.ProductID,
		r.columns.Amount,
		r.columns.Quantity,
		r.columns.CreatedAt,
		r.columns.RecordedAt,
		r.columns.Refunded,
		r.columns.RefundedAt,
	)
}

// Create добавляет запись о платеже. charge_id уникален на уровне схемы:
// при конфликте вставка не делается и created=false — так повторное
// событие от провайдера не порождает дубликат.
func (r *Repository) Create(ctx context.Context, record *domain.PaymentRecord) (bool, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (%s) DO NOTHING`,
		r.columns.TableName,
		r.columns.PayerID,
		r.columns.PayerUsername,
		r.columns.ChargeID,
		r.columns.ProviderChargeID,
		r.columns.ProductID,
		r.columns.Amount,
		r.columns.Quantity,
		r.columns.CreatedAt,
		r.columns.RecordedAt,
		r.columns.ChargeID,
	)

	affected, err := r.db.ExecWithResult(ctx, query,
		record.PayerID,
		record.PayerUsername,
		record.ChargeID,
		record.ProviderChargeID,
		record.ProductID,
		record.Amount,
		record.Quantity,
		record.CreatedAt,
		record.RecordedAt,
	)
	if err != nil {
		r.Log.Error("failed to create payment record",
			"error", err,
			"charge_id", record.ChargeID,
			"payer_id", record.PayerID,
		)
		return false, fmt.Errorf("failed to create payment record: %w", err)
	}

	if affected == 0 {
		r.Log.Debug("payment record already exists", "charge_id", record.ChargeID)
		return false, nil
	}

	r.Log.Debug("payment record created",
		"charge_id", record.ChargeID,
		"payer_id", record.PayerID,
		"amount", record.Amount,
	)
	return true, nil
}

// GetByChargeID получает запись о платеже по charge_id
func (r *Repository) GetByChargeID(ctx context.Context, chargeID string) (*domain.PaymentRecord, error) {
	var record domain.PaymentRecord

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ChargeID,
	)

	err := r.db.Get(ctx, &record, query, chargeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("payment record not found", "charge_id", chargeID)
			return nil, fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, chargeID)
		}
		r.Log.Error("failed to get payment record",
			"error", err,
			"charge_id", chargeID,
		)
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}

	return &record, nil
}

// MarkRefunded атомарно переводит refunded false→true. Условие в WHERE
// гарантирует единственный переход: параллельный возврат того же charge_id
// получит flipped=false.
func (r *Repository) MarkRefunded(ctx context.Context, chargeID string, refundedAt time.Time) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = $1 WHERE %s = $2 AND %s = FALSE`,
		r.columns.TableName,
		r.columns.Refunded,
		r.columns.RefundedAt,
		r.columns.ChargeID,
		r.columns.Refunded,
	)

	affected, err := r.db.ExecWithResult(ctx, query, refundedAt, chargeID)
	if err != nil {
		r.Log.Error("failed to mark payment refunded",
			"error", err,
			"charge_id", chargeID,
		)
		return false, fmt.Errorf("failed to mark payment refunded: %w", err)
	}

	if affected == 0 {
		return false, nil
	}

	r.Log.Debug("payment marked refunded", "charge_id", chargeID)
	return true, nil
}
