package failedDeliveryRepo

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/admin/tg-bots/store-bot/internal/domain"
	"github.com/admin/tg-bots/store-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/store-bot/internal/ports/repository"
)

type Repository struct {
	db  persistence.Persistence
	Log *slog.Logger
}

// New создаёт репозиторий журнала неисполненных поставок
func New(db persistence.Persistence, log *slog.Logger) ports.IFailedDeliveryRepo {
	return &Repository{
		db:  db,
		Log: log,
	}
}

// Append дописывает запись в журнал. Журнал append-only: ни обновлений,
// ни чтений из кода — читает его оператор.
func (r *Repository) Append(ctx context.Context, entry *domain.FailedDeliveryEntry) error {
	query := `INSERT INTO failed_deliveries (payer_id, charge_id, error, created_at)
		VALUES ($1, $2, $3, $4)`

	err := r.db.Exec(ctx, query,
		entry.PayerID,
		entry.ChargeID,
		entry.Error,
		entry.CreatedAt,
	)
	if err != nil {
		r.Log.Error("failed to append failed delivery entry",
			"error", err,
			"charge_id", entry.ChargeID,
		)
		return fmt.Errorf("failed to append failed delivery entry: %w", err)
	}

	r.Log.Debug("failed delivery entry appended", "charge_id", entry.ChargeID)
	return nil
}
