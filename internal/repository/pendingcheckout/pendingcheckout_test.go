package pendingCheckoutRepo

import (
	"context"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/require"

	"github.com/admin/tg-bots/store-bot/internal/adapters/secondary/storage/inmemory"
	"github.com/admin/tg-bots/store-bot/internal/domain"
)

func newTestTracker() *Tracker {
	return New(inmemory.NewCache(), 15*time.Minute, slog.New(slog.DiscardHandler)).(*Tracker)
}

func TestTracker_PutGet(t *testing.T) {
	tracker := newTestTracker()
	ctx := context.Background()

	checkout := domain.PendingCheckout{
		PayerID:    100,
		ProductID:  "package_mini",
		ObservedAt: time.Now().UnixMilli(),
	}

	require.NoError(t, tracker.Put(ctx, "pcq-1", checkout))

	got, err := tracker.Get(ctx, "pcq-1")
	require.NoError(t, err)
	require.Equal(t, checkout, *got)
}

func TestTracker_GetMissing(t *testing.T) {
	tracker := newTestTracker()

	_, err := tracker.Get(context.Background(), "unknown")
	require.Error(t, err)
}

func TestTracker_Delete(t *testing.T) {
	tracker := newTestTracker()
	ctx := context.Background()

	require.NoError(t, tracker.Put(ctx, "pcq-1", domain.PendingCheckout{PayerID: 100, ProductID: "package_mini"}))
	require.NoError(t, tracker.Delete(ctx, "pcq-1"))

	_, err := tracker.Get(ctx, "pcq-1")
	require.Error(t, err)
}

func TestTracker_EntriesExpire(t *testing.T) {
	tracker := New(inmemory.NewCache(), time.Nanosecond, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	require.NoError(t, tracker.Put(ctx, "pcq-1", domain.PendingCheckout{PayerID: 100, ProductID: "package_mini"}))
	time.Sleep(5 * time.Millisecond)

	_, err := tracker.Get(ctx, "pcq-1")
	require.Error(t, err)
}
