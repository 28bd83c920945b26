package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admin/tg-bots/store-bot/internal/domain"
)

func TestNew_RejectsDuplicateID(t *testing.T) {
	_, err := New([]domain.Product{
		{ID: "p1", Price: 10, Quantity: 100, Title: "P1"},
		{ID: "p1", Price: 20, Quantity: 200, Title: "P1 again"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate product id")
}

func TestNew_RejectsNonPositivePrice(t *testing.T) {
	_, err := New([]domain.Product{
		{ID: "p1", Price: 0, Quantity: 100, Title: "P1"},
	})
	require.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestNew_RejectsNonPositiveQuantity(t *testing.T) {
	_, err := New([]domain.Product{
		{ID: "p1", Price: 10, Quantity: -1, Title: "P1"},
	})
	require.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestNew_RejectsEmptyID(t *testing.T) {
	_, err := New([]domain.Product{
		{ID: "", Price: 10, Quantity: 100, Title: "P1"},
	})
	require.ErrorIs(t, err, domain.ErrMissingParameter)
}

func TestGet_KnownProduct(t *testing.T) {
	c := Default()

	p, err := c.Get("package_mini")
	require.NoError(t, err)
	require.Equal(t, int64(25), p.Price)
	require.Equal(t, int64(250), p.Quantity)
}

func TestGet_UnknownProduct(t *testing.T) {
	c := Default()

	_, err := c.Get("no_such_package")
	require.True(t, errors.Is(err, domain.ErrUnknownProduct))
}

func TestGet_ReturnsCopy(t *testing.T) {
	c := Default()

	p1, err := c.Get("package_mini")
	require.NoError(t, err)
	p1.Price = 1

	p2, err := c.Get("package_mini")
	require.NoError(t, err)
	require.Equal(t, int64(25), p2.Price)
}

func TestAll_ReturnsEveryProduct(t *testing.T) {
	c := Default()
	require.Len(t, c.All(), 3)
}
