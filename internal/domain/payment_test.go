package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvoicePayload_EncodeParse(t *testing.T) {
	payload := InvoicePayload{
		ProductID: "package_mini",
		PayerID:   100,
		IssuedAt:  1756000000000,
	}

	encoded, err := payload.Encode()
	require.NoError(t, err)

	parsed, err := ParseInvoicePayload(encoded)
	require.NoError(t, err)
	require.Equal(t, payload, *parsed)
}

func TestParseInvoicePayload_NotJSON(t *testing.T) {
	_, err := ParseInvoicePayload("not json at all")
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseInvoicePayload_MissingFields(t *testing.T) {
	_, err := ParseInvoicePayload(`{"product_id":"","payer_id":0}`)
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseInvoicePayload(`{"payer_id":100}`)
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseInvoicePayload(`{"product_id":"package_mini"}`)
	require.ErrorIs(t, err, ErrInvalidPayload)
}
