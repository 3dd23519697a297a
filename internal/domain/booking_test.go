package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatus_Class(t *testing.T) {
	cases := map[PaymentStatus]string{
		"paid":     "paid",
		"SUCCESS":  "paid",
		"Failed":   "failed",
		"pending":  "pending",
		"refunded": "unknown",
		"":         "unknown",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.Class(), "status %q", status)
	}
}

func TestPaymentStatus_Label(t *testing.T) {
	assert.Equal(t, "PAID", PaymentStatus("paid").Label())
	assert.Equal(t, "UNKNOWN", PaymentStatus("").Label())
	assert.Equal(t, "REFUNDED", PaymentStatus("refunded").Label())
}

func TestPaymentStatus_Known(t *testing.T) {
	assert.True(t, PaymentStatus(" Pending ").Known())
	assert.False(t, PaymentStatus("refunded").Known())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, (&Session{}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
}

func TestBooking_DecodesBackendRow(t *testing.T) {
	raw := `{"id":"b1","full_name":"Asha Rao","email":null,"phone":"+911234","amount":"1499.50",
		"razorpay_order_id":"order_1","payment_id":null,"payment_status":"paid","created_at":"2025-01-02T10:00:00Z"}`

	var b Booking
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, "Asha Rao", Value(b.FullName))
	assert.Nil(t, b.Email)
	assert.Equal(t, Amount(1499.5), b.Amount)
	assert.Equal(t, PaymentStatusPaid, b.PaymentStatus)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":250}`), &b))
	assert.Equal(t, Amount(250), b.Amount)

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"abc"}`), &b))
}
