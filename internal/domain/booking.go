package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusPending PaymentStatus = "pending"
)

// Normalize lowercases the status as stored by the payment provider.
func (s PaymentStatus) Normalize() PaymentStatus {
	return PaymentStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

func (s PaymentStatus) Known() bool {
	switch s.Normalize() {
	case PaymentStatusPaid, PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusPending:
		return true
	}
	return false
}

// Class groups statuses for display. paid and success render the same way.
func (s PaymentStatus) Class() string {
	switch s.Normalize() {
	case PaymentStatusPaid, PaymentStatusSuccess:
		return "paid"
	case PaymentStatusFailed:
		return "failed"
	case PaymentStatusPending:
		return "pending"
	default:
		return "unknown"
	}
}

func (s PaymentStatus) Label() string {
	if strings.TrimSpace(string(s)) == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(string(s))
}

// Booking is a payment/registration record owned by the backend. The console
// never writes it.
type Booking struct {
	ID            string        `json:"id"`
	FullName      *string       `json:"full_name"`
	Email         *string       `json:"email"`
	Phone         *string       `json:"phone"`
	Amount        Amount        `json:"amount"`
	OrderID       *string       `json:"razorpay_order_id"`
	PaymentID     *string       `json:"payment_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`

	TicketCategory *string `json:"ticket_category,omitempty"`
	Affiliation    *string `json:"affiliation,omitempty"`
}

// Value dereferences an optional column, treating NULL as empty.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func StringPtr(s string) *string {
	return &s
}

// Amount is a currency value. The REST API may encode numeric columns either
// as JSON numbers or as strings.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", data, err)
	}
	*a = Amount(f)
	return nil
}
