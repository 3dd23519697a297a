package repository

import (
	"context"

	"github.com/Domenick1991/bookingadmin/internal/domain"
)

// Columns read for every booking row, in select order.
var BookingColumns = []string{
	"id",
	"full_name",
	"email",
	"phone",
	"amount",
	"razorpay_order_id",
	"payment_id",
	"payment_status",
	"created_at",
}

// DescriptiveColumns are only read when the dashboard shows them.
var DescriptiveColumns = []string{"ticket_category", "affiliation"}

// ListQuery selects rows [From, To] (both inclusive) ordered newest first.
type ListQuery struct {
	From        int
	To          int
	Status      *domain.PaymentStatus
	AccessToken string
}

type BookingRepository interface {
	List(ctx context.Context, q ListQuery) ([]domain.Booking, int, error)
}

func columns(descriptive bool) []string {
	cols := append([]string{}, BookingColumns...)
	if descriptive {
		cols = append(cols, DescriptiveColumns...)
	}
	return cols
}
