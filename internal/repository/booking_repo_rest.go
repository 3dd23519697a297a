package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Domenick1991/bookingadmin/internal/backend"
	"github.com/Domenick1991/bookingadmin/internal/domain"
)

// Selector is the part of the backend client the REST repository needs.
type Selector interface {
	Select(ctx context.Context, accessToken string, q backend.SelectQuery) (*backend.SelectResult, error)
}

// RESTBookingRepository reads bookings through the backend's REST API using
// the signed-in admin's token, so the backend enforces authorization on every
// read.
type RESTBookingRepository struct {
	client      Selector
	table       string
	descriptive bool
}

func NewRESTBookingRepository(client Selector, table string, descriptive bool) BookingRepository {
	return &RESTBookingRepository{client: client, table: table, descriptive: descriptive}
}

func (r *RESTBookingRepository) List(ctx context.Context, q ListQuery) ([]domain.Booking, int, error) {
	sq := backend.SelectQuery{
		Table:      r.table,
		Columns:    columns(r.descriptive),
		OrderBy:    "created_at",
		Descending: true,
		From:       q.From,
		To:         q.To,
	}
	if q.Status != nil {
		sq.Eq = append(sq.Eq, backend.Filter{Column: "payment_status", Value: string(*q.Status)})
	}

	res, err := r.client.Select(ctx, q.AccessToken, sq)
	if err != nil {
		return nil, 0, fmt.Errorf("select bookings: %w", err)
	}

	bookings := make([]domain.Booking, 0)
	if err := json.Unmarshal(res.Rows, &bookings); err != nil {
		return nil, 0, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, res.Total, nil
}

var _ BookingRepository = (*RESTBookingRepository)(nil)
