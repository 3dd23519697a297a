package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGBookingRepository reads bookings straight from the backend's Postgres
// database. Row-level access is governed by the database role in the DSN, so
// the per-admin access token is not used here.
type PGBookingRepository struct {
	db          *pgxpool.Pool
	table       string
	descriptive bool
}

func NewBookingRepository(db *pgxpool.Pool, table string, descriptive bool) BookingRepository {
	return &PGBookingRepository{db: db, table: table, descriptive: descriptive}
}

func (r *PGBookingRepository) List(ctx context.Context, q ListQuery) ([]domain.Booking, int, error) {
	query, args := buildListSQL(r.table, r.descriptive, q)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0, q.To-q.From+1)
	total := 0
	for rows.Next() {
		var (
			b      domain.Booking
			amount float64
			status string
		)
		dest := []any{&b.ID, &b.FullName, &b.Email, &b.Phone, &amount, &b.OrderID, &b.PaymentID, &status, &b.CreatedAt}
		if r.descriptive {
			dest = append(dest, &b.TicketCategory, &b.Affiliation)
		}
		dest = append(dest, &total)

		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan booking: %w", err)
		}
		b.Amount = domain.Amount(amount)
		b.PaymentStatus = domain.PaymentStatus(status)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings: %w", err)
	}

	// The window count is only available on returned rows.
	if len(bookings) == 0 {
		countSQL, countArgs := buildCountSQL(r.table, q)
		if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count bookings: %w", err)
		}
	}
	return bookings, total, nil
}

func buildListSQL(table string, descriptive bool, q ListQuery) (string, []any) {
	selects := []string{
		"id::text",
		"full_name",
		"email",
		"phone",
		"coalesce(amount, 0)::float8",
		"razorpay_order_id",
		"payment_id",
		"coalesce(payment_status, '')",
		"created_at",
	}
	if descriptive {
		selects = append(selects, "ticket_category", "affiliation")
	}
	selects = append(selects, "count(*) OVER ()")

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(pgx.Identifier{table}.Sanitize())

	args := []any{q.From, q.To - q.From + 1}
	if q.Status != nil {
		args = append(args, string(*q.Status))
		sb.WriteString(" WHERE payment_status = $3")
	}
	sb.WriteString(" ORDER BY created_at DESC OFFSET $1 LIMIT $2")
	return sb.String(), args
}

func buildCountSQL(table string, q ListQuery) (string, []any) {
	query := "SELECT count(*) FROM " + pgx.Identifier{table}.Sanitize()
	if q.Status != nil {
		return query + " WHERE payment_status = $1", []any{string(*q.Status)}
	}
	return query, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
