package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/Domenick1991/bookingadmin/internal/repository"
)

var ErrInvalidPageSize = errors.New("page size must be positive")

type Query struct {
	Page        int
	PageSize    int
	Status      *domain.PaymentStatus
	AccessToken string
}

// Page is one page of bookings plus the total number of matching rows.
type Page struct {
	Rows     []domain.Booking
	Total    int
	Page     int
	PageSize int
}

type BookingUseCase interface {
	FetchBookings(ctx context.Context, q Query) (*Page, error)
}

type BookingService struct {
	repo repository.BookingRepository
}

func NewBookingService(repo repository.BookingRepository) *BookingService {
	return &BookingService{repo: repo}
}

// Range returns the inclusive record offsets of a 1-indexed page.
func Range(page, pageSize int) (from, to int) {
	from = (page - 1) * pageSize
	to = from + pageSize - 1
	return from, to
}

// FetchBookings reads one page, newest first. Every call goes to the backend.
func (s *BookingService) FetchBookings(ctx context.Context, q Query) (*Page, error) {
	if q.PageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}

	status := q.Status
	if status != nil && *status == "" {
		status = nil
	}

	from, to := Range(q.Page, q.PageSize)
	rows, total, err := s.repo.List(ctx, repository.ListQuery{
		From:        from,
		To:          to,
		Status:      status,
		AccessToken: q.AccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch bookings page %d: %w", q.Page, err)
	}
	if rows == nil {
		rows = []domain.Booking{}
	}

	return &Page{
		Rows:     rows,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

var _ BookingUseCase = (*BookingService)(nil)
