package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/bookingadmin/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the single process-wide home of admin sessions. Entries
// disappear on Delete or once their TTL elapses.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
