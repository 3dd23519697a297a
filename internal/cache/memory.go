package cache

import (
	"context"
	"time"

	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/jellydator/ttlcache/v3"
)

// MemorySessionStore keeps sessions in process. It is used when no Redis
// address is configured and in tests.
type MemorySessionStore struct {
	sessions *ttlcache.Cache[string, domain.Session]
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: ttlcache.New[string, domain.Session](
			ttlcache.WithDisableTouchOnHit[string, domain.Session](),
		),
	}
}

// Save stores a copy of session. A non-positive ttl keeps it until deleted.
func (s *MemorySessionStore) Save(_ context.Context, session *domain.Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	s.sessions.Set(session.ID, *session, ttl)
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	item := s.sessions.Get(id)
	if item == nil {
		return nil, ErrSessionNotFound
	}
	session := item.Value()
	return &session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.sessions.Delete(id)
	return nil
}

// Len counts live sessions.
func (s *MemorySessionStore) Len() int {
	return s.sessions.Len()
}

// Sweep drops expired sessions.
func (s *MemorySessionStore) Sweep() {
	s.sessions.DeleteExpired()
}

// OnExpire registers fn for sessions dropped by a sweep. The returned func
// unregisters it.
func (s *MemorySessionStore) OnExpire(fn func(sessionID string)) func() {
	return s.sessions.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, domain.Session]) {
		if reason == ttlcache.EvictionReasonExpired {
			fn(item.Key())
		}
	})
}

// RunSweeper sweeps every interval until ctx is done.
func (s *MemorySessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

var _ SessionStore = (*MemorySessionStore)(nil)
