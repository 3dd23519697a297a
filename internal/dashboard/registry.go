package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
)

// Registry keeps one View per signed-in session. A view lives as long as its
// session and is swept once the session expires.
type Registry struct {
	mu       sync.Mutex
	views    *ttlcache.Cache[string, *View]
	fetcher  Fetcher
	pageSize int
	fields   FieldSet
	log      *logrus.Entry
}

func NewRegistry(fetcher Fetcher, pageSize int, fields FieldSet, log *logrus.Entry) *Registry {
	return &Registry{
		views:    ttlcache.New[string, *View](ttlcache.WithDisableTouchOnHit[string, *View]()),
		fetcher:  fetcher,
		pageSize: pageSize,
		fields:   fields,
		log:      log,
	}
}

// View returns the session's view, creating it on first use. The session's
// current access token always replaces the one the view holds.
func (r *Registry) View(session *domain.Session) *View {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item := r.views.Get(session.ID); item != nil {
		v := item.Value()
		v.SetAccessToken(session.AccessToken)
		return v
	}

	v := NewView(r.fetcher, Options{
		PageSize:    r.pageSize,
		Fields:      r.fields,
		AccessToken: session.AccessToken,
		Log:         r.log.WithField("session_id", session.ID),
	})
	r.views.Set(session.ID, v, viewTTL(session))
	return v
}

// Drop forgets the session's view, typically at sign-out.
func (r *Registry) Drop(sessionID string) {
	r.views.Delete(sessionID)
}

// Len counts views of live sessions.
func (r *Registry) Len() int {
	return r.views.Len()
}

// Sweep releases the views of expired sessions.
func (r *Registry) Sweep() {
	r.views.DeleteExpired()
}

// RunSweeper sweeps every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

func viewTTL(session *domain.Session) time.Duration {
	if session.ExpiresAt.IsZero() {
		return ttlcache.NoTTL
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		// Expire right away rather than fall back to the cache default.
		return time.Nanosecond
	}
	return ttl
}
