package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/Domenick1991/bookingadmin/internal/metrics"
	"github.com/Domenick1991/bookingadmin/internal/service/bookings"
	"github.com/sirupsen/logrus"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// ErrStaleLoad is returned by a load that was overtaken by a newer one. Its
// result has been discarded.
var ErrStaleLoad = errors.New("load superseded by a newer request")

type Fetcher interface {
	FetchBookings(ctx context.Context, q bookings.Query) (*bookings.Page, error)
}

type Options struct {
	PageSize    int
	Fields      FieldSet
	AccessToken string
	Log         *logrus.Entry
}

// View holds one admin's dashboard state.
type View struct {
	mu sync.Mutex

	fetcher     Fetcher
	pageSize    int
	fields      FieldSet
	accessToken string
	log         *logrus.Entry

	state  State
	page   int
	total  int
	rows   []domain.Booking
	search string
	status *domain.PaymentStatus
	err    error
	seq    uint64
}

func NewView(fetcher Fetcher, opts Options) *View {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.Fields == "" {
		opts.Fields = FieldSetFull
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &View{
		fetcher:     fetcher,
		pageSize:    opts.PageSize,
		fields:      opts.Fields,
		accessToken: opts.AccessToken,
		log:         opts.Log,
		state:       StateIdle,
		page:        1,
		rows:        []domain.Booking{},
	}
}

// SetAccessToken replaces the token used by later loads, after the session
// has been refreshed.
func (v *View) SetAccessToken(token string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.accessToken = token
}

// SetStatusFilter restricts subsequent loads to one payment status; nil clears it.
func (v *View) SetStatusFilter(status *domain.PaymentStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
}

// SetSearch changes the local search string. It never contacts the backend.
func (v *View) SetSearch(search string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = search
}

// Load fetches page and applies the result unless a newer Load started in the
// meantime.
func (v *View) Load(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}

	v.mu.Lock()
	v.seq++
	token := v.seq
	v.state = StateLoading
	v.page = page
	query := bookings.Query{
		Page:        page,
		PageSize:    v.pageSize,
		Status:      v.status,
		AccessToken: v.accessToken,
	}
	v.mu.Unlock()

	result, err := v.fetcher.FetchBookings(ctx, query)

	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.seq {
		metrics.StaleLoadsTotal.Inc()
		v.log.WithFields(logrus.Fields{"page": page, "seq": token, "latest": v.seq}).Debug("discarding stale dashboard load")
		return ErrStaleLoad
	}

	if err != nil {
		v.state = StateError
		v.err = err
		v.rows = []domain.Booking{}
		v.total = 0
		v.log.WithFields(logrus.Fields{"page": page, "error": err}).Error("error loading bookings")
		return err
	}

	v.state = StateLoaded
	v.err = nil
	v.rows = result.Rows
	v.total = result.Total

	if unknown := unknownStatuses(result.Rows); len(unknown) > 0 {
		v.log.WithFields(logrus.Fields{"page": page, "statuses": unknown}).Warn("bookings with unrecognized payment status")
	}
	return nil
}

// unknownStatuses lists the distinct non-empty statuses that render as unknown.
func unknownStatuses(rows []domain.Booking) []string {
	var out []string
	seen := make(map[domain.PaymentStatus]bool)
	for _, b := range rows {
		status := b.PaymentStatus
		if status == "" || status.Known() || seen[status] {
			continue
		}
		seen[status] = true
		out = append(out, string(status))
	}
	return out
}

// Snapshot is a consistent copy of the view for rendering.
type Snapshot struct {
	State      State
	Rows       []domain.Booking
	Loaded     int
	Search     string
	Status     string
	Fields     FieldSet
	Pagination Pagination
	Summary    Summary
	Err        error
}

func (s Snapshot) CanPrev() bool {
	return s.State != StateLoading && s.Pagination.HasPrev()
}

func (s Snapshot) CanNext() bool {
	return s.State != StateLoading && s.State != StateError && s.Pagination.HasNext()
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	visible := Filter(v.rows, v.search, v.fields)
	rows := make([]domain.Booking, len(visible))
	copy(rows, visible)

	var revenue float64
	for _, b := range rows {
		revenue += float64(b.Amount)
	}

	status := ""
	if v.status != nil {
		status = string(*v.status)
	}

	return Snapshot{
		State:      v.state,
		Rows:       rows,
		Loaded:     len(v.rows),
		Search:     v.search,
		Status:     status,
		Fields:     v.fields,
		Pagination: Pagination{Page: v.page, PageSize: v.pageSize, Total: v.total},
		Summary:    Summary{PageRevenue: revenue, TotalOrders: v.total, CurrentPage: v.page},
		Err:        v.err,
	}
}
