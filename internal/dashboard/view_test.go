package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/Domenick1991/bookingadmin/internal/service/bookings"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchBookings(ctx context.Context, q bookings.Query) (*bookings.Page, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Page), args.Error(1)
}

func testLog() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

func makeRows(n int, prefix string) []domain.Booking {
	rows := make([]domain.Booking, n)
	for i := range rows {
		rows[i] = domain.Booking{ID: prefix, FullName: domain.StringPtr(prefix), Amount: 100}
	}
	return rows
}

func TestView_InitialState(t *testing.T) {
	v := NewView(&MockFetcher{}, Options{Log: testLog()})
	snap := v.Snapshot()

	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 1, snap.Pagination.Page)
	assert.Equal(t, 10, snap.Pagination.PageSize)
	assert.Empty(t, snap.Rows)
}

func TestView_LoadLastPage(t *testing.T) {
	fetcher := &MockFetcher{}
	v := NewView(fetcher, Options{PageSize: 10, AccessToken: "at", Log: testLog()})
	ctx := context.Background()

	fetcher.On("FetchBookings", ctx, bookings.Query{Page: 3, PageSize: 10, AccessToken: "at"}).
		Return(&bookings.Page{Rows: makeRows(5, "x"), Total: 25, Page: 3, PageSize: 10}, nil).Once()

	require.NoError(t, v.Load(ctx, 3))
	snap := v.Snapshot()

	assert.Equal(t, StateLoaded, snap.State)
	assert.Len(t, snap.Rows, 5)
	assert.Equal(t, 3, snap.Pagination.PageCount())
	assert.True(t, snap.CanPrev())
	assert.False(t, snap.CanNext())
	assert.Equal(t, Summary{PageRevenue: 500, TotalOrders: 25, CurrentPage: 3}, snap.Summary)
}

func TestView_LoadErrorEmptiesRows(t *testing.T) {
	fetcher := &MockFetcher{}
	v := NewView(fetcher, Options{Log: testLog()})
	ctx := context.Background()

	fetcher.On("FetchBookings", ctx, mock.MatchedBy(func(q bookings.Query) bool { return q.Page == 1 })).
		Return(&bookings.Page{Rows: makeRows(10, "a"), Total: 12}, nil).Once()
	fetcher.On("FetchBookings", ctx, mock.MatchedBy(func(q bookings.Query) bool { return q.Page == 2 })).
		Return(nil, errors.New("backend down")).Once()

	require.NoError(t, v.Load(ctx, 1))
	assert.Error(t, v.Load(ctx, 2))

	snap := v.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Empty(t, snap.Rows)
	assert.EqualError(t, snap.Err, "backend down")
	assert.Equal(t, 0, snap.Summary.TotalOrders)
	assert.Equal(t, 1, snap.Pagination.PageCount())
	assert.True(t, snap.CanPrev())
	assert.False(t, snap.CanNext())
}

func TestView_CanNextFalseAfterError(t *testing.T) {
	fetcher := &MockFetcher{}
	v := NewView(fetcher, Options{Log: testLog()})
	ctx := context.Background()

	fetcher.On("FetchBookings", ctx, mock.MatchedBy(func(q bookings.Query) bool { return q.Page == 1 })).
		Return(&bookings.Page{Rows: makeRows(10, "a"), Total: 50}, nil).Once()
	fetcher.On("FetchBookings", ctx, mock.MatchedBy(func(q bookings.Query) bool { return q.Page == 2 })).
		Return(nil, errors.New("timeout")).Once()

	require.NoError(t, v.Load(ctx, 1))
	assert.True(t, v.Snapshot().CanNext())

	require.Error(t, v.Load(ctx, 2))
	snap := v.Snapshot()
	assert.False(t, snap.CanNext())
	assert.False(t, snap.Pagination.HasNext())
}

func TestView_LoadWarnsOnUnrecognizedStatus(t *testing.T) {
	fetcher := &MockFetcher{}
	logger, hook := test.NewNullLogger()
	v := NewView(fetcher, Options{Log: logrus.NewEntry(logger)})
	ctx := context.Background()

	rows := []domain.Booking{
		{ID: "1", PaymentStatus: "PAID"},
		{ID: "2", PaymentStatus: "refunded"},
		{ID: "3", PaymentStatus: "refunded"},
		{ID: "4", PaymentStatus: ""},
		{ID: "5", PaymentStatus: "chargeback"},
	}
	fetcher.On("FetchBookings", ctx, mock.Anything).Return(&bookings.Page{Rows: rows, Total: 5}, nil).Once()

	require.NoError(t, v.Load(ctx, 1))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "bookings with unrecognized payment status", entry.Message)
	assert.Equal(t, []string{"refunded", "chargeback"}, entry.Data["statuses"])
	assert.Len(t, v.Snapshot().Rows, 5)
}

func TestView_LoadKnownStatusesLogNothing(t *testing.T) {
	fetcher := &MockFetcher{}
	logger, hook := test.NewNullLogger()
	v := NewView(fetcher, Options{Log: logrus.NewEntry(logger)})
	ctx := context.Background()

	rows := []domain.Booking{{ID: "1", PaymentStatus: "success"}, {ID: "2", PaymentStatus: " Pending "}}
	fetcher.On("FetchBookings", ctx, mock.Anything).Return(&bookings.Page{Rows: rows, Total: 2}, nil).Once()

	require.NoError(t, v.Load(ctx, 1))
	assert.Empty(t, hook.AllEntries())
}

func TestView_SetAccessToken(t *testing.T) {
	fetcher := &MockFetcher{}
	v := NewView(fetcher, Options{AccessToken: "old", Log: testLog()})
	ctx := context.Background()

	fetcher.On("FetchBookings", ctx, mock.MatchedBy(func(q bookings.Query) bool { return q.AccessToken == "new" })).
		Return(&bookings.Page{}, nil).Once()

	v.SetAccessToken("new")
	require.NoError(t, v.Load(ctx, 1))
	fetcher.AssertExpectations(t)
}

func TestView_SearchIsLocal(t *testing.T) {
	fetcher := &MockFetcher{}
	v := NewView(fetcher, Options{Log: testLog()})
	ctx := context.Background()

	rows := []domain.Booking{
		{ID: "1", FullName: domain.StringPtr("Asha"), Amount: 200},
		{ID: "2", FullName: domain.StringPtr("Ben"), Amount: 50},
	}
	fetcher.On("FetchBookings", ctx, mock.Anything).Return(&bookings.Page{Rows: rows, Total: 40}, nil).Once()

	require.NoError(t, v.Load(ctx, 1))
	v.SetSearch("asha")

	snap := v.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "1", snap.Rows[0].ID)
	assert.Equal(t, 2, snap.Loaded)
	assert.Equal(t, float64(200), snap.Summary.PageRevenue)
	fetcher.AssertNumberOfCalls(t, "FetchBookings", 1)
}

func TestView_StatusFilterIsPassedToQuery(t *testing.T) {
	fetcher := &MockFetcher{}
	v := NewView(fetcher, Options{Log: testLog()})
	ctx := context.Background()
	status := domain.PaymentStatusPending

	fetcher.On("FetchBookings", ctx, bookings.Query{Page: 1, PageSize: 10, Status: &status}).
		Return(&bookings.Page{Rows: []domain.Booking{}}, nil).Once()

	v.SetStatusFilter(&status)
	require.NoError(t, v.Load(ctx, 0))
	assert.Equal(t, "pending", v.Snapshot().Status)
	fetcher.AssertExpectations(t)
}

// blockingFetcher answers each page only when told to.
type blockingFetcher struct {
	release map[int]chan *bookings.Page
	started chan int
}

func (f *blockingFetcher) FetchBookings(ctx context.Context, q bookings.Query) (*bookings.Page, error) {
	f.started <- q.Page
	select {
	case page := <-f.release[q.Page]:
		return page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestView_StaleResponseIsDiscarded(t *testing.T) {
	fetcher := &blockingFetcher{
		release: map[int]chan *bookings.Page{2: make(chan *bookings.Page), 3: make(chan *bookings.Page)},
		started: make(chan int, 2),
	}
	v := NewView(fetcher, Options{Log: testLog()})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slow := make(chan error, 1)
	go func() { slow <- v.Load(ctx, 2) }()
	require.Equal(t, 2, <-fetcher.started)

	fast := make(chan error, 1)
	go func() { fast <- v.Load(ctx, 3) }()
	require.Equal(t, 3, <-fetcher.started)

	assert.Equal(t, StateLoading, v.Snapshot().State)
	assert.False(t, v.Snapshot().CanPrev())

	fetcher.release[3] <- &bookings.Page{Rows: makeRows(1, "page3"), Total: 21}
	require.NoError(t, <-fast)

	fetcher.release[2] <- &bookings.Page{Rows: makeRows(10, "page2"), Total: 21}
	assert.ErrorIs(t, <-slow, ErrStaleLoad)

	snap := v.Snapshot()
	assert.Equal(t, StateLoaded, snap.State)
	assert.Equal(t, 3, snap.Pagination.Page)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "page3", snap.Rows[0].ID)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "error", StateError.String())
}
