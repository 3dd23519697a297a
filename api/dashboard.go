package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Domenick1991/bookingadmin/internal/dashboard"
	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	views *dashboard.Registry
}

type bookingResponse struct {
	ID             string  `json:"id"`
	FullName       string  `json:"full_name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Amount         float64 `json:"amount"`
	OrderID        string  `json:"order_id"`
	PaymentID      string  `json:"payment_id"`
	PaymentStatus  string  `json:"payment_status"`
	StatusClass    string  `json:"status_class"`
	CreatedAt      string  `json:"created_at"`
	TicketCategory string  `json:"ticket_category,omitempty"`
	Affiliation    string  `json:"affiliation,omitempty"`
}

type pageResponse struct {
	State     string            `json:"state"`
	Rows      []bookingResponse `json:"rows"`
	Loaded    int               `json:"loaded"`
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
	PageCount int               `json:"page_count"`
	HasPrev   bool              `json:"has_prev"`
	HasNext   bool              `json:"has_next"`
	Search    string            `json:"search,omitempty"`
	Status    string            `json:"status,omitempty"`
	Summary   dashboard.Summary `json:"summary"`
}

type dashboardPage struct {
	Admin    domain.Admin
	Snapshot dashboard.Snapshot
	PrevURL  string
	NextURL  string
}

func NewDashboardHandler(views *dashboard.Registry) *DashboardHandler {
	return &DashboardHandler{views: views}
}

func (h *DashboardHandler) Register(router gin.IRouter, guard gin.HandlerFunc) {
	router.GET("/admindashboard", guard, h.show)
	router.GET("/api/bookings", guard, h.list)
}

// refresh applies the request's page, status and search to the session's
// view. A search-only submission (local=1) on the already loaded page does not
// go back to the backend.
func (h *DashboardHandler) refresh(c *gin.Context) (*dashboard.View, error) {
	session := currentSession(c)
	view := h.views.View(session)

	page := 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}

	var status *domain.PaymentStatus
	if s := c.Query("status"); s != "" {
		ps := domain.PaymentStatus(s)
		status = &ps
	}

	before := view.Snapshot()
	view.SetSearch(c.Query("q"))

	if c.Query("local") == "1" && before.State == dashboard.StateLoaded &&
		before.Pagination.Page == page && before.Status == c.Query("status") {
		return view, nil
	}

	view.SetStatusFilter(status)
	return view, view.Load(c.Request.Context(), page)
}

func (h *DashboardHandler) show(c *gin.Context) {
	view, err := h.refresh(c)
	if err != nil && !errors.Is(err, dashboard.ErrStaleLoad) {
		// Rendered as an empty table; the view already logged the cause.
		_ = c.Error(err)
	}

	snap := view.Snapshot()
	c.HTML(http.StatusOK, "dashboard.tmpl", dashboardPage{
		Admin:    currentSession(c).Admin,
		Snapshot: snap,
		PrevURL:  pageURL(snap, snap.Pagination.Page-1),
		NextURL:  pageURL(snap, snap.Pagination.Page+1),
	})
}

func (h *DashboardHandler) list(c *gin.Context) {
	view, err := h.refresh(c)
	if errors.Is(err, dashboard.ErrStaleLoad) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toPageResponse(view.Snapshot()))
}

func toPageResponse(snap dashboard.Snapshot) pageResponse {
	rows := make([]bookingResponse, 0, len(snap.Rows))
	for _, b := range snap.Rows {
		rows = append(rows, toBookingResponse(b))
	}
	return pageResponse{
		State:     snap.State.String(),
		Rows:      rows,
		Loaded:    snap.Loaded,
		Total:     snap.Pagination.Total,
		Page:      snap.Pagination.Page,
		PageSize:  snap.Pagination.PageSize,
		PageCount: snap.Pagination.PageCount(),
		HasPrev:   snap.CanPrev(),
		HasNext:   snap.CanNext(),
		Search:    snap.Search,
		Status:    snap.Status,
		Summary:   snap.Summary,
	}
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		FullName:       domain.Value(b.FullName),
		Email:          domain.Value(b.Email),
		Phone:          domain.Value(b.Phone),
		Amount:         float64(b.Amount),
		OrderID:        domain.Value(b.OrderID),
		PaymentID:      domain.Value(b.PaymentID),
		PaymentStatus:  string(b.PaymentStatus),
		StatusClass:    b.PaymentStatus.Class(),
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
		TicketCategory: domain.Value(b.TicketCategory),
		Affiliation:    domain.Value(b.Affiliation),
	}
}

func pageURL(snap dashboard.Snapshot, page int) string {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	if snap.Status != "" {
		params.Set("status", snap.Status)
	}
	if snap.Search != "" {
		params.Set("q", snap.Search)
	}
	return "/admindashboard?" + params.Encode()
}
