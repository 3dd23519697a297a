package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/bookingadmin/config"
	"github.com/Domenick1991/bookingadmin/internal/metrics"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/postgrest-go"
)

// APIError is a non-2xx answer from the backend. Message is the backend's own
// text and is safe to show to the operator.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is the token grant returned by a password or refresh sign-in.
type AuthSession struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Client talks to the hosted backend: its auth service through gotrue-go and
// its REST view of the database through postgrest-go.
type Client struct {
	baseURL   string
	anonKey   string
	transport http.RoundTripper
	timeout   time.Duration
	auth      gotrue.Client
}

func NewClient(cfg config.BackendConfig) *Client {
	return NewClientWithHTTP(cfg.URL, cfg.AnonKey, &http.Client{Timeout: cfg.Timeout()})
}

func NewClientWithHTTP(baseURL, anonKey string, httpClient *http.Client) *Client {
	base := strings.TrimRight(baseURL, "/")
	transport := httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		baseURL:   base,
		anonKey:   anonKey,
		transport: transport,
		timeout:   httpClient.Timeout,
		auth:      gotrue.New("", anonKey).WithCustomGoTrueURL(base + "/auth/v1"),
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (_ *AuthSession, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBackend("sign_in", start, err) }()

	ex, done := c.begin(ctx)
	defer done()

	resp, err := c.authClient(ex, "").SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, authError("sign in", err)
	}
	return toAuthSession(resp), nil
}

// RefreshSession trades a refresh token for a new token pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (_ *AuthSession, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBackend("refresh", start, err) }()

	ex, done := c.begin(ctx)
	defer done()

	resp, err := c.authClient(ex, "").RefreshToken(refreshToken)
	if err != nil {
		return nil, authError("refresh session", err)
	}
	return toAuthSession(resp), nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveBackend("sign_out", start, err) }()

	ex, done := c.begin(ctx)
	defer done()

	if err := c.authClient(ex, accessToken).Logout(); err != nil {
		return authError("sign out", err)
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (_ *User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBackend("get_user", start, err) }()

	ex, done := c.begin(ctx)
	defer done()

	resp, err := c.authClient(ex, accessToken).GetUser()
	if err != nil {
		return nil, authError("get user", err)
	}
	return toUser(resp.User), nil
}

type Filter struct {
	Column string
	Value  string
}

// SelectQuery reads one inclusive range [From, To] of a table.
type SelectQuery struct {
	Table      string
	Columns    []string
	OrderBy    string
	Descending bool
	From       int
	To         int
	Eq         []Filter
}

type SelectResult struct {
	Rows  json.RawMessage
	Total int
}

// Select reads rows with an exact total count. A range past the end of the
// table yields an empty row set rather than an error.
func (c *Client) Select(ctx context.Context, accessToken string, q SelectQuery) (_ *SelectResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBackend("select", start, err) }()

	if q.To < q.From {
		return nil, fmt.Errorf("invalid range %d-%d", q.From, q.To)
	}

	ex, done := c.begin(ctx)
	defer done()

	bearer := accessToken
	if bearer == "" {
		bearer = c.anonKey
	}
	rest := postgrest.NewClient(c.baseURL+"/rest/v1", "", map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + bearer,
	})
	rest.Transport.Parent = ex

	builder := rest.From(q.Table).Select(strings.Join(q.Columns, ","), "exact", false)
	if q.OrderBy != "" {
		builder = builder.Order(q.OrderBy, &postgrest.OrderOpts{Ascending: !q.Descending})
	}
	builder = builder.Range(q.From, q.To, "")
	for _, f := range q.Eq {
		builder = builder.Eq(f.Column, f.Value)
	}

	body, _, err := builder.Execute()
	if err != nil {
		if ex.status == http.StatusRequestedRangeNotSatisfiable {
			total, perr := parseContentRange(ex.header.Get("Content-Range"))
			if perr != nil {
				return nil, perr
			}
			return &SelectResult{Rows: json.RawMessage("[]"), Total: total}, nil
		}
		if ex.status >= http.StatusBadRequest {
			return nil, restError(ex.status, err)
		}
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}

	total, err := parseContentRange(ex.header.Get("Content-Range"))
	if err != nil {
		return nil, err
	}
	return &SelectResult{Rows: json.RawMessage(body), Total: total}, nil
}

// exchange binds one library call to ctx and keeps the last response's status
// and headers, which neither library exposes.
type exchange struct {
	ctx    context.Context
	base   http.RoundTripper
	status int
	header http.Header
}

func (e *exchange) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := e.base.RoundTrip(req.WithContext(e.ctx))
	if err != nil {
		return nil, err
	}
	e.status = resp.StatusCode
	e.header = resp.Header
	return resp, nil
}

func (c *Client) begin(ctx context.Context) (*exchange, context.CancelFunc) {
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	return &exchange{ctx: ctx, base: c.transport, header: http.Header{}}, cancel
}

func (c *Client) authClient(ex *exchange, accessToken string) gotrue.Client {
	client := c.auth.WithClient(http.Client{Transport: ex})
	if accessToken != "" {
		client = client.WithToken(accessToken)
	}
	return client
}

func toAuthSession(resp *types.TokenResponse) *AuthSession {
	session := &AuthSession{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		RefreshToken: resp.RefreshToken,
	}
	if resp.User.ID != uuid.Nil {
		session.User = toUser(resp.User)
	}
	return session
}

func toUser(u types.User) *User {
	user := &User{Email: u.Email}
	if u.ID != uuid.Nil {
		user.ID = u.ID.String()
	}
	return user
}

const authStatusPrefix = "response status code "

// authError recovers the status and body that gotrue-go folds into its error
// text ("response status code 400: {...}").
func authError(op string, err error) error {
	rest, ok := strings.CutPrefix(err.Error(), authStatusPrefix)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}

	code, body, _ := strings.Cut(rest, ": ")
	status, convErr := strconv.Atoi(code)
	if convErr != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return decodeError(status, []byte(body))
}

// restError turns postgrest-go's "(CODE) message" text into an APIError.
func restError(status int, err error) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	text := err.Error()
	if strings.HasPrefix(text, "(") {
		if code, message, ok := strings.Cut(text[1:], ") "); ok {
			apiErr.Code = code
			if message != "" {
				apiErr.Message = message
			}
		}
	}
	return apiErr
}

// The auth and REST services report errors with different field names.
func decodeError(status int, data []byte) error {
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
		ErrorCode        string `json:"error_code"`
		Code             any    `json:"code"`
	}
	_ = json.Unmarshal(data, &payload)

	apiErr := &APIError{Status: status, Code: payload.ErrorCode}
	if apiErr.Code == "" {
		if code, ok := payload.Code.(string); ok {
			apiErr.Code = code
		}
	}

	for _, candidate := range []string{payload.Msg, payload.Message, payload.ErrorDescription, payload.Error} {
		if candidate != "" {
			apiErr.Message = candidate
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

var errBadContentRange = errors.New("missing or malformed Content-Range")

// parseContentRange extracts the total from "0-9/25" or "*/25".
func parseContentRange(header string) (int, error) {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", errBadContentRange, header)
	}
	totalPart := header[idx+1:]
	if totalPart == "*" {
		return 0, fmt.Errorf("%w: no exact count in %q", errBadContentRange, header)
	}
	total, err := strconv.Atoi(totalPart)
	if err != nil || total < 0 {
		return 0, fmt.Errorf("%w: %q", errBadContentRange, header)
	}
	return total, nil
}
