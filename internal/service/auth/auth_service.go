package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingadmin/internal/backend"
	"github.com/Domenick1991/bookingadmin/internal/cache"
	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/Domenick1991/bookingadmin/internal/kafka"
	"github.com/Domenick1991/bookingadmin/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	MsgInvalidInput   = "Please enter a valid email address and password."
	MsgLoginFailed    = "Login failed. Please try again."
	MsgSomethingWrong = "Something went wrong. Please try again."
	MsgNotAuthed      = "Not authenticated"
)

// tokenRefreshLeeway is how close to expiry an access token may get before
// Session trades the refresh token for a new one.
const tokenRefreshLeeway = 30 * time.Second

var (
	ErrNoSession      = errors.New("no active session")
	errNoRefreshToken = errors.New("session has no refresh token")
	errEmptyGrant     = errors.New("backend returned no access token")
	errSessionLapsed  = errors.New("session expired during refresh")
)

// AuthError carries a message meant for the login form.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type AuthUseCase interface {
	SignIn(ctx context.Context, input SignInInput) (*domain.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	CurrentAdmin(ctx context.Context, accessToken string) (*domain.Admin, error)
}

type Backend interface {
	SignInWithPassword(ctx context.Context, email, password string) (*backend.AuthSession, error)
	RefreshSession(ctx context.Context, refreshToken string) (*backend.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*backend.User, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type SignInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type AuthService struct {
	backend    Backend
	sessions   cache.SessionStore
	producer   Producer
	auditTopic string
	sessionTTL time.Duration
	verify     bool
	validate   *validator.Validate
	log        *logrus.Entry
	now        func() time.Time
	refreshes  singleflight.Group
}

type AuthServiceOption func(*AuthService)

func WithAuditProducer(producer Producer, topic string) AuthServiceOption {
	return func(s *AuthService) {
		s.producer = producer
		s.auditTopic = topic
	}
}

// WithBackendVerification makes every session lookup confirm the token with
// the backend's get-current-user call.
func WithBackendVerification() AuthServiceOption {
	return func(s *AuthService) {
		s.verify = true
	}
}

func WithLogger(log *logrus.Entry) AuthServiceOption {
	return func(s *AuthService) {
		s.log = log
	}
}

func NewAuthService(backend Backend, sessions cache.SessionStore, sessionTTL time.Duration, opts ...AuthServiceOption) *AuthService {
	service := &AuthService{
		backend:    backend,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		validate:   validator.New(),
		log:        logrus.NewEntry(logrus.StandardLogger()),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*domain.Session, error) {
	if err := s.validate.Struct(input); err != nil {
		metrics.SignInsTotal.WithLabelValues("invalid").Inc()
		return nil, &AuthError{Message: MsgInvalidInput, Err: err}
	}

	grant, err := s.backend.SignInWithPassword(ctx, input.Email, input.Password)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("rejected").Inc()
		authErr := &AuthError{Message: MsgSomethingWrong, Err: err}
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			authErr.Message = apiErr.Message
		}
		s.log.WithFields(logrus.Fields{"email": input.Email, "error": err}).Warn("sign-in rejected")
		s.audit(ctx, kafka.AuditEvent{Type: kafka.EventSignInFailed, AdminEmail: input.Email, Detail: authErr.Message})
		return nil, authErr
	}
	if grant == nil || grant.AccessToken == "" {
		metrics.SignInsTotal.WithLabelValues("rejected").Inc()
		s.audit(ctx, kafka.AuditEvent{Type: kafka.EventSignInFailed, AdminEmail: input.Email, Detail: MsgLoginFailed})
		return nil, &AuthError{Message: MsgLoginFailed}
	}

	now := s.now()
	session := &domain.Session{
		ID:             uuid.NewString(),
		Admin:          domain.Admin{Email: input.Email},
		AccessToken:    grant.AccessToken,
		RefreshToken:   grant.RefreshToken,
		TokenExpiresAt: tokenExpiry(now, grant.ExpiresIn),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.sessionTTL),
	}
	if grant.User != nil {
		session.Admin = domain.Admin{ID: grant.User.ID, Email: grant.User.Email}
	}

	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		return nil, &AuthError{Message: MsgSomethingWrong, Err: fmt.Errorf("save session: %w", err)}
	}

	metrics.SignInsTotal.WithLabelValues("ok").Inc()
	s.log.WithFields(logrus.Fields{"admin": session.Admin.Email, "session_id": session.ID}).Info("admin signed in")
	s.audit(ctx, kafka.AuditEvent{
		Type:       kafka.EventSignedIn,
		AdminID:    session.Admin.ID,
		AdminEmail: session.Admin.Email,
		SessionID:  session.ID,
	})
	return session, nil
}

// SignOut asks the backend to revoke the token and always drops the local
// session. The backend error, if any, is returned for the caller to report.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil
		}
		// The token cannot be revoked without the record, but the local
		// session must still go.
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			return errors.Join(fmt.Errorf("load session: %w", err), fmt.Errorf("delete session: %w", delErr))
		}
		return fmt.Errorf("load session: %w", err)
	}

	backendErr := s.backend.SignOut(ctx, session.AccessToken)
	if backendErr != nil {
		s.log.WithFields(logrus.Fields{"session_id": sessionID, "error": backendErr}).Warn("backend sign-out failed")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.audit(ctx, kafka.AuditEvent{
		Type:       kafka.EventSignedOut,
		AdminID:    session.Admin.ID,
		AdminEmail: session.Admin.Email,
		SessionID:  sessionID,
	})

	if backendErr != nil {
		return fmt.Errorf("backend sign-out: %w", backendErr)
	}
	return nil
}

func (s *AuthService) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	now := s.now()
	if session.Expired(now) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, ErrNoSession
	}

	if session.TokenStale(now, tokenRefreshLeeway) {
		refreshed, err := s.refresh(ctx, session)
		if err != nil {
			s.log.WithFields(logrus.Fields{"session_id": sessionID, "error": err}).Info("session token refresh failed")
			_ = s.sessions.Delete(ctx, sessionID)
			return nil, ErrNoSession
		}
		session = refreshed
	}

	if s.verify {
		if _, err := s.CurrentAdmin(ctx, session.AccessToken); err != nil {
			s.log.WithFields(logrus.Fields{"session_id": sessionID, "error": err}).Info("backend rejected session token")
			return nil, ErrNoSession
		}
	}
	return session, nil
}

// refresh swaps a stale access token for a new pair and stores it under the
// same session ID. Concurrent requests for one session share a single call.
func (s *AuthService) refresh(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	v, err, _ := s.refreshes.Do(session.ID, func() (interface{}, error) {
		if session.RefreshToken == "" {
			return nil, errNoRefreshToken
		}
		grant, err := s.backend.RefreshSession(ctx, session.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("refresh session: %w", err)
		}
		if grant == nil || grant.AccessToken == "" {
			return nil, errEmptyGrant
		}

		now := s.now()
		updated := *session
		updated.AccessToken = grant.AccessToken
		if grant.RefreshToken != "" {
			updated.RefreshToken = grant.RefreshToken
		}
		updated.TokenExpiresAt = tokenExpiry(now, grant.ExpiresIn)

		ttl := s.sessionTTL
		if !updated.ExpiresAt.IsZero() {
			ttl = updated.ExpiresAt.Sub(now)
		}
		if ttl <= 0 {
			return nil, errSessionLapsed
		}
		if err := s.sessions.Save(ctx, &updated, ttl); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}

		s.log.WithFields(logrus.Fields{"session_id": session.ID, "token_expires_at": updated.TokenExpiresAt}).Debug("session token refreshed")
		return &updated, nil
	})
	if err != nil {
		return nil, err
	}
	refreshed := *v.(*domain.Session)
	return &refreshed, nil
}

// tokenExpiry is zero when the grant carries no lifetime.
func tokenExpiry(now time.Time, expiresIn int) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(expiresIn) * time.Second)
}

func (s *AuthService) CurrentAdmin(ctx context.Context, accessToken string) (*domain.Admin, error) {
	user, err := s.backend.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, errors.New(MsgNotAuthed)
	}
	return &domain.Admin{ID: user.ID, Email: user.Email}, nil
}

func (s *AuthService) audit(ctx context.Context, event kafka.AuditEvent) {
	if s.producer == nil || s.auditTopic == "" {
		return
	}
	event.OccurredAt = s.now()

	key := event.SessionID
	if key == "" {
		key = event.AdminEmail
	}
	if err := s.producer.Publish(ctx, s.auditTopic, key, event); err != nil {
		s.log.WithFields(logrus.Fields{"event": event.Type, "error": err}).Warn("failed to publish audit event")
	}
}

var _ AuthUseCase = (*AuthService)(nil)
