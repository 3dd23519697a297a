package domain

import "time"

type Admin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the server-side record of a signed-in admin. The browser only
// ever sees ID.
type Session struct {
	ID             string    `json:"id"`
	Admin          Admin     `json:"admin"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TokenStale reports whether the access token expires within leeway of now.
func (s *Session) TokenStale(now time.Time, leeway time.Duration) bool {
	return !s.TokenExpiresAt.IsZero() && !now.Add(leeway).Before(s.TokenExpiresAt)
}
