package domain

import "time"

// Session is the authenticated context held for the duration of a login.
// It is replaced wholesale on login and cleared wholesale on logout or
// expiry; no field is ever mutated in place.
type Session struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresAt   int64  `json:"expiresAt"` // epoch seconds; 0 means no known expiry
	User        User   `json:"user"`
}

// Valid reports whether the session satisfies the core invariant: a
// non-nil session always carries a token and a populated user. A
// persisted record failing this check is discarded, not repaired.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.User.ID != ""
}

// ExpiredAt reports whether the session has expired as of now.
func (s *Session) ExpiredAt(now time.Time) bool {
	if s == nil || s.ExpiresAt == 0 {
		return false
	}
	return now.Unix() >= s.ExpiresAt
}
