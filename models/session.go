package models

import "time"

// Session is the console-side slot that holds a staff member's backend
// credentials between requests. The browser only keeps the session id cookie.
//
// AccessToken and RefreshCookie are plaintext in memory; the repository seals
// them before writing and opens them after reading.
type Session struct {
	ID            string    `json:"id"`
	AccessToken   string    `json:"-"`
	RefreshCookie string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// HasToken reports whether the slot currently holds an access token.
func (s *Session) HasToken() bool {
	return s != nil && s.AccessToken != ""
}
