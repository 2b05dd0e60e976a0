package domain

import "time"

// Session is the device state persisted across restarts. The token is the
// only authority; User and LastAuthAt mean nothing without it.
type Session struct {
	Token      string       `json:"token,omitempty"`
	User       *UserProfile `json:"user,omitempty"`
	LastAuthAt time.Time    `json:"last_auth_at,omitempty"`
}

// HasToken reports whether the device holds an access token.
func (s Session) HasToken() bool {
	return s.Token != ""
}
