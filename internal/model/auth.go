package model

import "time"

type SessionStatus string

const (
	// SessionNone is reported when no capture attempt exists at all; it is
	// never stored on a session.
	SessionNone            SessionStatus = "none"
	SessionPending         SessionStatus = "pending"
	SessionWaitingForLogin SessionStatus = "waiting_for_login"
	SessionCapturing       SessionStatus = "capturing"
	SessionSuccess         SessionStatus = "success"
	SessionFailed          SessionStatus = "failed"
)

// AuthSession describes one in-progress or completed capture attempt. At most
// one exists at a time; see capture.Controller.
type AuthSession struct {
	SessionID string        `json:"sessionId"`
	Status    SessionStatus `json:"status"`
	Message   string        `json:"message,omitempty"`
	AuthData  *AuthData     `json:"authData,omitempty"`
}

// CapturedCookie is one browser cookie snapshotted at capture time.
type CapturedCookie struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain"`
	Path     string     `json:"path"`
	Expires  *time.Time `json:"expires,omitempty"`
	HTTPOnly bool       `json:"httpOnly"`
	Secure   bool       `json:"secure"`
	SameSite string     `json:"sameSite,omitempty"`
}

// AuthData is the credential bundle harvested from an observed login.
// Immutable once produced.
type AuthData struct {
	Provider   string           `json:"provider"`
	JSToken    string           `json:"jsToken"`
	Cookies    []CapturedCookie `json:"cookies"`
	CapturedAt time.Time        `json:"capturedAt"`
}

type TokenStatus string

const (
	TokenActive  TokenStatus = "active"
	TokenExpired TokenStatus = "expired"
	TokenInvalid TokenStatus = "invalid"
)

// AuthToken is the persisted form of AuthData. The store guarantees that at
// most one token is active at any time.
type AuthToken struct {
	ID         string           `json:"id"`
	Provider   string           `json:"provider"`
	JSToken    string           `json:"jsToken"`
	Cookies    []CapturedCookie `json:"cookies"`
	Status     TokenStatus      `json:"status"`
	CapturedAt time.Time        `json:"capturedAt"`
	ExpiresAt  *time.Time       `json:"expiresAt,omitempty"`
	LastUsedAt *time.Time       `json:"lastUsedAt,omitempty"`
}

// AuthData returns the credential bundle carried by the token.
func (t *AuthToken) AuthData() *AuthData {
	return &AuthData{
		Provider:   t.Provider,
		JSToken:    t.JSToken,
		Cookies:    t.Cookies,
		CapturedAt: t.CapturedAt,
	}
}
