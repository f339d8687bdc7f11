package domain

import "time"

// Session is the explicit caller context: who is calling and with which credential.
type Session struct {
	User      *User
	TokenID   string
	ExpiresAt time.Time
}
