// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxPinLen      = 36
	MaxUsernameLen = 20
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrPinEmpty        = errors.New("pin empty")
	ErrPinTooLong      = errors.New("pin too long")
)

// Member is a user's participation meta in a room.
// No transport or lifecycle logic here.
type Member struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// NewMember trims the display name and enforces the 1-20 length bounds.
func NewMember(username string, role Role) (*Member, error) {
	name := strings.TrimSpace(username)
	if len(name) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &Member{Username: name, Role: role}, nil
}
