package domain

import "strings"

// Pin is the caller-supplied opaque room key. The core never generates
// pins and never requires them to be numeric.
type Pin string

// Room is identified by its pin. Owner is the display name of the
// creating member and is immutable for the room's lifetime.
type Room struct {
	Pin   Pin
	Owner string
}

// NewPin trims the raw key and enforces presence and length.
func NewPin(raw string) (Pin, error) {
	p := strings.TrimSpace(raw)
	if len(p) == 0 {
		return "", ErrPinEmpty
	}
	if len(p) > MaxPinLen {
		return "", ErrPinTooLong
	}
	return Pin(p), nil
}
