package domain

import (
	"encoding/json"
	"errors"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is the closed set of authorities a member can hold in a room.
// Authority checks match on it exhaustively instead of comparing strings.
type Role int

const (
	RoleMember Role = iota
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	default:
		return "member"
	}
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "owner":
		return RoleOwner, nil
	case "member", "":
		return RoleMember, nil
	default:
		return RoleMember, ErrUnknownRole
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
