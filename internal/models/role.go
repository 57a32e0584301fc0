package models

import "fmt"

// Role identifies one of the two fixed camera positions of the stereo rig.
type Role int

const (
	RoleFirst Role = iota
	RoleSecond
)

// Roles lists both roles in slot order.
var Roles = [...]Role{RoleFirst, RoleSecond}

func (r Role) String() string {
	switch r {
	case RoleFirst:
		return "first"
	case RoleSecond:
		return "second"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleFirst {
		return RoleSecond
	}
	return RoleFirst
}

// ParseRole accepts "first"/"left" and "second"/"right".
func ParseRole(s string) (Role, error) {
	switch s {
	case "first", "left", "1":
		return RoleFirst, nil
	case "second", "right", "2":
		return RoleSecond, nil
	}
	return 0, fmt.Errorf("unknown camera role %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
