// Package component decodes the single-byte component descriptor that
// precedes every element of an EFLR payload: a 3-bit role and a
// role-specific 5-bit flag set.
package component

import (
	"errors"
	"fmt"
)

// Role is the 3-bit role encoded in the top bits of a component
// descriptor byte.
type Role uint8

const (
	RoleAbsAttr Role = 0 // ABSATR
	RoleAttrib  Role = 1 // ATTRIB
	RoleInvAttr Role = 2 // INVATR
	RoleObject  Role = 3 // OBJECT
	RoleReserv  Role = 4 // RESERV - reserved, reject if encountered by a caller
	RoleRdset   Role = 5 // RDSET - redundant set
	RoleRset    Role = 6 // RSET - replacement set
	RoleSet     Role = 7 // SET
)

func (r Role) String() string {
	switch r {
	case RoleAbsAttr:
		return "ABSATR"
	case RoleAttrib:
		return "ATTRIB"
	case RoleInvAttr:
		return "INVATR"
	case RoleObject:
		return "OBJECT"
	case RoleReserv:
		return "RESERV"
	case RoleRdset:
		return "RDSET"
	case RoleRset:
		return "RSET"
	case RoleSet:
		return "SET"
	default:
		return "UNKNOWN"
	}
}

// IsSet reports whether r is one of SET, RDSET or RSET.
func (r Role) IsSet() bool {
	return r == RoleSet || r == RoleRdset || r == RoleRset
}

// IsAttr reports whether r is one of ATTRIB, INVATR or ABSATR.
func (r Role) IsAttr() bool {
	return r == RoleAttrib || r == RoleInvAttr || r == RoleAbsAttr
}

// Flags is the decoded per-role flag set. Only the fields relevant to the
// descriptor's role are meaningful; the rest are left at their zero value.
type Flags struct {
	HasType  bool // SET/RDSET/RSET
	HasName  bool // SET/RDSET/RSET, and required for OBJECT
	HasLabel bool // ATTRIB/INVATR/ABSATR
	HasCount bool
	HasReprc bool
	HasUnits bool
	HasValue bool
}

// ErrBadComponent is returned when a descriptor byte cannot be decoded
// into a valid role/flag combination.
var ErrBadComponent = errors.New("component: bad component descriptor")

// Descriptor is one decoded component descriptor byte.
type Descriptor struct {
	Role  Role
	Flags Flags
}

// Decode decodes a single component descriptor byte.
func Decode(b byte) (Descriptor, error) {
	role := Role(b >> 5)
	bits := b & 0x1F

	var f Flags
	switch {
	case role.IsSet():
		f.HasType = bits&0x10 != 0
		f.HasName = bits&0x08 != 0
	case role.IsAttr():
		f.HasLabel = bits&0x10 != 0
		f.HasCount = bits&0x08 != 0
		f.HasReprc = bits&0x04 != 0
		f.HasUnits = bits&0x02 != 0
		f.HasValue = bits&0x01 != 0
	case role == RoleObject:
		f.HasName = bits&0x10 != 0
		if !f.HasName {
			return Descriptor{}, fmt.Errorf("%w: OBJECT descriptor 0x%02x missing required name flag", ErrBadComponent, b)
		}
	case role == RoleReserv:
		// no flags to decode; rejection of RESERV is the caller's concern.
	}

	return Descriptor{Role: role, Flags: f}, nil
}
