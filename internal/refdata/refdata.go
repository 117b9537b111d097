// Package refdata manages the small reference tables backing profile fields:
// roles, permissions, genders, goals, units of measurement and user types.
// They share one schema (id, unique name), so a single keyed repository
// serves all of them.
package refdata

import (
	"errors"
	"time"
)

var (
	// ErrNotFound signals a missing reference item.
	ErrNotFound = errors.New("reference item not found")
	// ErrDuplicateName signals a uniqueness violation on the name column.
	ErrDuplicateName = errors.New("reference name already exists")
	// ErrUnknownKind signals a kind outside the fixed set.
	ErrUnknownKind = errors.New("unknown reference kind")
)

// Kind identifies one of the reference tables.
type Kind string

const (
	Roles       Kind = "roles"
	Permissions Kind = "permissions"
	Genders     Kind = "genders"
	Goals       Kind = "goals"
	Units       Kind = "units_of_measurement"
	UserTypes   Kind = "user_types"
)

// Kinds lists every reference table in route-registration order.
func Kinds() []Kind {
	return []Kind{Roles, Permissions, Genders, Goals, Units, UserTypes}
}

// Table returns the backing table name, guarding against arbitrary input
// reaching SQL.
func (k Kind) Table() (string, error) {
	switch k {
	case Roles, Permissions, Genders, Goals, Units, UserTypes:
		return string(k), nil
	default:
		return "", ErrUnknownKind
	}
}

// Path returns the URL path segment for the kind.
func (k Kind) Path() string {
	if k == Units {
		return "units-of-measurement"
	}
	return string(k)
}

// Item is a single reference row.
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
