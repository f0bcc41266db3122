// Package idgen provides the opaque identifier and time primitives shared by
// every resource kind in the control plane.
package idgen

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ID is a 128-bit opaque identifier. It wraps uuid.UUID so call sites never
// depend on the underlying representation. Every resource kind (Instance.ID,
// Project.ID, ...) uses this one type, so the compiler does not tell one
// kind's id from another's.
type ID uuid.UUID

// Nil is the zero value of ID.
var Nil = ID(uuid.Nil)

// New generates a fresh random ID (UUIDv4).
func New() ID {
	return ID(uuid.New())
}

// ParseID parses a canonical UUID string into an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("malformed id %q: %w", s, err)
	}
	return ID(u), nil
}

// MustParseID is ParseID that panics on error; only safe for constants/tests.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero value.
func (id ID) IsNil() bool {
	return id == Nil
}

// Value implements driver.Valuer so an ID can be passed directly as a pgx
// query argument.
func (id ID) Value() (driver.Value, error) {
	return uuid.UUID(id).String(), nil
}

// Scan implements sql.Scanner so an ID can be populated directly from a row.
func (id *ID) Scan(src any) error {
	var u uuid.UUID
	if err := (&u).Scan(src); err != nil {
		return err
	}
	*id = ID(u)
	return nil
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Time is a UTC instant at millisecond resolution (Postgres timestamptz
// truncates beyond microseconds anyway; we standardize on milliseconds so
// equality comparisons after a DB round-trip are exact).
type Time time.Time

// Now returns the current instant, truncated to millisecond resolution.
func Now() Time {
	return Time(time.Now().UTC().Truncate(time.Millisecond))
}

func (t Time) Std() time.Time {
	return time.Time(t)
}

func (t Time) String() string {
	return time.Time(t).Format(time.RFC3339Nano)
}

func (t Time) Value() (driver.Value, error) {
	return time.Time(t), nil
}

func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = Time(v)
		return nil
	case nil:
		*t = Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into idgen.Time", src)
	}
}
