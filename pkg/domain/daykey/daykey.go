// Package daykey normalizes instants into timezone-anchored calendar-day
// identifiers. A Key is the unit of idempotency for step-goal scoring: two
// instants map to the same Key iff they fall on the same local calendar day.
package daykey

import (
	"fmt"
	"time"
)

// Format is the canonical wire/storage form of a Key. Lexicographic order on
// this form matches chronological order, so Keys compare with plain <, >, ==.
const Format = "2006-01-02"

// Key identifies one calendar day under a fixed timezone.
type Key string

// FromTime returns the Key for the calendar day containing t in loc.
// DST transitions are irrelevant here: the key is the formatted local date,
// not an offset from any instant.
func FromTime(t time.Time, loc *time.Location) Key {
	if loc == nil {
		loc = time.UTC
	}
	return Key(t.In(loc).Format(Format))
}

// Today returns the Key for the current day in loc.
func Today(loc *time.Location) Key {
	return FromTime(time.Now(), loc)
}

// Parse validates s as a day key.
func Parse(s string) (Key, error) {
	if _, err := time.Parse(Format, s); err != nil {
		return "", fmt.Errorf("invalid day key %q: %w", s, err)
	}
	return Key(s), nil
}

// LoadLocation resolves an IANA timezone name, falling back to fallback (or
// UTC) when the name is empty or unknown. Malformed user timezones must never
// take scoring down.
func LoadLocation(name string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}

func (k Key) IsZero() bool { return k == "" }

func (k Key) Before(other Key) bool { return k < other }

func (k Key) After(other Key) bool { return k > other }

// Time returns the start of the day in loc. Zero keys return the zero time.
func (k Key) Time(loc *time.Location) time.Time {
	if k.IsZero() {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(Format, string(k), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the key n calendar days after k (n may be negative).
func (k Key) AddDays(n int) Key {
	t := k.Time(time.UTC)
	if t.IsZero() {
		return k
	}
	return FromTime(t.AddDate(0, 0, n), time.UTC)
}

// Weekday returns the day of the week k falls on.
func (k Key) Weekday() time.Weekday {
	return k.Time(time.UTC).Weekday()
}

func (k Key) String() string { return string(k) }

// Min returns the earlier of a and b, ignoring zero keys.
func Min(a, b Key) Key {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b < a {
		return b
	}
	return a
}

// Range returns every key from from to to inclusive, ascending. Empty when
// the window is inverted.
func Range(from, to Key) []Key {
	if from.IsZero() || to.IsZero() || to < from {
		return nil
	}
	var keys []Key
	for k := from; k <= to; k = k.AddDays(1) {
		keys = append(keys, k)
	}
	return keys
}
