// Package week implements ISO-8601 week arithmetic for the reflection engine.
//
// Weeks run Monday through Sunday and are numbered by the ISO-8601 rule:
// week 1 of a year is the week containing that year's first Thursday. Every
// computation happens in UTC so the same instant maps to the same week on
// every host regardless of server locale.
package week

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/murmur-hq/murmur/internal/core"
)

// identifierPattern is the canonical wire form, e.g. "2026-W03".
var identifierPattern = regexp.MustCompile(`^\d{4}-W\d{2}$`)

// Identifier names one ISO-8601 week. Two identifiers are equal iff both
// fields match, so the zero-cost struct comparison works and the type is
// usable as a map key.
type Identifier struct {
	Year int `json:"iso_year"`
	Week int `json:"iso_week"` // 1-53
}

// Of returns the identifier of the week containing t. Total over all valid
// dates: late-December instants can map into week 1 of the next ISO year and
// early-January instants into the last week of the previous one.
func Of(t time.Time) Identifier {
	year, wk := t.UTC().ISOWeek()
	return Identifier{Year: year, Week: wk}
}

// Parse converts the canonical "YYYY-Wnn" form back into an Identifier.
// The week must actually exist in the named ISO year: "2025-W53" is rejected
// because 2025 has 52 weeks.
func Parse(s string) (Identifier, error) {
	if !identifierPattern.MatchString(s) {
		return Identifier{}, fmt.Errorf("%w: %q", core.ErrInvalidWeek, s)
	}
	year, _ := strconv.Atoi(s[:4])
	wk, _ := strconv.Atoi(s[6:])
	if wk < 1 || wk > 53 {
		return Identifier{}, fmt.Errorf("%w: week %02d out of range", core.ErrInvalidWeek, wk)
	}
	id := Identifier{Year: year, Week: wk}
	if Of(id.Start()) != id {
		return Identifier{}, fmt.Errorf("%w: %s does not exist", core.ErrInvalidWeek, s)
	}
	return id, nil
}

// String renders the canonical zero-padded "YYYY-Wnn" form.
func (id Identifier) String() string {
	return fmt.Sprintf("%04d-W%02d", id.Year, id.Week)
}

// Start returns Monday 00:00:00.000 UTC of the week.
//
// January 4 falls in week 1 of every ISO year, so week 1's Monday is found
// by walking back from it; later weeks are whole-week offsets from there.
func (id Identifier) Start() time.Time {
	jan4 := time.Date(id.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // time.Sunday is 0, ISO counts it as day 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (id.Week-1)*7)
}

// End returns Sunday 23:59:59.999 UTC of the week.
func (id Identifier) End() time.Time {
	return id.Start().AddDate(0, 0, 6).
		Add(23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond)
}

// Contains reports whether t falls inside the week, bounds inclusive.
func (id Identifier) Contains(t time.Time) bool {
	return !t.Before(id.Start()) && !t.After(id.End())
}
