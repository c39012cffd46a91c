package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidFilter is returned for malformed period query values.
var ErrInvalidFilter = errors.New("invalid filter")

const dateLayout = "2006-01-02"

type filterKind int

const (
	kindAll filterKind = iota
	kindRange
	kindMonth
	kindYear
)

// Filter restricts reports to a half-open range [from, to) of occurred_on dates.
// The zero value is All.
type Filter struct {
	kind     filterKind
	from, to time.Time
	label    string
}

func All() Filter {
	return Filter{kind: kindAll}
}

// Range covers start through end, both inclusive.
func Range(start, end time.Time) (Filter, error) {
	start, end = day(start), day(end)
	if end.Before(start) {
		return Filter{}, fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidFilter,
			end.Format(dateLayout), start.Format(dateLayout))
	}
	return Filter{
		kind:  kindRange,
		from:  start,
		to:    end.AddDate(0, 0, 1),
		label: start.Format(dateLayout) + ".." + end.Format(dateLayout),
	}, nil
}

// Month parses "YYYY-MM".
func Month(s string) (Filter, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Filter{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidFilter)
	}
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Filter{kind: kindMonth, from: from, to: from.AddDate(0, 1, 0), label: from.Format("2006-01")}, nil
}

// Year parses a four digit year.
func Year(s string) (Filter, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1 || y > 9999 {
		return Filter{}, fmt.Errorf("%w: year must be a number between 1 and 9999", ErrInvalidFilter)
	}
	from := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Filter{kind: kindYear, from: from, to: from.AddDate(1, 0, 0), label: strconv.Itoa(y)}, nil
}

// ParseFilter picks the filter from query values: a complete start/end pair wins
// over month, which wins over year. Nothing set means All.
func ParseFilter(startDate, endDate, month, year string) (Filter, error) {
	switch {
	case startDate != "" && endDate != "":
		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrInvalidFilter)
		}
		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrInvalidFilter)
		}
		return Range(start, end)
	case month != "":
		return Month(month)
	case year != "":
		return Year(year)
	default:
		return All(), nil
	}
}

// Bounds returns the half-open range; ok is false for All.
func (f Filter) Bounds() (from, to time.Time, ok bool) {
	if f.kind == kindAll {
		return time.Time{}, time.Time{}, false
	}
	return f.from, f.to, true
}

// Label is a short description of the period, "all" for All.
func (f Filter) Label() string {
	if f.kind == kindAll {
		return "all"
	}
	return f.label
}

// Apply adds the range condition on column to db.
func (f Filter) Apply(db *gorm.DB, column string) *gorm.DB {
	from, to, ok := f.Bounds()
	if !ok {
		return db
	}
	return db.Where(column+" >= ? AND "+column+" < ?", from, to)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
