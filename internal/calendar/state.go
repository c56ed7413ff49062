// Package calendar holds the navigation state of the appointment calendar and
// the transitions between its month and day views.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ViewMode is either month or day.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewDay   ViewMode = "day"
)

// ParseViewMode validates a mode coming from a caller.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewMonth, ViewDay:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidViewMode, s)
}

var (
	ErrInvalidDate     = errors.New("invalid calendar date")
	ErrInvalidViewMode = errors.New("invalid view mode")
)

// Date is a civil calendar date with no time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate parses YYYY-MM-DD and rejects dates that do not exist.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// NewDate validates the components of a date.
func NewDate(year int, month time.Month, day int) (Date, error) {
	if month < time.January || month > time.December || day < 1 {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// State is the calendar cursor. SelectedDay may lie outside the displayed
// month: navigating months keeps a remembered selection.
type State struct {
	Year        int        `json:"year"`
	Month       time.Month `json:"month"`
	SelectedDay *Date      `json:"selectedDay"`
	ViewMode    ViewMode   `json:"viewMode"`
}

// Initial returns the starting state: month view on now's month, nothing selected.
func Initial(now time.Time) State {
	return State{
		Year:     now.Year(),
		Month:    now.Month(),
		ViewMode: ViewMonth,
	}
}

// Event is a calendar transition input.
type Event interface {
	isEvent()
}

type (
	PreviousMonth struct{}
	NextMonth     struct{}
	// Today moves the cursor to Now's month and selects Now's date.
	Today struct {
		Now time.Time
	}
	// SelectDay drills into Day view. Date must already be valid.
	SelectDay struct {
		Date Date
	}
	SetViewMode struct {
		Mode ViewMode
	}
)

func (PreviousMonth) isEvent() {}
func (NextMonth) isEvent()     {}
func (Today) isEvent()         {}
func (SelectDay) isEvent()     {}
func (SetViewMode) isEvent()   {}

// Reduce applies ev to s and returns the new state. It never mutates s.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case PreviousMonth:
		s.Year, s.Month = shiftMonth(s.Year, s.Month, -1)
	case NextMonth:
		s.Year, s.Month = shiftMonth(s.Year, s.Month, 1)
	case Today:
		today := DateOf(e.Now)
		s.Year, s.Month = today.Year, today.Month
		s.SelectedDay = &today
	case SelectDay:
		d := e.Date
		s.SelectedDay = &d
		s.ViewMode = ViewDay
	case SetViewMode:
		s.ViewMode = e.Mode
	}
	return s
}

func shiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	m := int(month) - 1 + delta
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	return year, time.Month(m + 1)
}
