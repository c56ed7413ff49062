package appointments

import (
	"sort"
	"time"

	"healthcare-portal/internal/models"
)

// Grid describes the layout of a month in a Sunday-first calendar grid.
type Grid struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	LeadingBlanks int        `json:"leadingBlanks"`
	DaysInMonth   int        `json:"daysInMonth"`
}

// DaysIn returns the number of days in the given month (28 to 31).
func DaysIn(year int, month time.Month) int {
	// day 0 of the next month normalizes to the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthGrid returns the grid layout for a month. LeadingBlanks is the weekday
// of the first of the month with Sunday as 0.
func MonthGrid(year int, month time.Month, loc *time.Location) Grid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Grid{
		Year:          first.Year(),
		Month:         first.Month(),
		LeadingBlanks: int(first.Weekday()),
		DaysInMonth:   DaysIn(first.Year(), first.Month()),
	}
}

// BucketByMonth groups appointments that fall in (year, month) in loc by day of
// month. Each bucket is ordered by time of day ascending. Appointments without
// a valid instant are skipped.
func BucketByMonth(appts []models.Appointment, year int, month time.Month, loc *time.Location) map[int][]models.Appointment {
	buckets := make(map[int][]models.Appointment)
	for _, a := range appts {
		if a.Datetime.IsZero() {
			continue
		}
		local := a.Datetime.In(loc)
		if local.Year() != year || local.Month() != month {
			continue
		}
		buckets[local.Day()] = append(buckets[local.Day()], a)
	}
	for day := range buckets {
		sortByTime(buckets[day])
	}
	return buckets
}

// FilterByDay returns the appointments whose local calendar day in loc equals
// (year, month, day), ordered by time of day ascending.
func FilterByDay(appts []models.Appointment, year int, month time.Month, day int, loc *time.Location) []models.Appointment {
	out := make([]models.Appointment, 0)
	for _, a := range appts {
		if a.Datetime.IsZero() {
			continue
		}
		y, m, d := a.Datetime.In(loc).Date()
		if y == year && m == month && d == day {
			out = append(out, a)
		}
	}
	sortByTime(out)
	return out
}

// CountByDay reduces month buckets to per-day badge counts.
func CountByDay(buckets map[int][]models.Appointment) map[int]int {
	counts := make(map[int]int, len(buckets))
	for day, list := range buckets {
		counts[day] = len(list)
	}
	return counts
}

func sortByTime(list []models.Appointment) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Datetime.Equal(list[j].Datetime) {
			return list[i].Datetime.Before(list[j].Datetime)
		}
		return list[i].ID < list[j].ID
	})
}
