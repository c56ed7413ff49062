package appointments

import (
	"testing"
	"time"

	"healthcare-portal/internal/clinicalapi"
	"healthcare-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appt(id string, at time.Time) models.Appointment {
	return models.Appointment{ID: id, Datetime: at, Mode: models.ModeInPerson}
}

func TestNormalize(t *testing.T) {
	link := "https://cal.example/booking/1"
	raw := clinicalapi.Appointment{
		ID:           "12",
		PatientID:    "3",
		DoctorID:     "5",
		Datetime:     "2025-03-03T09:00:00+00:00",
		Mode:         "online",
		ExternalLink: &link,
		Patient:      &clinicalapi.Party{ID: "3", Name: "Ana"},
	}

	got, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "12", got.ID)
	assert.True(t, got.Datetime.Equal(time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, models.ModeOnline, got.Mode)
	assert.True(t, got.IsOnline())
	assert.Equal(t, &models.PartyRef{ID: "3", Name: "Ana"}, got.Patient)
	// doctor has no embedded summary, only the id
	assert.Equal(t, &models.PartyRef{ID: "5"}, got.Doctor)
	assert.Equal(t, link, got.ExternalLink)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  clinicalapi.Appointment
		want error
	}{
		{"missing id", clinicalapi.Appointment{Datetime: "2025-03-03T09:00:00Z"}, ErrMissingID},
		{"missing datetime", clinicalapi.Appointment{ID: "1"}, ErrInvalidDatetime},
		{"garbage datetime", clinicalapi.Appointment{ID: "1", Datetime: "next tuesday"}, ErrInvalidDatetime},
		{"impossible date", clinicalapi.Appointment{ID: "1", Datetime: "2025-02-30T09:00:00Z"}, ErrInvalidDatetime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalize_ModeAndNaiveTimestamps(t *testing.T) {
	got, err := Normalize(clinicalapi.Appointment{ID: "1", Datetime: "2025-03-03T14:30:00.123456", Mode: "something"})
	require.NoError(t, err)
	assert.Equal(t, models.ModeInPerson, got.Mode)
	assert.Equal(t, time.UTC, got.Datetime.Location())
	assert.Equal(t, 14, got.Datetime.Hour())

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-03T09:00:00Z", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"2025-03-03T09:00", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"2025-03-03T09:00Z", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"2025-03-03T09:00+01:00", time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)},
		{"2025-03-03T14:30:00+0530", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"2025-03-03T14:30:00.5+0530", time.Date(2025, 3, 3, 9, 0, 0, 500000000, time.UTC)},
		{"2025-03-03T14:30+0530", time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"2025-03-03", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(clinicalapi.Appointment{ID: "1", Datetime: tt.in})
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Datetime), "got %s", got.Datetime)
		})
	}

	for _, bad := range []string{"2025-03-03T9", "03/03/2025", "2025-13-03"} {
		_, err := ParseDatetime(bad)
		assert.ErrorIs(t, err, ErrInvalidDatetime, bad)
	}
}

func TestNormalizeAll(t *testing.T) {
	raws := []clinicalapi.Appointment{
		{ID: "1", Datetime: "2025-03-03T09:00:00Z"},
		{ID: "2", Datetime: ""},
		{ID: "3", Datetime: "2025-03-20T09:00:00Z"},
	}
	got, rejected := NormalizeAll(raws)
	assert.Equal(t, 1, rejected)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestDaysInAndMonthGrid(t *testing.T) {
	assert.Equal(t, 31, DaysIn(2025, time.January))
	assert.Equal(t, 28, DaysIn(2025, time.February))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 30, DaysIn(2025, time.April))

	// March 1st 2025 is a Saturday
	g := MonthGrid(2025, time.March, time.UTC)
	assert.Equal(t, 6, g.LeadingBlanks)
	assert.Equal(t, 31, g.DaysInMonth)

	// June 1st 2025 is a Sunday: no leading blanks
	g = MonthGrid(2025, time.June, time.UTC)
	assert.Equal(t, 0, g.LeadingBlanks)
	assert.Equal(t, 30, g.DaysInMonth)
}

func TestBucketByMonth_FlattenMatchesMonthSubset(t *testing.T) {
	loc := time.UTC
	all := []models.Appointment{
		appt("a", time.Date(2025, 3, 3, 14, 0, 0, 0, loc)),
		appt("b", time.Date(2025, 3, 3, 9, 0, 0, 0, loc)),
		appt("c", time.Date(2025, 3, 20, 11, 0, 0, 0, loc)),
		appt("d", time.Date(2025, 2, 28, 23, 0, 0, 0, loc)),
		appt("e", time.Date(2025, 4, 1, 0, 0, 0, 0, loc)),
		appt("f", time.Time{}),
		appt("g", time.Date(2024, 3, 3, 9, 0, 0, 0, loc)),
	}

	buckets := BucketByMonth(all, 2025, time.March, loc)

	seen := map[string]int{}
	for day, list := range buckets {
		for _, a := range list {
			seen[a.ID]++
			assert.Equal(t, day, a.Datetime.In(loc).Day())
		}
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)

	require.Len(t, buckets[3], 2)
	assert.Equal(t, "b", buckets[3][0].ID)
	assert.Equal(t, "a", buckets[3][1].ID)
	assert.Equal(t, map[int]int{3: 2, 20: 1}, CountByDay(buckets))
}

func TestBucketByMonth_UsesViewerTimezone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on March 31st is already April 1st in Tokyo
	late := appt("late", time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC))

	utc := BucketByMonth([]models.Appointment{late}, 2025, time.March, time.UTC)
	assert.Len(t, utc[31], 1)

	jst := BucketByMonth([]models.Appointment{late}, 2025, time.March, tokyo)
	assert.Empty(t, jst)
	jstApril := BucketByMonth([]models.Appointment{late}, 2025, time.April, tokyo)
	assert.Len(t, jstApril[1], 1)
}

func TestFilterByDay(t *testing.T) {
	loc := time.UTC
	all := []models.Appointment{
		appt("pm", time.Date(2025, 3, 3, 14, 0, 0, 0, loc)),
		appt("other-month", time.Date(2025, 4, 3, 9, 0, 0, 0, loc)),
		appt("am", time.Date(2025, 3, 3, 9, 0, 0, 0, loc)),
		appt("noon", time.Date(2025, 3, 3, 12, 0, 0, 0, loc)),
		appt("zero", time.Time{}),
	}

	got := FilterByDay(all, 2025, time.March, 3, loc)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Datetime.Before(got[i].Datetime))
	}
	assert.Equal(t, "am", got[0].ID)
	assert.Equal(t, "pm", got[2].ID)

	assert.Empty(t, FilterByDay(all, 2025, time.March, 4, loc))
	assert.NotNil(t, FilterByDay(nil, 2025, time.March, 4, loc))
}
