package calendar

import (
	"testing"
	"time"

	"healthcare-portal/internal/models"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)

func TestInitial(t *testing.T) {
	s := Initial(fixedNow)
	assert.Equal(t, 2025, s.Year)
	assert.Equal(t, time.March, s.Month)
	assert.Equal(t, ViewMonth, s.ViewMode)
	assert.Nil(t, s.SelectedDay)
}

func TestReduce_MonthNavigationRollsYear(t *testing.T) {
	s := State{Year: 2025, Month: time.January, ViewMode: ViewMonth}
	s = Reduce(s, PreviousMonth{})
	assert.Equal(t, 2024, s.Year)
	assert.Equal(t, time.December, s.Month)

	s = Reduce(s, NextMonth{})
	assert.Equal(t, 2025, s.Year)
	assert.Equal(t, time.January, s.Month)

	s = State{Year: 2025, Month: time.December}
	s = Reduce(s, NextMonth{})
	assert.Equal(t, 2026, s.Year)
	assert.Equal(t, time.January, s.Month)
}

func TestReduce_NavigationKeepsSelection(t *testing.T) {
	d := Date{Year: 2025, Month: time.March, Day: 3}
	s := Reduce(Initial(fixedNow), SelectDay{Date: d})
	require.Equal(t, ViewDay, s.ViewMode)

	// navigating in day view is allowed and leaves the selection alone
	s = Reduce(s, NextMonth{})
	assert.Equal(t, time.April, s.Month)
	require.NotNil(t, s.SelectedDay)
	assert.Equal(t, d, *s.SelectedDay)
	assert.Equal(t, ViewDay, s.ViewMode)
}

func TestReduce_TodayDoesNotChangeMode(t *testing.T) {
	s := State{Year: 2020, Month: time.July, ViewMode: ViewMonth}
	s = Reduce(s, Today{Now: fixedNow})
	assert.Equal(t, 2025, s.Year)
	assert.Equal(t, time.March, s.Month)
	require.NotNil(t, s.SelectedDay)
	assert.Equal(t, Date{Year: 2025, Month: time.March, Day: 14}, *s.SelectedDay)
	assert.Equal(t, ViewMonth, s.ViewMode)
}

func TestReduce_SetViewModeKeepsSelection(t *testing.T) {
	d := Date{Year: 2025, Month: time.March, Day: 3}
	s := Reduce(Initial(fixedNow), SelectDay{Date: d})
	s = Reduce(s, SetViewMode{Mode: ViewMonth})
	assert.Equal(t, ViewMonth, s.ViewMode)
	require.NotNil(t, s.SelectedDay)
	assert.Equal(t, d, *s.SelectedDay)

	// day view with nothing selected is a valid state
	s = Reduce(Initial(fixedNow), SetViewMode{Mode: ViewDay})
	assert.Equal(t, ViewDay, s.ViewMode)
	assert.Nil(t, s.SelectedDay)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	first := Date{Year: 2025, Month: time.March, Day: 3}
	s := Reduce(Initial(fixedNow), SelectDay{Date: first})
	_ = Reduce(s, SelectDay{Date: Date{Year: 2025, Month: time.March, Day: 9}})
	assert.Equal(t, first, *s.SelectedDay)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.March, Day: 3}, d)
	assert.Equal(t, "2025-03-03", d.String())

	for _, bad := range []string{"2025-03-32", "2025-02-29", "2025-13-01", "03/03/2025", ""} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}

	_, err = ParseDate("2024-02-29")
	assert.NoError(t, err)
}

func TestNewDate(t *testing.T) {
	_, err := NewDate(2025, time.March, 32)
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = NewDate(2025, time.Month(0), 1)
	assert.ErrorIs(t, err, ErrInvalidDate)
	d, err := NewDate(2025, time.April, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, d.Day)
}

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode("day")
	require.NoError(t, err)
	assert.Equal(t, ViewDay, m)
	_, err = ParseViewMode("week")
	assert.ErrorIs(t, err, ErrInvalidViewMode)
}

func TestState_JSON(t *testing.T) {
	d := Date{Year: 2025, Month: time.March, Day: 3}
	b, err := json.Marshal(State{Year: 2025, Month: time.March, SelectedDay: &d, ViewMode: ViewDay})
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":2025,"month":3,"selectedDay":"2025-03-03","viewMode":"day"}`, string(b))

	var back State
	require.NoError(t, json.Unmarshal(b, &back))
	require.NotNil(t, back.SelectedDay)
	assert.Equal(t, d, *back.SelectedDay)

	assert.Error(t, json.Unmarshal([]byte(`{"selectedDay":"2025-02-30"}`), &back))
}

func TestMachine_Notifications(t *testing.T) {
	var modes []ViewMode
	var clicked []string
	m := NewMachine(func() time.Time { return fixedNow }, ListenerFuncs{
		AppointmentClick: func(a models.Appointment) { clicked = append(clicked, a.ID) },
		ViewModeChange:   func(mode ViewMode) { modes = append(modes, mode) },
	})

	m.SelectDay(Date{Year: 2025, Month: time.March, Day: 3})
	m.SelectDay(Date{Year: 2025, Month: time.March, Day: 4}) // already in day view
	m.SetViewMode(ViewMonth)
	m.NextMonth()
	assert.Equal(t, []ViewMode{ViewDay, ViewMonth}, modes)

	before := m.State()
	m.ClickAppointment(models.Appointment{ID: "a1"})
	assert.Equal(t, []string{"a1"}, clicked)
	assert.Equal(t, before, m.State())
}

func TestMachine_StateIsSnapshot(t *testing.T) {
	m := NewMachine(func() time.Time { return fixedNow }, nil)
	s := m.Today()
	s.SelectedDay.Day = 1
	assert.Equal(t, 14, m.State().SelectedDay.Day)
}
