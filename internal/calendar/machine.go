package calendar

import (
	"sync"
	"time"

	"healthcare-portal/internal/models"
)

// Listener receives the calendar's outbound notifications. Both are pure
// notifications: the calendar does not wait for or use any result.
type Listener interface {
	OnAppointmentClick(appt models.Appointment)
	OnViewModeChange(mode ViewMode)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	AppointmentClick func(models.Appointment)
	ViewModeChange   func(ViewMode)
}

func (l ListenerFuncs) OnAppointmentClick(appt models.Appointment) {
	if l.AppointmentClick != nil {
		l.AppointmentClick(appt)
	}
}

func (l ListenerFuncs) OnViewModeChange(mode ViewMode) {
	if l.ViewModeChange != nil {
		l.ViewModeChange(mode)
	}
}

// Machine owns a calendar State for one viewer and is safe for concurrent use.
type Machine struct {
	mu       sync.Mutex
	state    State
	now      func() time.Time
	listener Listener
}

// NewMachine starts a calendar on the current month of now() in month view.
func NewMachine(now func() time.Time, listener Listener) *Machine {
	if now == nil {
		now = time.Now
	}
	if listener == nil {
		listener = ListenerFuncs{}
	}
	return &Machine{
		state:    Initial(now()),
		now:      now,
		listener: listener,
	}
}

// State returns a snapshot of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Machine) PreviousMonth() State { return m.apply(PreviousMonth{}) }
func (m *Machine) NextMonth() State     { return m.apply(NextMonth{}) }
func (m *Machine) Today() State         { return m.apply(Today{Now: m.now()}) }

func (m *Machine) SelectDay(d Date) State { return m.apply(SelectDay{Date: d}) }

func (m *Machine) SetViewMode(mode ViewMode) State { return m.apply(SetViewMode{Mode: mode}) }

// ClickAppointment forwards the appointment to the listener. The calendar's
// cursor and view mode are left untouched.
func (m *Machine) ClickAppointment(appt models.Appointment) {
	m.listener.OnAppointmentClick(appt)
}

func (m *Machine) apply(ev Event) State {
	m.mu.Lock()
	prev := m.state.ViewMode
	m.state = Reduce(m.state, ev)
	next := m.snapshot()
	m.mu.Unlock()

	// notify outside the lock so listeners may read the machine
	if next.ViewMode != prev {
		m.listener.OnViewModeChange(next.ViewMode)
	}
	return next
}

func (m *Machine) snapshot() State {
	s := m.state
	if s.SelectedDay != nil {
		d := *s.SelectedDay
		s.SelectedDay = &d
	}
	return s
}
