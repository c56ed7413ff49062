package models

import (
	"time"
)

// AppointmentMode represents how an appointment takes place
type AppointmentMode string

const (
	ModeOnline   AppointmentMode = "online"
	ModeInPerson AppointmentMode = "inperson"
)

// PartyRef is a weak reference to a patient or doctor. It never owns the user.
type PartyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Appointment is the canonical, read-only projection of a scheduled appointment
type Appointment struct {
	ID             string          `json:"id"`
	Datetime       time.Time       `json:"datetime"`
	Mode           AppointmentMode `json:"mode"`
	ConsultationID string          `json:"consultationId,omitempty"`
	ExternalLink   string          `json:"externalLink,omitempty"`

	Patient *PartyRef `json:"patient,omitempty"`
	Doctor  *PartyRef `json:"doctor,omitempty"`
}

// IsOnline reports whether the appointment is held remotely.
func (a Appointment) IsOnline() bool {
	return a.Mode == ModeOnline
}
