package appointments

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"healthcare-portal/internal/clinicalapi"
	"healthcare-portal/internal/models"
)

var (
	ErrMissingID       = errors.New("appointment id is required")
	ErrInvalidDatetime = errors.New("appointment datetime is not a valid instant")
)

// Layouts accepted for appointment datetimes. Naive layouts carry no zone and
// are read as UTC, which is what the API stores. A bare date is midnight UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseDatetime parses an ISO-8601 timestamp as emitted by the clinical API.
func ParseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDatetime)
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDatetime, s)
}

// Normalize converts a raw API record into the canonical appointment shape.
func Normalize(raw clinicalapi.Appointment) (models.Appointment, error) {
	if raw.ID == "" {
		return models.Appointment{}, ErrMissingID
	}
	at, err := ParseDatetime(raw.Datetime)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("appointment %s: %w", raw.ID, err)
	}

	appt := models.Appointment{
		ID:             string(raw.ID),
		Datetime:       at,
		Mode:           normalizeMode(raw.Mode),
		ConsultationID: string(raw.ConsultationID),
		Patient:        partyRef(raw.Patient, raw.PatientID),
		Doctor:         partyRef(raw.Doctor, raw.DoctorID),
	}
	if raw.ExternalLink != nil {
		appt.ExternalLink = *raw.ExternalLink
	}
	return appt, nil
}

// NormalizeAll normalizes a batch, dropping records that fail validation.
// It returns the valid appointments in input order and the number rejected.
func NormalizeAll(raws []clinicalapi.Appointment) ([]models.Appointment, int) {
	out := make([]models.Appointment, 0, len(raws))
	rejected := 0
	for _, raw := range raws {
		appt, err := Normalize(raw)
		if err != nil {
			rejected++
			continue
		}
		out = append(out, appt)
	}
	return out, rejected
}

func normalizeMode(s string) models.AppointmentMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online", "video", "virtual":
		return models.ModeOnline
	default:
		return models.ModeInPerson
	}
}

func partyRef(p *clinicalapi.Party, fallbackID clinicalapi.ID) *models.PartyRef {
	if p != nil {
		id := p.ID
		if id == "" {
			id = fallbackID
		}
		return &models.PartyRef{ID: string(id), Name: p.Name}
	}
	if fallbackID != "" {
		return &models.PartyRef{ID: string(fallbackID)}
	}
	return nil
}
