package clinicalapi

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// ID is an identifier the API may send either as a JSON number or a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", b)
	}
	*id = ID(b)
	return nil
}

// Party is the user summary embedded in appointment and consultation records.
type Party struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Appointment is an appointment record as returned by GET /appointments.
type Appointment struct {
	ID             ID      `json:"id"`
	PatientID      ID      `json:"patient_id"`
	DoctorID       ID      `json:"doctor_id"`
	ConsultationID ID      `json:"consultation_id"`
	Datetime       string  `json:"datetime"`
	Mode           string  `json:"mode"`
	ExternalLink   *string `json:"external_link"`
	Patient        *Party  `json:"patient"`
	Doctor         *Party  `json:"doctor"`
}

// Consultation is a consultation record as returned by GET /consultations.
// AISummary and RiskAssessment arrive in several shapes and are kept raw.
type Consultation struct {
	ID             ID              `json:"id"`
	PatientID      ID              `json:"patient_id"`
	DoctorID       ID              `json:"doctor_id"`
	Patient        *Party          `json:"patient"`
	Status         string          `json:"status"`
	RiskLevel      *string         `json:"risk_level"`
	RiskAssessment json.RawMessage `json:"risk_assessment"`
	AISummary      json.RawMessage `json:"ai_summary"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      *string         `json:"updated_at"`
	MessageCount   *int            `json:"message_count"`
}
