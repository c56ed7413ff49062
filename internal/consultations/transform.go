// Package consultations keeps a viewer's consultation feed current by polling
// the clinical API and reconciling each result into the displayed list.
package consultations

import (
	"bytes"
	"sort"
	"time"

	"healthcare-portal/internal/appointments"
	"healthcare-portal/internal/clinicalapi"
	"healthcare-portal/internal/models"
	"healthcare-portal/internal/triage"

	"github.com/goccy/go-json"
)

// Transform converts a raw API record into the canonical consultation shape.
// It never fails: unparsable fields are left unset.
func Transform(raw clinicalapi.Consultation) models.Consultation {
	c := models.Consultation{
		ID:        string(raw.ID),
		PatientID: string(raw.PatientID),
		DoctorID:  string(raw.DoctorID),
		Status:    triage.NormalizeStatus(raw.Status),
		RiskLevel: riskOf(raw),
	}
	if raw.Patient != nil {
		id := raw.Patient.ID
		if id == "" {
			id = raw.PatientID
		}
		c.Patient = &models.PartyRef{ID: string(id), Name: raw.Patient.Name}
	}
	if text, ok := DeriveSummary(raw.AISummary); ok {
		c.SummaryText = &text
	}
	if raw.MessageCount != nil && *raw.MessageCount > 0 {
		c.MessageCount = *raw.MessageCount
	}

	if t, err := appointments.ParseDatetime(raw.CreatedAt); err == nil {
		c.CreatedAt = t
	}
	c.UpdatedAt = c.CreatedAt
	if raw.UpdatedAt != nil {
		if t, err := appointments.ParseDatetime(*raw.UpdatedAt); err == nil {
			c.UpdatedAt = t
		}
	}
	return c
}

// TransformAll transforms a fetched page and orders it for display: most
// recently updated first, ties kept in fetch order.
func TransformAll(raws []clinicalapi.Consultation) []models.Consultation {
	out := make([]models.Consultation, len(raws))
	for i, raw := range raws {
		out[i] = Transform(raw)
	}
	SortByRecency(out)
	return out
}

// SortByRecency sorts in place by UpdatedAt descending. The sort is stable so
// equal timestamps keep their incoming order.
func SortByRecency(list []models.Consultation) {
	sort.SliceStable(list, func(i, j int) bool {
		return recency(list[i]).After(recency(list[j]))
	})
}

func recency(c models.Consultation) time.Time {
	if c.UpdatedAt.IsZero() {
		return c.CreatedAt
	}
	return c.UpdatedAt
}

// riskOf reads the top-level risk_level first and falls back to the
// risk_level inside risk_assessment.
func riskOf(raw clinicalapi.Consultation) models.RiskLevel {
	if raw.RiskLevel != nil {
		if level := triage.NormalizeRisk(*raw.RiskLevel); level != models.RiskNone {
			return level
		}
	}
	assessment := bytes.TrimSpace(raw.RiskAssessment)
	if len(assessment) == 0 || assessment[0] != '{' {
		return models.RiskNone
	}
	var ra struct {
		RiskLevel string `json:"risk_level"`
	}
	if err := json.Unmarshal(assessment, &ra); err != nil {
		return models.RiskNone
	}
	return triage.NormalizeRisk(ra.RiskLevel)
}
