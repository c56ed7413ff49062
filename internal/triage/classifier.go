// Package triage maps consultation status and risk to presentation categories.
package triage

import (
	"strings"

	"healthcare-portal/internal/models"
)

// Tier orders categories by how urgently a clinician should look at them.
type Tier int

const (
	TierUnknown Tier = iota
	TierDone
	TierWaiting
	TierInReview
	TierUrgent
)

// Category is the display classification of a consultation status.
type Category struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Tier  Tier   `json:"tier"`
}

// Badge is the display classification of a risk level.
type Badge struct {
	Level models.RiskLevel `json:"level"`
	Label string           `json:"label"`
	Color string           `json:"color"`
}

// Unknown is returned for any status not in the table.
var Unknown = Category{Label: "Unknown", Icon: "help", Color: "gray", Tier: TierUnknown}

var statusTable = map[models.ConsultationStatus]Category{
	models.ConsultationPending:      {Label: "Pending", Icon: "clock", Color: "yellow", Tier: TierWaiting},
	models.ConsultationVerified:     {Label: "Verified", Icon: "shield", Color: "blue", Tier: TierInReview},
	models.ConsultationActive:       {Label: "Active", Icon: "activity", Color: "blue", Tier: TierInReview},
	models.ConsultationInProgress:   {Label: "In Progress", Icon: "activity", Color: "blue", Tier: TierInReview},
	models.ConsultationDoctorReview: {Label: "Doctor Review", Icon: "stethoscope", Color: "purple", Tier: TierInReview},
	models.ConsultationEscalated:    {Label: "Escalated", Icon: "alert", Color: "red", Tier: TierUrgent},
	models.ConsultationCompleted:    {Label: "Completed", Icon: "check", Color: "green", Tier: TierDone},
}

var riskTable = map[models.RiskLevel]Badge{
	models.RiskHigh:     {Level: models.RiskHigh, Label: "High Risk", Color: "red"},
	models.RiskModerate: {Level: models.RiskModerate, Label: "Moderate Risk", Color: "orange"},
	models.RiskLow:      {Level: models.RiskLow, Label: "Low Risk", Color: "green"},
}

// ClassifyStatus returns the category for status, or Unknown.
func ClassifyStatus(status models.ConsultationStatus) Category {
	if c, ok := statusTable[status]; ok {
		return c
	}
	return Unknown
}

// ClassifyRisk returns the risk badge for level. ok is false when no badge
// should be shown.
func ClassifyRisk(level models.RiskLevel) (badge Badge, ok bool) {
	badge, ok = riskTable[level]
	return badge, ok
}

// NormalizeRisk folds the legacy spellings of risk into a RiskLevel.
// Unrecognized values yield RiskNone.
func NormalizeRisk(s string) models.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "red":
		return models.RiskHigh
	case "moderate", "medium", "orange":
		return models.RiskModerate
	case "low", "green":
		return models.RiskLow
	}
	return models.RiskNone
}

// NormalizeStatus lowercases a raw status and folds spacing variants
// ("Doctor Review", "doctor-review") into the canonical form.
func NormalizeStatus(s string) models.ConsultationStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return models.ConsultationStatus(s)
}
