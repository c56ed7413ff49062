package models

import (
	"time"
)

// ConsultationStatus represents where a consultation is in its lifecycle
type ConsultationStatus string

const (
	ConsultationPending      ConsultationStatus = "pending"
	ConsultationVerified     ConsultationStatus = "verified"
	ConsultationActive       ConsultationStatus = "active"
	ConsultationInProgress   ConsultationStatus = "in_progress"
	ConsultationDoctorReview ConsultationStatus = "doctor_review"
	ConsultationEscalated    ConsultationStatus = "escalated"
	ConsultationCompleted    ConsultationStatus = "completed"
)

// RiskLevel is the normalized triage risk of a consultation
type RiskLevel string

const (
	RiskNone     RiskLevel = ""
	RiskHigh     RiskLevel = "high"
	RiskModerate RiskLevel = "moderate"
	RiskLow      RiskLevel = "low"
)

// Consultation is the canonical, read-only projection of a consultation record
type Consultation struct {
	ID           string             `json:"id"`
	PatientID    string             `json:"patientId"`
	DoctorID     string             `json:"doctorId,omitempty"`
	Patient      *PartyRef          `json:"patient,omitempty"`
	Status       ConsultationStatus `json:"status"`
	RiskLevel    RiskLevel          `json:"riskLevel,omitempty"`
	SummaryText  *string            `json:"summaryText,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	MessageCount int                `json:"messageCount"`
}
