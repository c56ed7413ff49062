package models

import "strings"

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ParseRole normalizes a role claim. The remote API and older tokens disagree on
// casing, and "user" is the legacy spelling of patient.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "hospital_admin", "hospital-admin":
		return RoleAdmin, true
	case "doctor":
		return RoleDoctor, true
	case "patient", "user":
		return RolePatient, true
	}
	return "", false
}

// Viewer identifies the authenticated user a view belongs to.
type Viewer struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}
