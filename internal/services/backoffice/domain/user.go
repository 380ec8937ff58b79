package domain

import "strings"

// RoleLearner is the identity role held by program learners.
const RoleLearner = "learner"

// User is one identity record plus the fields filled in by enrichment.
//
// Users are fetched per request and enriched in place; the returned pointers
// are the authoritative versions of the fetched records.
type User struct {
	ID     string   `json:"id"`
	Handle string   `json:"handle"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	Active bool     `json:"active"`

	Phase           *Phase  `json:"phase"`
	PhaseStartDate  *string `json:"phaseStartDate"`
	PhaseWeek       *int    `json:"phaseWeek"`
	Phase1StartDate *string `json:"phase1StartDate"`
	Phase2StartDate *string `json:"phase2StartDate"`
	Phase3StartDate *string `json:"phase3StartDate"`
	Phase4StartDate *string `json:"phase4StartDate"`
	Phase5StartDate *string `json:"phase5StartDate"`

	Vid               *int64  `json:"vid,omitempty"`
	HubspotURL        *string `json:"hubspotURL,omitempty"`
	Nickname          *string `json:"nickname,omitempty"`
	EnrolleeStartDate *string `json:"enrolleeStartDate,omitempty"`

	// EchoPhase and HubspotPhase snapshot both phase sources before
	// resolution so callers can tell where Phase came from.
	EchoPhase        *Phase `json:"_echoPhase,omitempty"`
	HubspotPhase     *Phase `json:"_hubspotPhase,omitempty"`
	HubspotPhaseWeek *int   `json:"_hubspotPhaseWeek,omitempty"`

	LearningFacilitator              *string `json:"learningFacilitator,omitempty"`
	PersonalDevelopmentDaysRemaining int     `json:"personalDevelopmentDaysRemaining"`
	PersonalDevelopmentDaysUsed      int     `json:"personalDevelopmentDaysUsed"`
	PersonalDaysRemaining            int     `json:"personalDaysRemaining"`
	PersonalDaysUsed                 int     `json:"personalDaysUsed"`

	// Errors collects non-fatal enrichment failures in the order they happened.
	Errors []string `json:"errors"`

	// HubspotContact is the raw contact last merged into the user. It is kept
	// for inspection only.
	HubspotContact *Contact `json:"__hubspotContact,omitempty"`
}

// IsLearner reports whether the user holds the learner role.
func IsLearner(user *User) bool {
	if user == nil {
		return false
	}
	for _, role := range user.Roles {
		if strings.TrimSpace(role) == RoleLearner {
			return true
		}
	}
	return false
}

// IsActive reports whether the identity service marks the user active.
func IsActive(user *User) bool {
	return user != nil && user.Active
}

// IsInactive reports whether the identity service marks the user inactive.
func IsInactive(user *User) bool {
	return user != nil && !user.Active
}

// phaseStartDates maps each phase to the user field holding its start date.
var phaseStartDates = [...]func(*User) **string{
	1: func(u *User) **string { return &u.Phase1StartDate },
	2: func(u *User) **string { return &u.Phase2StartDate },
	3: func(u *User) **string { return &u.Phase3StartDate },
	4: func(u *User) **string { return &u.Phase4StartDate },
	5: func(u *User) **string { return &u.Phase5StartDate },
}

// PhaseStartDateFor returns the recorded start date for phase, or nil when the
// phase is invalid or has no date.
func (u *User) PhaseStartDateFor(phase Phase) *string {
	field := u.phaseStartDateField(phase)
	if field == nil {
		return nil
	}
	return *field
}

func (u *User) phaseStartDateField(phase Phase) **string {
	if u == nil || !phase.Valid() || int(phase) >= len(phaseStartDates) {
		return nil
	}
	return phaseStartDates[phase](u)
}

// ensureErrors guarantees Errors is present after an enrichment attempt.
func (u *User) ensureErrors() {
	if u.Errors == nil {
		u.Errors = []string{}
	}
}

// appendError records one enrichment failure.
func (u *User) appendError(message string) {
	u.ensureErrors()
	u.Errors = append(u.Errors, message)
}

// Contact is one CRM contact record keyed by email.
type Contact struct {
	Vid                   int64  `json:"vid"`
	URL                   string `json:"url"`
	Email                 string `json:"email"`
	Nickname              string `json:"nickname"`
	Phase                 *int   `json:"phase"`
	PhaseWeek             *int   `json:"phase_week"`
	EnrolleeStartDate     string `json:"enrollee_start_date"`
	DatePhase1            string `json:"date_phase_1"`
	DatePhase2            string `json:"date_phase_2"`
	DatePhase3            string `json:"date_phase_3"`
	DatePhase4            string `json:"date_phase_4"`
	DatePhase5            string `json:"date_phase_5"`
	LearningFacilitator   string `json:"learning_facilitator"`
	PDDaysRemaining       int    `json:"pd_days_remaining"`
	PDDaysUsed            int    `json:"pd_days_used"`
	PersonalDaysRemaining int    `json:"personal_days_remaining"`
	PersonalDays          int    `json:"personal_days"`
}

// DatePhase returns the contact's start date for phase, or "" when unknown.
func (c *Contact) DatePhase(phase Phase) string {
	if c == nil {
		return ""
	}
	switch phase {
	case 1:
		return c.DatePhase1
	case 2:
		return c.DatePhase2
	case 3:
		return c.DatePhase3
	case 4:
		return c.DatePhase4
	case 5:
		return c.DatePhase5
	default:
		return ""
	}
}

// SetDatePhase stores the contact's start date for phase. Invalid phases are
// ignored.
func (c *Contact) SetDatePhase(phase Phase, value string) {
	if c == nil {
		return
	}
	switch phase {
	case 1:
		c.DatePhase1 = value
	case 2:
		c.DatePhase2 = value
	case 3:
		c.DatePhase3 = value
	case 4:
		c.DatePhase4 = value
	case 5:
		c.DatePhase5 = value
	}
}
