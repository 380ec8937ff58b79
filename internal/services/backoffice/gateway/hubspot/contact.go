package hubspot

import (
	"strconv"
	"strings"

	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
)

// property is one HubSpot property envelope.
type property struct {
	Value string `json:"value"`
}

// contactRecord is a contact as the contacts v1 API returns it.
type contactRecord struct {
	Vid        int64               `json:"vid"`
	ProfileURL string              `json:"profile-url"`
	Properties map[string]property `json:"properties"`
}

func (r contactRecord) value(name string) string {
	return strings.TrimSpace(r.Properties[name].Value)
}

func (r contactRecord) intValue(name string) int {
	value, _ := r.optionalInt(name)
	if value == nil {
		return 0
	}
	return *value
}

func (r contactRecord) optionalInt(name string) (*int, bool) {
	raw := r.value(name)
	if raw == "" {
		return nil, false
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	value := int(parsed)
	return &value, true
}

// toDomain flattens property envelopes into a contact.
func (r contactRecord) toDomain() domain.Contact {
	phase, _ := r.optionalInt("phase")
	phaseWeek, _ := r.optionalInt("phase_week")
	contact := domain.Contact{
		Vid:                   r.Vid,
		URL:                   r.ProfileURL,
		Email:                 r.value("email"),
		Nickname:              r.value("nickname"),
		Phase:                 phase,
		PhaseWeek:             phaseWeek,
		EnrolleeStartDate:     r.value("enrollee_start_date"),
		LearningFacilitator:   r.value("learning_facilitator"),
		PDDaysRemaining:       r.intValue("pd_days_remaining"),
		PDDaysUsed:            r.intValue("pd_days_used"),
		PersonalDaysRemaining: r.intValue("personal_days_remaining"),
		PersonalDays:          r.intValue("personal_days"),
	}
	for _, phase := range domain.Phases {
		contact.SetDatePhase(phase, r.value("date_phase_"+strconv.Itoa(int(phase))))
	}
	return contact
}

// contactProperties lists the properties requested from HubSpot.
func contactProperties() []string {
	properties := []string{
		"email",
		"nickname",
		"phase",
		"phase_week",
		"enrollee_start_date",
		"learning_facilitator",
		"pd_days_remaining",
		"pd_days_used",
		"personal_days_remaining",
		"personal_days",
	}
	for _, phase := range domain.Phases {
		properties = append(properties, "date_phase_"+strconv.Itoa(int(phase)))
	}
	return properties
}
