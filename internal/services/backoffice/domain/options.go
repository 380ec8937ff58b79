package domain

// Activity selects users by identity activity status.
type Activity string

const (
	// ActivityDefault applies the default filter, which keeps active users.
	ActivityDefault Activity = ""
	// ActivityActive keeps only active users.
	ActivityActive Activity = "active"
	// ActivityInactive keeps only inactive users.
	ActivityInactive Activity = "inactive"
	// ActivityAny disables the activity filter. Unrecognized values behave the
	// same way.
	ActivityAny Activity = "any"
)

// Options controls one user listing request. Unset fields take the defaults
// documented on each field.
type Options struct {
	// Activity filters by activity status; default active.
	Activity Activity
	// Learners keeps only learner-role users; default false.
	Learners *bool
	// Phase post-filters by resolved phase and forces phase enrichment. Values
	// outside Phases are ignored.
	Phase *int
	// IncludePhases loads phases from the phase service; default false.
	IncludePhases *bool
	// IncludeHubspotData merges CRM contacts; default false.
	IncludeHubspotData *bool
}

// Bool returns a pointer to v for Options fields.
func Bool(v bool) *bool {
	return &v
}

// Int returns a pointer to v for Options fields.
func Int(v int) *int {
	return &v
}

// resolvedOptions is Options merged over defaults and validated.
type resolvedOptions struct {
	activity           Activity
	learners           bool
	phase              *Phase
	includePhases      bool
	includeHubspotData bool
}

// resolve merges caller options over defaults. A valid phase forces phase
// enrichment; an invalid phase is dropped.
func (o Options) resolve() resolvedOptions {
	resolved := resolvedOptions{
		activity: ActivityActive,
	}
	switch o.Activity {
	case ActivityDefault, ActivityActive:
		resolved.activity = ActivityActive
	case ActivityInactive:
		resolved.activity = ActivityInactive
	default:
		resolved.activity = ActivityAny
	}
	if o.Learners != nil {
		resolved.learners = *o.Learners
	}
	if o.IncludePhases != nil {
		resolved.includePhases = *o.IncludePhases
	}
	if o.IncludeHubspotData != nil {
		resolved.includeHubspotData = *o.IncludeHubspotData
	}
	if o.Phase != nil && IsValidPhase(*o.Phase) {
		phase := Phase(*o.Phase)
		resolved.phase = &phase
		resolved.includePhases = true
	}
	return resolved
}
