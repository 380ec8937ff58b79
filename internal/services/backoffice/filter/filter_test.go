package filter

import (
	"strings"
	"testing"

	"github.com/learnersguild/backoffice/internal/services/backoffice/domain"
)

func TestApplyEmptyFilterKeepsOptions(t *testing.T) {
	t.Parallel()

	base := domain.Options{Activity: domain.ActivityInactive, IncludePhases: domain.Bool(true)}
	got, err := Apply("   ", base)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got.Activity != domain.ActivityInactive || got.IncludePhases == nil || !*got.IncludePhases {
		t.Fatalf("Apply() = %+v, want base options", got)
	}
}

func TestApplyCombinedFilter(t *testing.T) {
	t.Parallel()

	got, err := Apply(`status = "inactive" AND role = "learner" AND phase = 3`, domain.Options{})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got.Activity != domain.ActivityInactive {
		t.Fatalf("activity = %q, want inactive", got.Activity)
	}
	if got.Learners == nil || !*got.Learners {
		t.Fatalf("learners = %v, want true", got.Learners)
	}
	if got.Phase == nil || *got.Phase != 3 {
		t.Fatalf("phase = %v, want 3", got.Phase)
	}
}

func TestApplySingleField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filter   string
		activity domain.Activity
	}{
		{filter: `status = "active"`, activity: domain.ActivityActive},
		{filter: `status = "any"`, activity: domain.ActivityAny},
		{filter: `status = "all"`, activity: domain.ActivityAny},
	}
	for _, tc := range tests {
		got, err := Apply(tc.filter, domain.Options{})
		if err != nil {
			t.Fatalf("Apply(%q) error = %v", tc.filter, err)
		}
		if got.Activity != tc.activity {
			t.Fatalf("Apply(%q) activity = %q, want %q", tc.filter, got.Activity, tc.activity)
		}
	}
}

func TestApplyRejectsUnsupportedFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filter string
		want   string
	}{
		{filter: `status = "sleeping"`, want: "unsupported status"},
		{filter: `role = "staff"`, want: "unsupported role"},
		{filter: `email = "a@example.com"`, want: "parse filter"},
		{filter: `phase > 2`, want: "unsupported function"},
		{filter: `status = "active" OR phase = 2`, want: "unsupported function"},
		{filter: `phase = `, want: "parse filter"},
	}
	for _, tc := range tests {
		base := domain.Options{Activity: domain.ActivityAny}
		got, err := Apply(tc.filter, base)
		if err == nil {
			t.Fatalf("Apply(%q) error = nil, want %q", tc.filter, tc.want)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("Apply(%q) error = %v, want %q", tc.filter, err, tc.want)
		}
		if got.Activity != domain.ActivityAny {
			t.Fatalf("Apply(%q) modified options on error: %+v", tc.filter, got)
		}
	}
}
