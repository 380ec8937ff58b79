package domain

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func phaseOf(value int) *Phase {
	phase := Phase(value)
	return &phase
}

func fullContact() *Contact {
	return &Contact{
		Vid:                   42,
		URL:                   "https://app.hubspot.com/contacts/42",
		Email:                 "ada@example.com",
		Nickname:              "Ada",
		Phase:                 Int(3),
		PhaseWeek:             Int(4),
		EnrolleeStartDate:     "2023-09-01",
		DatePhase1:            "2023-09-01",
		DatePhase2:            "2023-11-01",
		DatePhase3:            "2024-01-01",
		DatePhase4:            "2024-03-01",
		DatePhase5:            "2024-05-01",
		LearningFacilitator:   "grace",
		PDDaysRemaining:       3,
		PDDaysUsed:            2,
		PersonalDaysRemaining: 5,
		PersonalDays:          1,
	}
}

func TestMergeHubspotContactScenario(t *testing.T) {
	t.Parallel()

	user := &User{Email: "a@x.com", Phase: phaseOf(2)}
	contact := &Contact{Email: "a@x.com", DatePhase2: "2024-01-01"}

	MergeHubspotContactIntoUser(user, contact, fixedClock())

	if user.Phase == nil || *user.Phase != 2 {
		t.Fatalf("phase = %v, want 2", user.Phase)
	}
	if user.PhaseStartDate == nil || *user.PhaseStartDate != "2024-01-01" {
		t.Fatalf("phase start date = %v, want 2024-01-01", user.PhaseStartDate)
	}
	if user.HubspotPhase != nil {
		t.Fatalf("hubspot phase = %v, want nil", *user.HubspotPhase)
	}
	if user.EchoPhase == nil || *user.EchoPhase != 2 {
		t.Fatalf("echo phase = %v, want 2", user.EchoPhase)
	}
}

func TestMergeHubspotContactPhasePrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prior   *Phase
		contact *int
		want    *Phase
	}{
		{name: "crm wins", prior: phaseOf(1), contact: Int(4), want: phaseOf(4)},
		{name: "invalid crm falls back", prior: phaseOf(1), contact: Int(8), want: phaseOf(1)},
		{name: "absent crm falls back", prior: phaseOf(5), contact: nil, want: phaseOf(5)},
		{name: "zero crm falls back", prior: phaseOf(5), contact: Int(0), want: phaseOf(5)},
		{name: "invalid prior", prior: phaseOf(7), contact: nil, want: nil},
		{name: "neither", prior: nil, contact: nil, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			user := &User{Phase: tc.prior}
			MergeHubspotContactIntoUser(user, &Contact{Phase: tc.contact}, fixedClock())
			if !reflect.DeepEqual(user.Phase, tc.want) {
				t.Fatalf("phase = %v, want %v", user.Phase, tc.want)
			}
		})
	}
}

func TestMergeHubspotContactPhaseWeek(t *testing.T) {
	t.Parallel()

	now := fixedClock()
	tests := []struct {
		name    string
		contact *Contact
		want    *int
	}{
		{
			name:    "crm phase week wins",
			contact: &Contact{Phase: Int(1), PhaseWeek: Int(3), DatePhase1: "2020-01-01"},
			want:    Int(3),
		},
		{
			name:    "fourteen days ago",
			contact: &Contact{Phase: Int(1), DatePhase1: now.AddDate(0, 0, -14).Format(time.DateOnly)},
			want:    Int(2),
		},
		{
			name:    "epoch millis",
			contact: &Contact{Phase: Int(2), DatePhase2: "1704067200000"},
			want:    Int(2),
		},
		{
			name:    "started three days ago",
			contact: &Contact{Phase: Int(2), DatePhase2: now.AddDate(0, 0, -3).Format(time.DateOnly)},
			want:    nil,
		},
		{
			name:    "no start date",
			contact: &Contact{Phase: Int(1)},
			want:    nil,
		},
		{
			name:    "unparseable date",
			contact: &Contact{Phase: Int(1), DatePhase1: "soon"},
			want:    nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			user := MergeHubspotContactIntoUser(&User{}, tc.contact, now)
			if !reflect.DeepEqual(user.PhaseWeek, tc.want) {
				t.Fatalf("phase week = %v, want %v", user.PhaseWeek, tc.want)
			}
		})
	}
}

func TestMergeHubspotContactCopiesFields(t *testing.T) {
	t.Parallel()

	contact := fullContact()
	user := MergeHubspotContactIntoUser(&User{Email: "ada@example.com"}, contact, fixedClock())

	if user.Vid == nil || *user.Vid != 42 {
		t.Fatalf("vid = %v, want 42", user.Vid)
	}
	if user.HubspotURL == nil || *user.HubspotURL != contact.URL {
		t.Fatalf("hubspot url = %v, want %q", user.HubspotURL, contact.URL)
	}
	for _, phase := range Phases {
		got := user.PhaseStartDateFor(phase)
		if got == nil || *got != contact.DatePhase(phase) {
			t.Fatalf("phase %d start date = %v, want %q", phase, got, contact.DatePhase(phase))
		}
	}
	if user.PhaseStartDate == nil || *user.PhaseStartDate != "2024-01-01" {
		t.Fatalf("phase start date = %v, want 2024-01-01", user.PhaseStartDate)
	}
	if user.LearningFacilitator == nil || *user.LearningFacilitator != "grace" {
		t.Fatalf("learning facilitator = %v, want grace", user.LearningFacilitator)
	}
	if user.PersonalDevelopmentDaysRemaining != 3 || user.PersonalDevelopmentDaysUsed != 2 {
		t.Fatalf("pd days = %d/%d, want 3/2", user.PersonalDevelopmentDaysRemaining, user.PersonalDevelopmentDaysUsed)
	}
	if user.PersonalDaysRemaining != 5 || user.PersonalDaysUsed != 1 {
		t.Fatalf("personal days = %d/%d, want 5/1", user.PersonalDaysRemaining, user.PersonalDaysUsed)
	}
	if user.HubspotContact != contact {
		t.Fatal("expected raw contact back-reference")
	}
	if user.Errors == nil {
		t.Fatal("expected errors to be initialised")
	}
}

func TestMergeHubspotContactEmptyContactResetsFields(t *testing.T) {
	t.Parallel()

	user := MergeHubspotContactIntoUser(&User{}, fullContact(), fixedClock())
	MergeHubspotContactIntoUser(user, &Contact{}, fixedClock())

	if user.Vid != nil || user.Nickname != nil || user.Phase3StartDate != nil {
		t.Fatalf("expected identity fields reset, got vid=%v nickname=%v", user.Vid, user.Nickname)
	}
	if user.PersonalDaysRemaining != 0 {
		t.Fatalf("personal days remaining = %d, want 0", user.PersonalDaysRemaining)
	}
}

func TestMergeHubspotContactIsIdempotent(t *testing.T) {
	t.Parallel()

	now := fixedClock()
	contact := fullContact()
	contact.PhaseWeek = nil
	user := &User{ID: "u1", Email: "ada@example.com", Phase: phaseOf(2)}

	MergeHubspotContactIntoUser(user, contact, now)
	first, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	MergeHubspotContactIntoUser(user, contact, now)
	second, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("re-merge changed user:\nfirst  %s\nsecond %s", first, second)
	}
	if user.EchoPhase == nil || *user.EchoPhase != 2 {
		t.Fatalf("echo phase = %v, want 2", user.EchoPhase)
	}
}

func TestMergeHubspotContactNilInputs(t *testing.T) {
	t.Parallel()

	if got := MergeHubspotContactIntoUser(nil, fullContact(), fixedClock()); got != nil {
		t.Fatalf("merge nil user = %v, want nil", got)
	}
	user := MergeHubspotContactIntoUser(&User{Phase: phaseOf(1)}, nil, fixedClock())
	if user.Phase == nil || *user.Phase != 1 {
		t.Fatalf("phase = %v, want 1", user.Phase)
	}
	if user.Errors == nil {
		t.Fatal("expected errors to be initialised")
	}
}

func TestHubspotDataForUsersRecordsBatchFailure(t *testing.T) {
	t.Parallel()

	users := []*User{
		{Email: "a@example.com", Errors: []string{"earlier"}},
		{Email: "b@example.com"},
	}
	svc := NewService(nil, nil, &fakeCRM{batchErr: errors.New("timeout")}, Config{})
	if err := svc.HubspotDataForUsers(context.Background(), users); err != nil {
		t.Fatalf("HubspotDataForUsers() error = %v", err)
	}
	if got, want := users[0].Errors, []string{"earlier", "Erorr loading hubspot contact: timeout"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("errors = %v, want %v", got, want)
	}
	if got := len(users[1].Errors); got != 1 {
		t.Fatalf("len(errors) = %d, want 1", got)
	}
}

func TestHubspotDataForUsersWithoutCRMRecordsErrors(t *testing.T) {
	t.Parallel()

	users := []*User{{Handle: "ada", Email: "ada@example.com"}, nil}
	svc := NewService(nil, nil, nil, Config{})
	if err := svc.HubspotDataForUsers(context.Background(), users); err != nil {
		t.Fatalf("HubspotDataForUsers() error = %v", err)
	}
	want := []string{"Erorr loading hubspot contact: crm gateway is not configured"}
	if !reflect.DeepEqual(users[0].Errors, want) {
		t.Fatalf("errors = %v, want %v", users[0].Errors, want)
	}
}

func TestParsePhaseDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, value := range []string{"2024-01-01", "2024-01-01T00:00:00Z", "1704067200000", " 2024-01-01 "} {
		got, ok := ParsePhaseDate(value)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParsePhaseDate(%q) = %v, %v, want %v", value, got, ok, want)
		}
	}
	if _, ok := ParsePhaseDate(""); ok {
		t.Fatal("expected empty date to fail")
	}
}

func TestWeeksBetweenTruncates(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if got := WeeksBetween(start, start.AddDate(0, 0, 13)); got != 1 {
		t.Fatalf("WeeksBetween(13 days) = %d, want 1", got)
	}
	if got := WeeksBetween(start, start.AddDate(0, 0, 14)); got != 2 {
		t.Fatalf("WeeksBetween(14 days) = %d, want 2", got)
	}
	if got := WeeksBetween(start, start.AddDate(0, 0, -8)); got != -1 {
		t.Fatalf("WeeksBetween(-8 days) = %d, want -1", got)
	}
}
