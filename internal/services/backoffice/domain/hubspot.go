package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const week = 7 * 24 * time.Hour

// HubspotDataForUsers fetches CRM contacts for the whole batch and merges
// each user's first exact email match. A failed fetch is recorded on every
// user and never returned.
func (s *Service) HubspotDataForUsers(ctx context.Context, users []*User) error {
	if s == nil {
		return ErrServiceNotConfigured
	}
	if s.crm == nil {
		s.applyHubspotContacts(users, nil, ErrCRMGatewayNotConfigured)
		return nil
	}
	contacts, err := s.crm.GetContactsByEmail(ctx, collectEmails(users))
	s.applyHubspotContacts(users, contacts, err)
	return nil
}

// HubspotDataForUser fetches and merges the CRM contact for one user. A
// failed fetch is recorded on the user and never returned.
func (s *Service) HubspotDataForUser(ctx context.Context, user *User) *User {
	if s == nil || user == nil {
		return user
	}
	if s.crm == nil {
		s.logger.Warn("load hubspot contact",
			zap.String("dependency", dependencyHubspot),
			zap.String("handle", user.Handle),
			zap.Error(ErrCRMGatewayNotConfigured),
		)
		user.appendError(hubspotErrorMessage(ErrCRMGatewayNotConfigured))
		return user
	}
	contact, err := s.crm.GetContactByEmail(ctx, user.Email)
	if err != nil {
		s.logger.Warn("load hubspot contact",
			zap.String("dependency", dependencyHubspot),
			zap.String("handle", user.Handle),
			zap.Error(err),
		)
		user.appendError(hubspotErrorMessage(err))
		return user
	}
	MergeHubspotContactIntoUser(user, &contact, s.clock())
	return user
}

// applyHubspotContacts merges a batch fetch result into users.
func (s *Service) applyHubspotContacts(users []*User, contacts []Contact, err error) {
	if err != nil {
		s.logger.Warn("load hubspot contacts",
			zap.String("dependency", dependencyHubspot),
			zap.Int("users", len(users)),
			zap.Error(err),
		)
		message := hubspotErrorMessage(err)
		for _, user := range users {
			if user == nil {
				continue
			}
			user.appendError(message)
		}
		return
	}

	now := s.clock()
	for _, user := range users {
		if user == nil {
			continue
		}
		user.ensureErrors()
		contact := findContact(contacts, user.Email)
		if contact == nil {
			continue
		}
		MergeHubspotContactIntoUser(user, contact, now)
	}
}

// findContact returns the first contact whose email equals email exactly.
func findContact(contacts []Contact, email string) *Contact {
	for i := range contacts {
		if contacts[i].Email == email {
			return &contacts[i]
		}
	}
	return nil
}

func hubspotErrorMessage(err error) string {
	return fmt.Sprintf("Erorr loading hubspot contact: %s", err.Error())
}

func collectEmails(users []*User) []string {
	emails := make([]string, 0, len(users))
	for _, user := range users {
		if user == nil {
			continue
		}
		emails = append(emails, user.Email)
	}
	return emails
}

// MergeHubspotContactIntoUser copies contact fields onto user and resolves
// the phase. A valid CRM phase wins over the prior phase. Merging the same
// contact twice yields the same user.
func MergeHubspotContactIntoUser(user *User, contact *Contact, now time.Time) *User {
	if user == nil {
		return nil
	}
	user.ensureErrors()
	if contact == nil {
		return user
	}

	prior := user.Phase
	if user.HubspotContact != nil {
		// Phase already holds a resolved value; the source phase is the snapshot.
		prior = user.EchoPhase
	}

	user.Vid = nonZeroInt64(contact.Vid)
	user.HubspotURL = nonEmpty(contact.URL)
	user.Nickname = nonEmpty(contact.Nickname)

	user.EchoPhase = clonePhase(prior)
	user.HubspotPhase = phasePointer(contact.Phase)
	user.HubspotPhaseWeek = nonZeroInt(contact.PhaseWeek)

	user.EnrolleeStartDate = nonEmpty(contact.EnrolleeStartDate)
	for _, phase := range Phases {
		*user.phaseStartDateField(phase) = nonEmpty(contact.DatePhase(phase))
	}

	switch {
	case validPhase(user.HubspotPhase):
		user.Phase = clonePhase(user.HubspotPhase)
	case validPhase(user.EchoPhase):
		user.Phase = clonePhase(user.EchoPhase)
	default:
		user.Phase = nil
	}

	user.PhaseStartDate = nil
	if user.Phase != nil {
		user.PhaseStartDate = cloneString(user.PhaseStartDateFor(*user.Phase))
	}

	user.PhaseWeek = nil
	switch {
	case user.HubspotPhaseWeek != nil:
		phaseWeek := *user.HubspotPhaseWeek
		user.PhaseWeek = &phaseWeek
	case user.PhaseStartDate != nil:
		// Less than a full week elapsed counts as unknown.
		if start, ok := ParsePhaseDate(*user.PhaseStartDate); ok {
			if weeks := WeeksBetween(start, now); weeks != 0 {
				user.PhaseWeek = &weeks
			}
		}
	}

	user.LearningFacilitator = nonEmpty(contact.LearningFacilitator)

	user.PersonalDevelopmentDaysRemaining = contact.PDDaysRemaining
	user.PersonalDevelopmentDaysUsed = contact.PDDaysUsed
	user.PersonalDaysRemaining = contact.PersonalDaysRemaining
	user.PersonalDaysUsed = contact.PersonalDays

	user.HubspotContact = contact
	return user
}

// ParsePhaseDate parses a CRM date as YYYY-MM-DD, RFC 3339 or epoch
// milliseconds. Dates without a zone are UTC.
func ParsePhaseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if millis, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(millis).UTC(), true
	}
	return time.Time{}, false
}

// WeeksBetween returns the whole weeks from start to now, truncated toward
// zero.
func WeeksBetween(start, now time.Time) int {
	return int(now.Sub(start) / week)
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func nonZeroInt(value *int) *int {
	if value == nil || *value == 0 {
		return nil
	}
	copied := *value
	return &copied
}

func nonZeroInt64(value int64) *int64 {
	if value == 0 {
		return nil
	}
	return &value
}
