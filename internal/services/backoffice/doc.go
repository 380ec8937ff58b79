// Package backoffice contains the internal service boundary for the staff
// backoffice user view.
//
// The service reads the canonical user list from the identity service,
// narrows it by activity, role and phase, and enriches it with learning-phase
// data and CRM contact data before returning one merged record per user.
package backoffice
