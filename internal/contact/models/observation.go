package models

import (
	"unicode/utf8"

	dErrors "idlink/pkg/domain-errors"
	pkgstrings "idlink/pkg/platform/strings"
)

// Observation is one incoming sighting of a person: an email, a phone
// number, or both. Fields are normalized; absent and present-but-different
// are distinct states throughout the linking rules.
type Observation struct {
	Email       *string
	PhoneNumber *string
}

// NewObservation builds a normalized Observation from raw optional fields.
// Values are trimmed and fields that are empty after trimming count as
// absent. An observation with neither field is rejected.
func NewObservation(email, phoneNumber *string) (Observation, error) {
	obs := Observation{
		Email:       pkgstrings.NormalizePtr(email),
		PhoneNumber: pkgstrings.NormalizePtr(phoneNumber),
	}
	if obs.Email == nil && obs.PhoneNumber == nil {
		return Observation{}, dErrors.New(dErrors.CodeInvalidInput, "at least one of email or phoneNumber is required")
	}
	if obs.Email != nil && !utf8.ValidString(*obs.Email) {
		return Observation{}, dErrors.New(dErrors.CodeInvalidInput, "email must be valid UTF-8")
	}
	if obs.PhoneNumber != nil && !utf8.ValidString(*obs.PhoneNumber) {
		return Observation{}, dErrors.New(dErrors.CodeInvalidInput, "phoneNumber must be valid UTF-8")
	}
	return obs, nil
}

// HasEmail reports whether the observation carries an email.
func (o Observation) HasEmail() bool { return o.Email != nil }

// HasPhoneNumber reports whether the observation carries a phone number.
func (o Observation) HasPhoneNumber() bool { return o.PhoneNumber != nil }

// HasBoth reports whether the observation carries both contact fields. Only
// such observations can bridge two previously separate identity groups.
func (o Observation) HasBoth() bool { return o.Email != nil && o.PhoneNumber != nil }
