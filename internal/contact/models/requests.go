package models

import (
	"github.com/asaskevich/govalidator"

	dErrors "idlink/pkg/domain-errors"
)

const (
	maxEmailLength = 254
	maxPhoneLength = 64
)

// IdentifyRequest is the POST /identify payload. Both fields are optional
// JSON strings; a numeric phoneNumber is a decode error, not a value.
type IdentifyRequest struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
}

// Observation validates the request and converts it into a normalized
// Observation.
func (r IdentifyRequest) Observation() (Observation, error) {
	obs, err := NewObservation(r.Email, r.PhoneNumber)
	if err != nil {
		return Observation{}, err
	}
	if obs.Email != nil {
		if len(*obs.Email) > maxEmailLength {
			return Observation{}, dErrors.New(dErrors.CodeValidation, "email exceeds maximum length")
		}
		if !govalidator.IsEmail(*obs.Email) {
			return Observation{}, dErrors.New(dErrors.CodeValidation, "email must be a valid address")
		}
	}
	if obs.PhoneNumber != nil && len(*obs.PhoneNumber) > maxPhoneLength {
		return Observation{}, dErrors.New(dErrors.CodeValidation, "phoneNumber exceeds maximum length")
	}
	return obs, nil
}
