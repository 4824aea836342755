package models

import (
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "idlink/pkg/domain-errors"
)

type ObservationSuite struct {
	suite.Suite
}

func TestObservationSuite(t *testing.T) {
	suite.Run(t, new(ObservationSuite))
}

func (s *ObservationSuite) TestNewObservation() {
	s.Run("trims both fields", func() {
		obs, err := NewObservation(strPtr("  ada@example.com "), strPtr(" 5551234\t"))
		s.Require().NoError(err)
		s.Equal("ada@example.com", *obs.Email)
		s.Equal("5551234", *obs.PhoneNumber)
		s.True(obs.HasBoth())
	})

	s.Run("email only", func() {
		obs, err := NewObservation(strPtr("ada@example.com"), nil)
		s.Require().NoError(err)
		s.True(obs.HasEmail())
		s.False(obs.HasPhoneNumber())
		s.False(obs.HasBoth())
	})

	s.Run("phone only", func() {
		obs, err := NewObservation(nil, strPtr("5551234"))
		s.Require().NoError(err)
		s.False(obs.HasEmail())
		s.True(obs.HasPhoneNumber())
		s.False(obs.HasBoth())
	})

	s.Run("empty after trimming counts as absent", func() {
		obs, err := NewObservation(strPtr("   "), strPtr("5551234"))
		s.Require().NoError(err)
		s.Nil(obs.Email)
		s.Equal("5551234", *obs.PhoneNumber)
	})

	s.Run("both absent is rejected", func() {
		_, err := NewObservation(nil, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("both empty is rejected", func() {
		_, err := NewObservation(strPtr(""), strPtr("  "))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("input pointers are not mutated", func() {
		raw := " ada@example.com "
		_, err := NewObservation(&raw, nil)
		s.Require().NoError(err)
		s.Equal(" ada@example.com ", raw)
	})
}

func (s *ObservationSuite) TestIdentifyRequestObservation() {
	s.Run("valid email and phone pass through", func() {
		req := IdentifyRequest{Email: strPtr("ada@example.com"), PhoneNumber: strPtr("5551234")}
		obs, err := req.Observation()
		s.Require().NoError(err)
		s.Equal("ada@example.com", *obs.Email)
		s.Equal("5551234", *obs.PhoneNumber)
	})

	s.Run("malformed email is rejected", func() {
		req := IdentifyRequest{Email: strPtr("not-an-email")}
		_, err := req.Observation()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("oversized email is rejected", func() {
		long := make([]byte, maxEmailLength+1)
		for i := range long {
			long[i] = 'a'
		}
		req := IdentifyRequest{Email: strPtr(string(long))}
		_, err := req.Observation()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("oversized phone is rejected", func() {
		long := make([]byte, maxPhoneLength+1)
		for i := range long {
			long[i] = '1'
		}
		req := IdentifyRequest{PhoneNumber: strPtr(string(long))}
		_, err := req.Observation()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty request is invalid input", func() {
		_, err := IdentifyRequest{}.Observation()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
