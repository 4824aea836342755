package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKeySegment(t *testing.T) {
	assert.Equal(t, "2001_db8__1", SanitizeKeySegment("2001:db8::1"))
	assert.Equal(t, "203.0.113.1", SanitizeKeySegment("203.0.113.1"))
}

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		ip       string
		expected string
	}{
		{name: "ipv4 zeroes last octet", ip: "203.0.113.77", expected: "203.0.113.0/24"},
		{name: "ipv4 with padding", ip: " 10.1.2.3 ", expected: "10.1.2.0/24"},
		{name: "ipv6 keeps 32-bit prefix", ip: "2001:db8:85a3::8a2e:370:7334", expected: "2001:db8::/32"},
		{name: "garbage", ip: "not-an-ip", expected: "invalid"},
		{name: "empty", ip: "", expected: "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.ip))
		})
	}
}
