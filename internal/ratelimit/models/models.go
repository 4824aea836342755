package models

import (
	"net"
	"strings"
	"time"
)

// KeyPrefixIP namespaces per-IP buckets in the shared store.
const KeyPrefixIP = "rl:ip:"

// Result reports one rate-limit decision along with the header values the
// middleware exposes to clients.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds until the client should retry
}

// IPKey builds the bucket key for a client IP. The segment is sanitized so
// IPv6 colons cannot splice into adjacent key namespaces.
func IPKey(ip string) string {
	return KeyPrefixIP + SanitizeKeySegment(ip)
}

// SanitizeKeySegment escapes the key delimiter in identifier segments so a
// client-controlled value cannot collide with another bucket's key.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// AnonymizeIP reduces an IP to a coarse prefix for logging: the last IPv4
// octet is zeroed and IPv6 keeps only its /32. Unparseable input logs as
// "invalid".
func AnonymizeIP(ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return net.IPv4(v4[0], v4[1], v4[2], 0).String() + "/24"
	}
	masked := parsed.Mask(net.CIDRMask(32, 128))
	return masked.String() + "/32"
}
