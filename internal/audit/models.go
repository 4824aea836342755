package audit

import "time"

// Action names the identity-graph change an event records.
type Action string

const (
	ActionContactCreated    Action = "contact_created"
	ActionIdentityExtended  Action = "identity_extended"
	ActionIdentityMerged    Action = "identity_merged"
	ActionIdentityDuplicate Action = "identity_duplicate"
	ActionRateLimitExceeded Action = "rate_limit_exceeded"
)

// Event is one recorded identity action. Keep it transport-agnostic so
// stores and sinks can fan out. Contact values never appear raw; only their
// keyed fingerprints do, so trails stay correlatable without holding PII.
type Event struct {
	ID               string    `json:"id"`
	Action           Action    `json:"action"`
	Timestamp        time.Time `json:"timestamp"`
	PrimaryContactID int64     `json:"primaryContactId,omitempty"`
	CreatedContactID int64     `json:"createdContactId,omitempty"`
	MergedPrimaryIDs []int64   `json:"mergedPrimaryIds,omitempty"`
	EmailFingerprint string    `json:"emailFingerprint,omitempty"`
	PhoneFingerprint string    `json:"phoneFingerprint,omitempty"`
	RequestID        string    `json:"requestId,omitempty"`
	ClientIP         string    `json:"clientIp,omitempty"`
	Device           string    `json:"device,omitempty"`
	Reason           string    `json:"reason,omitempty"`
}
