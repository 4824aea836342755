package models

// ConsolidatedContact is the merged view of one identity group: the anchor's
// ID, every distinct email and phone number seen across the group, and the
// IDs of all linked rows. Slices are never nil so the view always encodes as
// JSON arrays, and the anchor's own values sort first within each slice.
type ConsolidatedContact struct {
	PrimaryContactID    int64    `json:"primaryContactId"`
	Emails              []string `json:"emails"`
	PhoneNumbers        []string `json:"phoneNumbers"`
	SecondaryContactIDs []int64  `json:"secondaryContactIds"`
}
