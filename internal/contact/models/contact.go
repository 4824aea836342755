package models

import "time"

// LinkPrecedence marks a contact row as the anchor of its identity group or
// as a later observation linked to that anchor.
type LinkPrecedence string

const (
	LinkPrecedencePrimary   LinkPrecedence = "primary"
	LinkPrecedenceSecondary LinkPrecedence = "secondary"
)

// Contact is a single recorded sighting of a person's contact details. Rows
// are append-only: after insertion the only permitted change is the one-way
// primary-to-secondary demotion of a group anchor during a merge.
type Contact struct {
	ID             int64
	Email          *string
	PhoneNumber    *string
	LinkedID       *int64
	LinkPrecedence LinkPrecedence
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// IsPrimary reports whether the row anchors its identity group.
func (c *Contact) IsPrimary() bool {
	return c.LinkPrecedence == LinkPrecedencePrimary
}

// PrimaryID returns the anchor ID of the row's group: the linked ID for
// secondaries, the row's own ID for primaries.
func (c *Contact) PrimaryID() int64 {
	if c.LinkPrecedence == LinkPrecedenceSecondary && c.LinkedID != nil {
		return *c.LinkedID
	}
	return c.ID
}

// OlderThan reports whether this row was recorded before other. Equal
// creation times tie-break on the lower row ID so the ordering stays total
// even when two rows land in the same instant.
func (c *Contact) OlderThan(other *Contact) bool {
	if c.CreatedAt.Equal(other.CreatedAt) {
		return c.ID < other.ID
	}
	return c.CreatedAt.Before(other.CreatedAt)
}

// Matches reports whether the row carries exactly the observation's values.
// Absent fields count: a row holding only an email does not match an
// observation carrying that email plus a phone number.
func (c *Contact) Matches(o Observation) bool {
	return OptionalEqual(c.Email, o.Email) && OptionalEqual(c.PhoneNumber, o.PhoneNumber)
}

// Clone returns a deep copy so callers can hold rows across lock boundaries
// without aliasing store-owned memory.
func (c *Contact) Clone() *Contact {
	dup := *c
	if c.Email != nil {
		v := *c.Email
		dup.Email = &v
	}
	if c.PhoneNumber != nil {
		v := *c.PhoneNumber
		dup.PhoneNumber = &v
	}
	if c.LinkedID != nil {
		v := *c.LinkedID
		dup.LinkedID = &v
	}
	if c.DeletedAt != nil {
		v := *c.DeletedAt
		dup.DeletedAt = &v
	}
	return &dup
}

// OptionalEqual compares two optional strings, counting two absent values as
// equal and an absent value as unequal to any present one.
func OptionalEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
