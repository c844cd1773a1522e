// Package model defines the shared entities used across the persistence
// engine, the storage adapters, and the HTTP API.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListType is the closed set of category tags a list can carry.
type ListType string

const (
	// TypeCustom is the default, uncategorised list type.
	TypeCustom ListType = "CUSTOM"
	// TypeShopping marks shopping lists.
	TypeShopping ListType = "SHOPPING"
	// TypeWork marks work/project lists.
	TypeWork ListType = "WORK"
	// TypeTravel marks travel preparation lists.
	TypeTravel ListType = "TRAVEL"
	// TypeHabit marks recurring habit trackers.
	TypeHabit ListType = "HABIT"
)

// Valid reports whether t is one of the known list types.
func (t ListType) Valid() bool {
	switch t {
	case TypeCustom, TypeShopping, TypeWork, TypeTravel, TypeHabit:
		return true
	}
	return false
}

// String returns the raw tag value.
func (t ListType) String() string { return string(t) }

// List is a user-visible collection of items.
type List struct {
	// ID is the opaque, globally unique identifier. Immutable once assigned.
	ID string `json:"id"`

	// Name is the display name. Must not be blank for the list to be persisted.
	Name string `json:"name"`

	// Type is the list's category tag.
	Type ListType `json:"type"`

	// Description is optional free-form text.
	Description string `json:"description,omitempty"`

	// Items is the ordered collection of items belonging to this list.
	// Items reference the list by ID; the slice here is a convenience for
	// read composition, not the source of truth.
	Items []Item `json:"items,omitempty"`

	// CreatedAt is when the list was first created (UTC).
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the list was last modified (UTC). Never precedes
	// CreatedAt.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewList creates a List with a fresh UUID and UTC timestamps.
func NewList(name string, t ListType) *List {
	now := time.Now().UTC()
	return &List{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      t,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt to now.
func (l *List) Touch() {
	l.UpdatedAt = time.Now().UTC()
}

// Validate checks the list's persistence invariants. It returns a
// *ValidationError describing the first violation, or nil.
func (l *List) Validate() error {
	if l.ID == "" {
		return &ValidationError{Entity: "list", Field: "id", Reason: "must not be empty"}
	}
	if isBlank(l.Name) {
		return &ValidationError{Entity: "list", Field: "name", Reason: "must not be blank", ID: l.ID}
	}
	if !l.Type.Valid() {
		return &ValidationError{Entity: "list", Field: "type", Reason: fmt.Sprintf("unknown type %q", l.Type), ID: l.ID}
	}
	if !l.CreatedAt.IsZero() && !l.UpdatedAt.IsZero() && l.UpdatedAt.Before(l.CreatedAt) {
		return &ValidationError{Entity: "list", Field: "updated_at", Reason: "precedes created_at", ID: l.ID}
	}
	return nil
}
