package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is a single task belonging to a list. The ListID is a foreign
// reference, not ownership — items are stored and synced independently.
type Item struct {
	// ID is the opaque unique identifier. Immutable once assigned.
	ID string `json:"id"`

	// Title is the task's display title.
	Title string `json:"title"`

	// ListID references the owning list. That the list exists is the
	// caller layer's responsibility, not this package's.
	ListID string `json:"list_id"`

	// Completed is true when the task has been marked as done.
	Completed bool `json:"completed"`

	// CreatedAt is when the item was created (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// NewItem creates an Item with a fresh UUID and a UTC creation timestamp.
func NewItem(title, listID string) *Item {
	return &Item{
		ID:        uuid.NewString(),
		Title:     title,
		ListID:    listID,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the item's persistence invariants.
func (i *Item) Validate() error {
	if i.ID == "" {
		return &ValidationError{Entity: "item", Field: "id", Reason: "must not be empty"}
	}
	if isBlank(i.Title) {
		return &ValidationError{Entity: "item", Field: "title", Reason: "must not be blank", ID: i.ID}
	}
	if i.ListID == "" {
		return &ValidationError{Entity: "item", Field: "list_id", Reason: "must not be empty", ID: i.ID}
	}
	return nil
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
