// Package store persists household members and reminders. Two backends
// implement the same interface: a JSON file store (the default) and a
// sqlite store. Both load at startup and write through on every mutation.
package store

import (
	"errors"

	"domovoy/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrLastUser is returned when deleting a user would empty the
	// household. There must always be at least one member.
	ErrLastUser = errors.New("store: cannot delete the last user")
)

// Store provides access to users and reminders.
type Store interface {
	Users() []models.User
	// UserByID never fails: a missing or deleted owner resolves to an
	// explicit "Unknown member" placeholder carrying the requested id.
	UserByID(id string) models.User
	CreateUser(u *models.User) error
	UpdateUser(u models.User) error
	DeleteUser(id string) error

	Reminders() []models.Reminder
	ReminderByID(id string) (models.Reminder, error)
	CreateReminder(r *models.Reminder) error
	UpdateReminder(r models.Reminder) error
	DeleteReminder(id string) error

	Close() error
}

// unknownMember is the placeholder returned for orphaned owner lookups.
// Reminders keep referencing deleted users; the degenerate case is decided
// here, once, instead of at every render site.
func unknownMember(id string) models.User {
	return models.User{
		ID:     id,
		Name:   "Unknown member",
		Avatar: "❔",
		Color:  "#9e9e9e",
	}
}

// SeedUsers returns the default household used when storage is absent or
// unreadable. The app must always reach a usable state.
func SeedUsers() []models.User {
	return []models.User{
		{ID: "default", Name: "Family", Avatar: "🏠", Color: "#4f9d69"},
	}
}
