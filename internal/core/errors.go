// Package core defines the fundamental types and errors for Murmur.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Storage errors
	ErrDatabaseNotFound = errors.New("database not found")
	ErrMigrationFailed  = errors.New("migration failed")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrUnauthorized = errors.New("invalid or missing API token")

	// Entry errors
	ErrEntryNotFound    = errors.New("entry not found")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidSentiment = errors.New("invalid sentiment")

	// Week and summary errors
	ErrInvalidWeek     = errors.New("invalid week identifier")
	ErrSummaryNotFound = errors.New("summary not found")
	ErrSummaryNotReady = errors.New("summary not yet available")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
