package services

import "errors"

// Sentinel errors for explicit error handling
// These errors allow callers to distinguish between different failure modes
// using errors.Is() instead of string matching

var (
	// ErrWebhookNotFound indicates no webhook is stored under the slug
	ErrWebhookNotFound = errors.New("webhook not found")

	// ErrWebhookExists indicates Add was called with a slug that is already taken
	ErrWebhookExists = errors.New("webhook already exists")

	// ErrInvalidSlug indicates an empty slug or one not in Slugify form
	ErrInvalidSlug = errors.New("invalid webhook slug")

	// ErrInvalidURL indicates the webhook URL is not an absolute http(s) URL
	ErrInvalidURL = errors.New("invalid webhook url")

	// ErrInvalidBodyTemplate indicates a body template that is not a JSON object
	ErrInvalidBodyTemplate = errors.New("invalid body template")

	// ErrInvalidRetentionField indicates an unknown retain_last_execution_data entry
	ErrInvalidRetentionField = errors.New("invalid retention field")

	// ErrSecretUnreadable indicates a stored secret could not be decrypted
	ErrSecretUnreadable = errors.New("webhook secret cannot be decrypted")
)
