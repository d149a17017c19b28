package repositories

import "errors"

var (
	// ErrOptionNotFound indicates the requested key does not exist
	ErrOptionNotFound = errors.New("option not found")

	// ErrOptionExists indicates Create was called for a key that already exists
	ErrOptionExists = errors.New("option already exists")
)
