package access

import "errors"

var (
	ErrOverrideNotFound = errors.New("plugin access override not found")
	ErrEmptyBatch       = errors.New("override batch is empty")
)
