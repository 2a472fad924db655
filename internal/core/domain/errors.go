package domain

import "errors"

// ErrNotFound indicates an unknown catalog identifier or missing directory.
var ErrNotFound = errors.New("domain: not found")

// ErrConflict indicates a uniqueness violation outside the upsert path.
var ErrConflict = errors.New("domain: conflict")
