package domain

import "errors"

var (
	// ErrNotFound is returned when the requested sample does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBadProtoVersion indicates an upload with an unsupported proto_version.
	ErrBadProtoVersion = errors.New("unsupported proto version")
)
