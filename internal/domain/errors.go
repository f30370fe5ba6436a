package domain

import "errors"

var (
	// ErrInvalidRequest marks a request that is missing a required field or is malformed.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCourseNotFound is returned when no course file exists for an id.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvalidCourseID is returned for ids that cannot name a single file.
	ErrInvalidCourseID = errors.New("invalid course id")
	// ErrRunNotFound is returned when a chat run is unknown to the audit store.
	ErrRunNotFound = errors.New("run not found")
	// ErrUploadTooLarge is returned when an upload exceeds the configured ceiling.
	ErrUploadTooLarge = errors.New("upload too large")
)
