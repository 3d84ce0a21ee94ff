package errors

import "errors"

var (
	ErrServiceNotFound = errors.New("auxiliary service not found")

	ErrInvalidID = errors.New("invalid auxiliary service ID format")

	ErrNoActiveServices = errors.New("none of the requested auxiliary services are active")
)
