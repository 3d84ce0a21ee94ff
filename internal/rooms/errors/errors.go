package errors

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")

	ErrInvalidID = errors.New("invalid room ID format")

	ErrNoRoomAvailable = errors.New("no room available for the requested dates and features")
)
