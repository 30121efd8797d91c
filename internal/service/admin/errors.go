package admin

import (
	"errors"
)

var (
	ErrVenueNotFound      = errors.New("venue not found")
	ErrVenueTypeNotFound  = errors.New("venue type not found")
	ErrTableNotFound      = errors.New("table not found")
	ErrTableConflict      = errors.New("table number already exists in this venue")
	ErrInvalidName        = errors.New("venue name is required")
	ErrInvalidCapacity    = errors.New("table capacity must be greater than zero")
	ErrInvalidTableNumber = errors.New("table number must be greater than zero")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidUserID      = errors.New("user id is required")
)
