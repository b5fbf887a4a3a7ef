package domain

import "errors"

var (
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrInvalidDeviceID    = errors.New("invalid device id")
	ErrPreferenceNotFound = errors.New("preference not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnidentified       = errors.New("could not identify device")
)
