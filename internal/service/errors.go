package service

import "errors"

var (
	// ErrValidation: a required field is missing or malformed; the ping is
	// rejected with no partial state change.
	ErrValidation = errors.New("invalid payload")
	// ErrDeviceUnassigned: the device is known but no vehicle carries it.
	// Rejected loudly so operators can fix provisioning; never guess a
	// vehicle.
	ErrDeviceUnassigned = errors.New("device not assigned to a vehicle")
)
