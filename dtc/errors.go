package dtc

import "github.com/juju/errors"

const (
	// ErrTranslation is returned when a field has no symbolic constant in
	// the firmware headers.
	ErrTranslation = errors.ConstError("no symbolic constant")

	// ErrInitLevel is returned for an init level other than app or system.
	ErrInitLevel = errors.ConstError("invalid init level")

	// ErrMissingArray is returned when a device lacks a satellite array its
	// descriptor cannot be built without.
	ErrMissingArray = errors.ConstError("missing satellite array")

	ErrPinConflict     = errors.ConstError("pin claimed by more than one device")
	ErrDependencyCycle = errors.ConstError("device dependency cycle")
)
