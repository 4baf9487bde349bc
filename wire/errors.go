package wire

import "errors"

var (
	// ErrShortRead is returned when fewer bytes remain in the buffer than a
	// primitive decode requires.
	ErrShortRead = errors.New("wire: short read")

	// ErrMalformedString is returned when a STRING field has no 0x00
	// terminator before the end of the buffer.
	ErrMalformedString = errors.New("wire: string missing null terminator")

	// ErrArrayIndexOutOfRange is returned when an array-diff index exceeds
	// the field's declared capacity.
	ErrArrayIndexOutOfRange = errors.New("wire: array-diff index out of range")

	// ErrNotRegistered is returned by the schema registry when a packet
	// type has no schema.
	ErrNotRegistered = errors.New("wire: packet type not registered")

	// ErrDuplicateSchema is returned by RegisterSchema when a packet type
	// is registered a second time.
	ErrDuplicateSchema = errors.New("wire: packet type already registered")

	// ErrCapabilityGated names a non-goal: capability-gated field presence
	// (spec.md §6, §9 Open Questions). There is no field on FieldSchema to
	// gate a capability on, so no schema can express one, and no function
	// in this package returns this error.
	ErrCapabilityGated = errors.New("wire: capability-gated fields are not supported")
)
