package transport

import "errors"

var (
	// ErrShortRead is returned when the transport returns fewer bytes than
	// a frame header or body requires, including a clean EOF mid-frame.
	ErrShortRead = errors.New("transport: short read")

	// ErrMalformedFrame is returned when a compressed envelope leaves
	// trailing bytes after its last inner frame, nests an envelope inside
	// an envelope, or declares a negative body length.
	ErrMalformedFrame = errors.New("transport: malformed frame")

	// ErrDecompressionFailed is returned when zlib inflation of a
	// compressed envelope's payload fails.
	ErrDecompressionFailed = errors.New("transport: decompression failed")
)
