package freecivagent

import "errors"

var (
	// ErrJoinTimeout is returned by Join when the configured deadline
	// elapses before a join-reply packet is decoded.
	ErrJoinTimeout = errors.New("freecivagent: join timed out")

	// ErrJoinRejected is returned by Join when the server sends a
	// join-reply with you_can_join == false. The reply's message field is
	// included in the wrapping error text.
	ErrJoinRejected = errors.New("freecivagent: server rejected join")

	// ErrNotConnected is returned by operations that require an active
	// connection when none exists.
	ErrNotConnected = errors.New("freecivagent: not connected")

	// ErrAlreadyConnected is returned by Connect when called on an Agent
	// that already owns a live connection.
	ErrAlreadyConnected = errors.New("freecivagent: already connected")
)
