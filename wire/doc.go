// Package wire implements the FreeCiv wire-protocol field codec: the
// primitive scalar decoders, the packet schema registry, the delta cache,
// and the delta/array-diff decoder that together turn a packet body into a
// typed record.
//
// The package knows nothing about sockets, framing, or compression; it
// operates purely on byte slices handed to it by package transport.
package wire
