package transport

// HeaderMode selects how many bytes the packet-type field occupies
// (spec.md §4.5, §6). A connection starts in Negotiation mode and
// switches to Full mode once the join-reply packet has been decoded by its
// handler; the switch is one-way for the life of the connection.
type HeaderMode byte

const (
	// Negotiation is the starting mode: a 1-byte packet-type field.
	Negotiation HeaderMode = iota
	// Full is the post-join-reply mode: a 2-byte packet-type field.
	Full
)

func (m HeaderMode) String() string {
	if m == Full {
		return "full"
	}
	return "negotiation"
}

// Compression framing constants (spec.md §6).
const (
	// CompressionBorder is the length value at and above which a length
	// header signifies a compressed envelope rather than an uncompressed
	// frame length.
	CompressionBorder = 16385
	// JumboSentinel is the length value signalling a jumbo compressed
	// envelope whose true length follows as a big-endian u32.
	JumboSentinel = 65535
)

// PacketHandler processes one decoded packet. It receives the raw body so
// it may call into package wire with whatever schema it expects; the
// dispatcher itself does not pre-decode (spec.md §4.6 — either arrangement
// is acceptable, and leaving decoding to the handler keeps schema lookups
// colocated with the code that knows what to do with the result).
type PacketHandler func(packetType int, body []byte) error
