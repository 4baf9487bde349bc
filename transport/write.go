package transport

import (
	"encoding/binary"
	"fmt"
)

// EncodeFrame serializes an uncompressed frame in the given header mode:
// length field + packet-type field (1 or 2 bytes) + body. The client only
// ever has one outbound use for this — the join-request packet, always
// sent under Negotiation mode — so no compressed-envelope writer exists.
func EncodeFrame(mode HeaderMode, packetType int, body []byte) ([]byte, error) {
	headerSize := 3
	if mode == Full {
		headerSize = 4
	}
	length := headerSize + len(body)
	if length >= CompressionBorder {
		return nil, fmt.Errorf("frame length %d exceeds uncompressed frame limit %d", length, CompressionBorder-1)
	}

	out := make([]byte, 2, length)
	binary.BigEndian.PutUint16(out, uint16(length))

	if mode == Full {
		if packetType > 0xFFFF {
			return nil, fmt.Errorf("packet type %d does not fit in a 2-byte type field", packetType)
		}
		typeBytes := make([]byte, 2)
		binary.BigEndian.PutUint16(typeBytes, uint16(packetType))
		out = append(out, typeBytes...)
	} else {
		if packetType > 0xFF {
			return nil, fmt.Errorf("packet type %d does not fit in a 1-byte type field", packetType)
		}
		out = append(out, byte(packetType))
	}

	out = append(out, body...)
	return out, nil
}
