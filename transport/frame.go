package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FrameReader is the frame reader (C5): it turns a byte stream into a
// sequence of (packet_type, body) Packets, transparently unwrapping
// compressed envelopes and tracking the negotiation/full header-mode
// switch.
//
// A FrameReader is not safe for concurrent use; spec.md §5 assumes a single
// task owns the transport and drives ReadPacket in a loop.
type FrameReader struct {
	r          io.Reader
	headerMode HeaderMode
	pending    []Packet

	// Validate, when true, makes ReadPacket assert that the number of
	// bytes it consumed for a frame equals that frame's length header
	// (spec.md §4.5 "Byte-exactness"). It panics on violation because a
	// violation means this package's own framing logic is wrong, not that
	// the peer sent bad data — that case is ErrMalformedFrame.
	Validate bool

	// OnRawFrame, when set, is called with the complete raw bytes of every
	// frame this reader yields (header included), in yield order. Package
	// capture uses this hook to implement capture mode (spec.md §6)
	// without FrameReader needing to know about files or sessions.
	OnRawFrame func(raw []byte)
}

// NewFrameReader returns a FrameReader over r, starting in Negotiation
// header mode as spec.md §3 requires for a freshly connected state.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r, headerMode: Negotiation}
}

// HeaderMode returns the reader's current header mode.
func (fr *FrameReader) HeaderMode() HeaderMode { return fr.headerMode }

// SetHeaderMode switches the reader to mode. The connection driver's
// join-reply handler calls this once it has decoded the join-reply packet,
// whether or not the join was accepted (spec.md §4.5 "Header-mode
// switch"); the switch
// applies to every frame read afterward, including inner frames of any
// later compression envelope.
func (fr *FrameReader) SetHeaderMode(mode HeaderMode) { fr.headerMode = mode }

// ReadPacket returns the next packet in stream order, draining any inner
// frames buffered from a previously read compression envelope before
// touching the transport again (spec.md §5 "Ordering guarantees").
func (fr *FrameReader) ReadPacket() (Packet, error) {
	if len(fr.pending) > 0 {
		p := fr.pending[0]
		fr.pending = fr.pending[1:]
		return p, nil
	}
	return fr.readOuterFrame()
}

// readOuterFrame reads one frame directly from the transport: the 2-byte
// length header followed by whichever of the three interpretations
// spec.md §4.5's table selects.
func (fr *FrameReader) readOuterFrame() (Packet, error) {
	lengthBytes, err := readExact(fr.r, 2)
	if err != nil {
		return Packet{}, err
	}
	length := binary.BigEndian.Uint16(lengthBytes)

	switch {
	case length < CompressionBorder:
		return fr.readUncompressed(lengthBytes, int(length))
	case length < JumboSentinel:
		compressedLen := int(length) - CompressionBorder
		return fr.readCompressedEnvelope(compressedLen)
	default: // length == JumboSentinel
		actualLenBytes, err := readExact(fr.r, 4)
		if err != nil {
			return Packet{}, err
		}
		actualLen := binary.BigEndian.Uint32(actualLenBytes)
		return fr.readCompressedEnvelope(int(actualLen))
	}
}

// readUncompressed reads the remainder of an uncompressed frame: the
// packet-type field (width set by the current header mode) followed by the
// body. lengthBytes is the already-consumed 2-byte length header, passed
// through so raw-frame capture sees the complete frame.
func (fr *FrameReader) readUncompressed(lengthBytes []byte, length int) (Packet, error) {
	typeBytes, packetType, headerSize, err := fr.readPacketType()
	if err != nil {
		return Packet{}, err
	}

	bodyLen := length - headerSize
	if bodyLen < 0 {
		return Packet{}, fmt.Errorf("frame length %d shorter than header size %d: %w", length, headerSize, ErrMalformedFrame)
	}

	body, err := readExact(fr.r, bodyLen)
	if err != nil {
		return Packet{}, err
	}

	if fr.Validate {
		consumed := len(lengthBytes) + len(typeBytes) + len(body)
		if consumed != length {
			panic(fmt.Sprintf("transport: byte-exactness violated: length=%d consumed=%d", length, consumed))
		}
	}
	if fr.OnRawFrame != nil {
		raw := make([]byte, 0, len(lengthBytes)+len(typeBytes)+len(body))
		raw = append(raw, lengthBytes...)
		raw = append(raw, typeBytes...)
		raw = append(raw, body...)
		fr.OnRawFrame(raw)
	}

	return Packet{PacketType: packetType, Body: body}, nil
}

// readPacketType reads the packet-type field for the reader's current
// header mode and returns its raw bytes, decoded value, and the total
// header size (length field + type field) so far.
func (fr *FrameReader) readPacketType() (raw []byte, packetType int, headerSize int, err error) {
	if fr.headerMode == Negotiation {
		typeBytes, err := readExact(fr.r, 1)
		if err != nil {
			return nil, 0, 0, err
		}
		return typeBytes, int(typeBytes[0]), 3, nil
	}
	typeBytes, err := readExact(fr.r, 2)
	if err != nil {
		return nil, 0, 0, err
	}
	return typeBytes, int(binary.BigEndian.Uint16(typeBytes)), 4, nil
}

// readCompressedEnvelope reads compressedLen bytes of zlib-deflated data,
// inflates it, parses the result as a concatenation of inner uncompressed
// frames under the reader's current header mode, buffers all but the
// first, and returns the first.
func (fr *FrameReader) readCompressedEnvelope(compressedLen int) (Packet, error) {
	compressed, err := readExact(fr.r, compressedLen)
	if err != nil {
		return Packet{}, err
	}

	decompressed, err := zlibInflate(compressed)
	if err != nil {
		return Packet{}, err
	}

	frames, raws, err := parseInnerFrames(decompressed, fr.headerMode)
	if err != nil {
		return Packet{}, err
	}

	if fr.OnRawFrame != nil {
		for _, raw := range raws {
			fr.OnRawFrame(raw)
		}
	}

	if len(frames) == 0 {
		// An envelope that decompresses to zero bytes carries no frames;
		// fall through to the next frame on the wire rather than treat an
		// empty envelope as an error.
		return fr.readOuterFrame()
	}

	fr.pending = frames[1:]
	return frames[0], nil
}

// parseInnerFrames parses buf as a back-to-back concatenation of complete
// uncompressed frames (spec.md §4.5 step 2): no trailing bytes permitted,
// and no inner frame may itself be a compression envelope.
func parseInnerFrames(buf []byte, mode HeaderMode) (frames []Packet, raws [][]byte, err error) {
	offset := 0
	for offset < len(buf) {
		if offset+2 > len(buf) {
			return nil, nil, fmt.Errorf("inner frame length header truncated: %w", ErrMalformedFrame)
		}
		length := binary.BigEndian.Uint16(buf[offset : offset+2])
		if length >= CompressionBorder {
			return nil, nil, fmt.Errorf("inner frame declares a nested compression envelope: %w", ErrMalformedFrame)
		}

		headerSize := 3
		typeStart := offset + 2
		var packetType int
		if mode == Negotiation {
			if typeStart+1 > len(buf) {
				return nil, nil, fmt.Errorf("inner frame type field truncated: %w", ErrMalformedFrame)
			}
			packetType = int(buf[typeStart])
		} else {
			headerSize = 4
			if typeStart+2 > len(buf) {
				return nil, nil, fmt.Errorf("inner frame type field truncated: %w", ErrMalformedFrame)
			}
			packetType = int(binary.BigEndian.Uint16(buf[typeStart : typeStart+2]))
		}

		bodyLen := int(length) - headerSize
		bodyStart := offset + headerSize
		if bodyLen < 0 || bodyStart+bodyLen > len(buf) {
			return nil, nil, fmt.Errorf("inner frame body overruns envelope: %w", ErrMalformedFrame)
		}

		body := make([]byte, bodyLen)
		copy(body, buf[bodyStart:bodyStart+bodyLen])
		frames = append(frames, Packet{PacketType: packetType, Body: body})
		raws = append(raws, append([]byte(nil), buf[offset:bodyStart+bodyLen]...))

		offset = bodyStart + bodyLen
	}
	return frames, raws, nil
}

// readExact reads exactly n bytes from r, wrapping a short transport read
// (including a clean EOF mid-frame) as ErrShortRead.
func readExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading %d bytes: %w: %v", n, ErrShortRead, err)
	}
	return buf, nil
}
