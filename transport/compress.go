package transport

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// zlibInflate decompresses an RFC 1950 (zlib-wrapped deflate) payload, the
// compression format the server uses for every compressed envelope
// (spec.md §6). The standard library is used deliberately here: none of
// the library stacks pulled in for this module (logrus, testify, uuid,
// yaml.v3) provide a zlib/deflate implementation, and compress/zlib is the
// format's reference decoder regardless.
func zlibInflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("opening zlib stream: %w: %v", ErrDecompressionFailed, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflating zlib stream: %w: %v", ErrDecompressionFailed, err)
	}
	return out, nil
}

// zlibDeflate compresses payload with RFC 1950 framing at the given zlib
// level. Only tests that synthesize compressed fixtures use this; the
// live client never sends compressed
// frames of its own (spec.md's codec is server-to-client only).
func zlibDeflate(payload []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("opening zlib writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return nil, fmt.Errorf("deflating payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing zlib writer: %w", err)
	}
	return buf.Bytes(), nil
}
