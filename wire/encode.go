package wire

import (
	"bytes"
	"fmt"
)

// EncodeNonDelta serializes record as a non-delta packet body: fields in
// declaration order, arrays dense (exactly Capacity elements). It is the
// inverse of DecodeNonDelta and exists for two reasons: the round-trip
// property in spec.md §8 is stated in terms of it, and the connection
// driver's join handshake has no other way to put a PACKET_SERVER_JOIN_REQ
// on the wire.
func EncodeNonDelta(schema *PacketSchema, record *Record) ([]byte, error) {
	var buf bytes.Buffer
	for _, field := range schema.Fields {
		value, ok := record.Get(field.Name)
		if !ok {
			return nil, fmt.Errorf("packet %d (%s): record missing field %q", schema.PacketType, schema.Name, field.Name)
		}
		if err := encodeField(&buf, field, value); err != nil {
			return nil, fmt.Errorf("packet %d (%s) field %q: %w", schema.PacketType, schema.Name, field.Name, err)
		}
	}
	return buf.Bytes(), nil
}

// EncodeDelta serializes record as a delta packet body against cache,
// mirroring DecodeDelta: a field is only written to the payload if its
// value differs from the resolved baseline (the cached record, or per-kind
// defaults when the cache has no entry for the key), with boolean header folding and array-diff applied exactly as the decoder
// expects to find them. cache is not mutated; callers that want the cache
// to reflect the encoded record must Put it themselves, matching how a
// real delta-sending peer would update its own view.
func EncodeDelta(schema *PacketSchema, record *Record, cache *Cache) ([]byte, error) {
	keyTuple := make([]Value, 0, len(schema.KeyFields()))
	for _, field := range schema.KeyFields() {
		value, ok := record.Get(field.Name)
		if !ok {
			return nil, fmt.Errorf("packet %d (%s): record missing key field %q", schema.PacketType, schema.Name, field.Name)
		}
		keyTuple = append(keyTuple, value)
	}

	baseline, cached := cache.Get(schema.PacketType, keyTuple)
	if !cached {
		baseline = defaultBaseline(schema)
	}

	bitvector := make([]byte, schema.BitvectorByteCount())
	var payload bytes.Buffer

	for i, field := range schema.NonKeyFields() {
		value, ok := record.Get(field.Name)
		if !ok {
			return nil, fmt.Errorf("packet %d (%s): record missing field %q", schema.PacketType, schema.Name, field.Name)
		}
		baseVal, _ := baseline.Get(field.Name)

		if field.Kind == KindBool {
			if value.Bool {
				setBit(bitvector, i)
			}
			continue
		}

		if value.Equal(baseVal) {
			continue
		}
		setBit(bitvector, i)

		if field.Kind == KindArray && field.UseDiff {
			if err := encodeArrayDiff(&payload, field, baseVal.Array, value.Array); err != nil {
				return nil, fmt.Errorf("packet %d (%s) field %q: %w", schema.PacketType, schema.Name, field.Name, err)
			}
			continue
		}
		if err := encodeField(&payload, field, value); err != nil {
			return nil, fmt.Errorf("packet %d (%s) field %q: %w", schema.PacketType, schema.Name, field.Name, err)
		}
	}

	var out bytes.Buffer
	out.Write(bitvector)
	for _, field := range schema.KeyFields() {
		value, _ := record.Get(field.Name)
		if err := encodeField(&out, field, value); err != nil {
			return nil, fmt.Errorf("packet %d (%s) key field %q: %w", schema.PacketType, schema.Name, field.Name, err)
		}
	}
	out.Write(payload.Bytes())
	return out.Bytes(), nil
}

// setBit sets bit i (little-endian within byte) in bitvector.
func setBit(bitvector []byte, i int) {
	bitvector[i/8] |= 1 << uint(i%8)
}

// encodeField writes value — scalar or dense array — to buf.
func encodeField(buf *bytes.Buffer, field FieldSchema, value Value) error {
	if field.Kind != KindArray {
		return encodeScalar(buf, field.Kind, value)
	}
	if len(value.Array) != field.Capacity {
		return fmt.Errorf("array has %d elements, want capacity %d", len(value.Array), field.Capacity)
	}
	for _, elem := range value.Array {
		if err := encodeScalar(buf, field.ElementKind, elem); err != nil {
			return err
		}
	}
	return nil
}

// encodeArrayDiff writes the sparse index/value pairs describing how
// updated differs from baseline, followed by the capacity sentinel.
func encodeArrayDiff(buf *bytes.Buffer, field FieldSchema, baseline, updated []Value) error {
	if len(updated) != field.Capacity {
		return fmt.Errorf("array has %d elements, want capacity %d", len(updated), field.Capacity)
	}
	width := indexWidth(field.Capacity)
	for i, elem := range updated {
		var base Value
		if i < len(baseline) {
			base = baseline[i]
		} else {
			base = defaultValue(field.ElementKind)
		}
		if elem.Equal(base) {
			continue
		}
		if err := encodeIndex(buf, i, width); err != nil {
			return err
		}
		if err := encodeScalar(buf, field.ElementKind, elem); err != nil {
			return err
		}
	}
	return encodeIndex(buf, field.Capacity, width)
}

// encodeIndex writes an array-diff index (or the capacity sentinel) in the
// given width.
func encodeIndex(buf *bytes.Buffer, index, width int) error {
	if width == 1 {
		if index > 0xFF {
			return fmt.Errorf("index %d does not fit in a 1-byte index", index)
		}
		buf.WriteByte(byte(index))
		return nil
	}
	if index > 0xFFFF {
		return fmt.Errorf("index %d does not fit in a 2-byte index", index)
	}
	buf.WriteByte(byte(index >> 8))
	buf.WriteByte(byte(index))
	return nil
}

// encodeScalar dispatches to the primitive encoder for kind.
func encodeScalar(buf *bytes.Buffer, kind Kind, value Value) error {
	switch kind {
	case KindU8:
		buf.WriteByte(byte(value.U32))
	case KindU16:
		buf.WriteByte(byte(value.U32 >> 8))
		buf.WriteByte(byte(value.U32))
	case KindU32:
		buf.WriteByte(byte(value.U32 >> 24))
		buf.WriteByte(byte(value.U32 >> 16))
		buf.WriteByte(byte(value.U32 >> 8))
		buf.WriteByte(byte(value.U32))
	case KindS8:
		buf.WriteByte(byte(value.S32))
	case KindS16:
		v := uint16(value.S32)
		buf.WriteByte(byte(v >> 8))
		buf.WriteByte(byte(v))
	case KindS32:
		v := uint32(value.S32)
		buf.WriteByte(byte(v >> 24))
		buf.WriteByte(byte(v >> 16))
		buf.WriteByte(byte(v >> 8))
		buf.WriteByte(byte(v))
	case KindBool:
		if value.Bool {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case KindString:
		if _, err := buf.WriteString(value.String); err != nil {
			return err
		}
		buf.WriteByte(0x00)
	default:
		return fmt.Errorf("wire: encodeScalar called with non-scalar kind %s", kind)
	}
	return nil
}
