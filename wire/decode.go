package wire

import "fmt"

// DecodeNonDelta decodes a packet body whose schema has HasDelta == false.
// Fields are read in declaration order; array fields are dense (exactly
// Capacity elements, each read via the element primitive). The cache is
// neither consulted nor updated.
func DecodeNonDelta(schema *PacketSchema, body []byte) (*Record, error) {
	record := NewRecord()
	offset := 0
	for _, field := range schema.Fields {
		value, next, err := decodeField(field, body, offset)
		if err != nil {
			return nil, fmt.Errorf("packet %d (%s) field %q: %w", schema.PacketType, schema.Name, field.Name, err)
		}
		record.Set(field.Name, value)
		offset = next
	}
	return record, nil
}

// DecodeDelta decodes a packet body whose schema has HasDelta == true,
// against cache, following spec.md §4.4 exactly:
//
//  1. read the bitvector
//  2. read key fields
//  3. resolve the cached baseline (or per-kind defaults)
//  4. decode non-key fields, folding standalone booleans into the
//     bitvector and consulting the baseline for any bit that is clear
//  5. write the merged record back to the cache
func DecodeDelta(schema *PacketSchema, body []byte, cache *Cache) (*Record, error) {
	offset := 0

	bitvector, next, err := decodeBitvector(body, offset, schema.BitvectorByteCount())
	if err != nil {
		return nil, fmt.Errorf("packet %d (%s) bitvector: %w", schema.PacketType, schema.Name, err)
	}
	offset = next

	record := NewRecord()
	keyTuple := make([]Value, 0, len(schema.KeyFields()))
	for _, field := range schema.KeyFields() {
		value, next, err := decodeField(field, body, offset)
		if err != nil {
			return nil, fmt.Errorf("packet %d (%s) key field %q: %w", schema.PacketType, schema.Name, field.Name, err)
		}
		record.Set(field.Name, value)
		keyTuple = append(keyTuple, value)
		offset = next
	}

	baseline, cached := cache.Get(schema.PacketType, keyTuple)
	if !cached {
		baseline = defaultBaseline(schema)
	}

	for i, field := range schema.NonKeyFields() {
		present := bitSet(bitvector, i)

		switch {
		case field.Kind == KindBool:
			// Boolean header folding: the bit *is* the value, no payload
			// bytes are consumed.
			record.Set(field.Name, Value{Kind: KindBool, Bool: present})

		case field.Kind == KindArray && field.UseDiff:
			if !present {
				baseVal, _ := baseline.Get(field.Name)
				record.Set(field.Name, baseVal)
				continue
			}
			baseVal, _ := baseline.Get(field.Name)
			updated, next, err := decodeArrayDiff(field, body, offset, baseVal.Array)
			if err != nil {
				return nil, fmt.Errorf("packet %d (%s) field %q: %w", schema.PacketType, schema.Name, field.Name, err)
			}
			record.Set(field.Name, Value{Kind: KindArray, Array: updated})
			offset = next

		default:
			if !present {
				baseVal, _ := baseline.Get(field.Name)
				record.Set(field.Name, baseVal)
				continue
			}
			value, next, err := decodeField(field, body, offset)
			if err != nil {
				return nil, fmt.Errorf("packet %d (%s) field %q: %w", schema.PacketType, schema.Name, field.Name, err)
			}
			record.Set(field.Name, value)
			offset = next
		}
	}

	cache.Put(schema.PacketType, keyTuple, record)
	return record, nil
}

// decodeField decodes one field — scalar or dense array — at offset,
// dispatching on field.Kind.
func decodeField(field FieldSchema, buf []byte, offset int) (Value, int, error) {
	if field.Kind != KindArray {
		return decodeScalar(field.Kind, buf, offset)
	}
	elements := make([]Value, field.Capacity)
	for i := 0; i < field.Capacity; i++ {
		elem, next, err := decodeScalar(field.ElementKind, buf, offset)
		if err != nil {
			return Value{}, offset, err
		}
		elements[i] = elem
		offset = next
	}
	return Value{Kind: KindArray, Array: elements}, offset, nil
}

// decodeArrayDiff implements the array-diff subdecode of spec.md §4.4:
// starting from baseline, repeatedly read an index and, unless it is the
// capacity sentinel, overwrite that slot with one freshly decoded element.
func decodeArrayDiff(field FieldSchema, buf []byte, offset int, baseline []Value) ([]Value, int, error) {
	working := make([]Value, len(baseline))
	copy(working, baseline)

	width := indexWidth(field.Capacity)
	for {
		index, next, err := decodeIndex(buf, offset, width)
		if err != nil {
			return nil, offset, err
		}
		offset = next

		if index == field.Capacity {
			return working, offset, nil
		}
		if index > field.Capacity {
			return nil, offset, fmt.Errorf("index %d exceeds capacity %d: %w", index, field.Capacity, ErrArrayIndexOutOfRange)
		}

		elem, next, err := decodeScalar(field.ElementKind, buf, offset)
		if err != nil {
			return nil, offset, err
		}
		working[index] = elem
		offset = next
	}
}

// decodeIndex reads a big-endian array-diff index of the given width (1 or
// 2 bytes).
func decodeIndex(buf []byte, offset, width int) (int, int, error) {
	if width == 1 {
		v, next, err := decodeU8(buf, offset)
		if err != nil {
			return 0, offset, err
		}
		return int(v.U32), next, nil
	}
	v, next, err := decodeU16(buf, offset)
	if err != nil {
		return 0, offset, err
	}
	return int(v.U32), next, nil
}

// defaultBaseline builds the per-kind-default record used when no cache
// entry exists yet for a packet's key tuple.
func defaultBaseline(schema *PacketSchema) *Record {
	record := NewRecord()
	for _, field := range schema.NonKeyFields() {
		if field.Kind == KindArray {
			elements := make([]Value, field.Capacity)
			for i := range elements {
				elements[i] = defaultValue(field.ElementKind)
			}
			record.Set(field.Name, Value{Kind: KindArray, Array: elements})
			continue
		}
		record.Set(field.Name, defaultValue(field.Kind))
	}
	return record
}
