package wire

import "fmt"

// FieldSchema describes one field of a packet, in the order it is declared
// on the wire.
type FieldSchema struct {
	Name  string
	Kind  Kind
	IsKey bool

	// The remaining fields apply only when Kind == KindArray.
	ElementKind Kind
	Capacity    int
	UseDiff     bool
}

// PacketSchema describes the wire layout of one packet type. Field order is
// contract: it fixes both the serialization order and the bitvector bit
// index of each non-key field (array-diff fields included).
type PacketSchema struct {
	PacketType int
	Name       string
	HasDelta   bool
	Fields     []FieldSchema

	keyFields     []FieldSchema
	nonKeyFields  []FieldSchema
	bitIndex      map[string]int
	bitvectorSize int // bytes
}

// newPacketSchema validates and derives the key/non-key partition and
// bitvector geometry spec.md §3 requires. It rejects any field that would
// require capability gating (§9 Open Questions): since FieldSchema has no
// capability predicate, that non-goal is enforced simply by there being
// nothing to violate it with, but we still validate capacities here so a
// caller cannot construct a schema no decoder could ever satisfy.
func newPacketSchema(packetType int, name string, hasDelta bool, fields []FieldSchema) (*PacketSchema, error) {
	s := &PacketSchema{
		PacketType: packetType,
		Name:       name,
		HasDelta:   hasDelta,
		Fields:     fields,
		bitIndex:   make(map[string]int),
	}
	for _, f := range fields {
		if f.Kind == KindArray {
			if f.Capacity < 1 || f.Capacity > 65535 {
				return nil, fmt.Errorf("wire: schema %d field %q: capacity %d out of range [1,65535]", packetType, f.Name, f.Capacity)
			}
		}
		if f.IsKey {
			s.keyFields = append(s.keyFields, f)
		} else {
			s.bitIndex[f.Name] = len(s.nonKeyFields)
			s.nonKeyFields = append(s.nonKeyFields, f)
		}
	}
	s.bitvectorSize = (len(s.nonKeyFields) + 7) / 8
	return s, nil
}

// KeyFields returns the fields participating in the cache key, in
// declaration order.
func (s *PacketSchema) KeyFields() []FieldSchema { return s.keyFields }

// NonKeyFields returns the fields transmitted via the delta bitvector, in
// declaration order. This order defines each field's bitvector bit index.
func (s *PacketSchema) NonKeyFields() []FieldSchema { return s.nonKeyFields }

// BitvectorBitCount returns the number of non-key fields, i.e. the number
// of bits the delta bitvector must carry.
func (s *PacketSchema) BitvectorBitCount() int { return len(s.nonKeyFields) }

// BitvectorByteCount returns ceil(BitvectorBitCount/8).
func (s *PacketSchema) BitvectorByteCount() int { return s.bitvectorSize }

// bitIndexOf returns the bitvector bit index of the named non-key field.
func (s *PacketSchema) bitIndexOf(name string) int { return s.bitIndex[name] }

// indexWidth returns the array-diff index width in bytes for a given
// capacity: 1 byte when capacity fits in a u8, 2 bytes otherwise.
func indexWidth(capacity int) int {
	if capacity <= 255 {
		return 1
	}
	return 2
}

// bitSet reports whether bit i (0-indexed, little-endian within each byte
// per spec.md §6) is set in bitvector.
func bitSet(bitvector []byte, i int) bool {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	return bitvector[byteIdx]&(1<<bitIdx) != 0
}
