package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetMissReturnsFalse(t *testing.T) {
	cache := NewCache()
	_, ok := cache.Get(25, []Value{{Kind: KindU32, U32: 1}})
	assert.False(t, ok)
}

func TestCache_PutThenGetReturnsClone(t *testing.T) {
	cache := NewCache()
	key := []Value{{Kind: KindU32, U32: 1}}

	record := NewRecord()
	record.Set("message", Value{Kind: KindString, String: "Hi"})
	cache.Put(25, key, record)

	got, ok := cache.Get(25, key)
	require.True(t, ok)
	gotMsg, _ := got.Get("message")
	assert.Equal(t, "Hi", gotMsg.String)

	// Mutating the returned record must not affect the cache entry.
	got.Set("message", Value{Kind: KindString, String: "mutated"})
	again, ok := cache.Get(25, key)
	require.True(t, ok)
	againMsg, _ := again.Get("message")
	assert.Equal(t, "Hi", againMsg.String)
}

func TestCache_PutClonesInput(t *testing.T) {
	cache := NewCache()
	key := []Value{{Kind: KindU32, U32: 1}}

	record := NewRecord()
	record.Set("count", Value{Kind: KindS16, S32: 1})
	cache.Put(25, key, record)

	record.Set("count", Value{Kind: KindS16, S32: 999})
	got, ok := cache.Get(25, key)
	require.True(t, ok)
	gotCount, _ := got.Get("count")
	assert.EqualValues(t, 1, gotCount.S32, "Put must not alias the caller's record")
}

func TestCache_DistinctKeyTuplesAreIndependent(t *testing.T) {
	cache := NewCache()

	recA := NewRecord()
	recA.Set("count", Value{Kind: KindS16, S32: 1})
	cache.Put(25, []Value{{Kind: KindU32, U32: 1}}, recA)

	recB := NewRecord()
	recB.Set("count", Value{Kind: KindS16, S32: 2})
	cache.Put(25, []Value{{Kind: KindU32, U32: 2}}, recB)

	gotA, _ := cache.Get(25, []Value{{Kind: KindU32, U32: 1}})
	gotB, _ := cache.Get(25, []Value{{Kind: KindU32, U32: 2}})
	a, _ := gotA.Get("count")
	b, _ := gotB.Get("count")
	assert.EqualValues(t, 1, a.S32)
	assert.EqualValues(t, 2, b.S32)
}

func TestCache_DistinctPacketTypesDoNotCollide(t *testing.T) {
	cache := NewCache()
	key := []Value{{Kind: KindU32, U32: 1}}

	recA := NewRecord()
	recA.Set("count", Value{Kind: KindS16, S32: 1})
	cache.Put(25, key, recA)

	_, ok := cache.Get(26, key)
	assert.False(t, ok, "same key tuple under a different packet type must not be visible")
}

func TestCache_EmptyKeyTupleIsAValidSingleSlot(t *testing.T) {
	cache := NewCache()
	record := NewRecord()
	record.Set("version_label", Value{Kind: KindString, String: "3.3.90"})
	cache.Put(29, nil, record)

	got, ok := cache.Get(29, nil)
	require.True(t, ok)
	v, _ := got.Get("version_label")
	assert.Equal(t, "3.3.90", v.String)
}

// spec.md §8 property 7: no cache entry from one connection's lifetime
// survives ClearAll (disconnect/reconnect boundary).
func TestCache_ClearAllRemovesEverything(t *testing.T) {
	cache := NewCache()
	key := []Value{{Kind: KindU32, U32: 1}}
	cache.Put(25, key, NewRecord())
	cache.Put(29, nil, NewRecord())

	cache.ClearAll()

	_, ok1 := cache.Get(25, key)
	_, ok2 := cache.Get(29, nil)
	assert.False(t, ok1)
	assert.False(t, ok2)
}

func TestFlattenKey_DoesNotDistinguishKindsWithSameRendering(t *testing.T) {
	a := flattenKey([]Value{{Kind: KindU32, U32: 1}})
	b := flattenKey([]Value{{Kind: KindS32, S32: 1}})
	// Both render "1"; collisions here are harmless because cacheKey also
	// carries packetType and these would only collide within one packet
	// type mixing field kinds across calls, which never happens for a
	// single schema's key tuple.
	assert.Equal(t, a, b)
}

func TestFlattenKey_MultiFieldUsesSeparator(t *testing.T) {
	key := flattenKey([]Value{
		{Kind: KindU16, U32: 1},
		{Kind: KindU8, U32: 2},
	})
	assert.Equal(t, "1\x1f2", key)
}
