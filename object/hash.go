package object

import (
	"bytes"
	"hash/fnv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// HashKey is comparable with ==, so it can index a map. Two different
// strings may share a HashKey; Hash resolves that with Equal.
type HashKey struct {
	Type  ObjectType
	Value uint64
}

// Hashable is implemented by the values admissible as hash keys.
type Hashable interface {
	Object
	HashKey() HashKey
}

func (i *Integer) HashKey() HashKey {
	return HashKey{Type: i.Type(), Value: uint64(i.Value)}
}

func (b *Boolean) HashKey() HashKey {
	var value uint64
	if b.Value {
		value = 1
	}
	return HashKey{Type: b.Type(), Value: value}
}

func (s *String) HashKey() HashKey {
	h := fnv.New64a()
	h.Write([]byte(s.Value))

	return HashKey{Type: s.Type(), Value: h.Sum64()}
}

// Equal compares two key values: integers and booleans by value, strings
// byte-wise. Values of any other type never compare equal.
func Equal(a, b Object) bool {
	switch a := a.(type) {
	case *Integer:
		b, ok := b.(*Integer)
		return ok && a.Value == b.Value
	case *Boolean:
		b, ok := b.(*Boolean)
		return ok && a.Value == b.Value
	case *String:
		b, ok := b.(*String)
		return ok && a.Value == b.Value
	}
	return false
}

type HashPair struct {
	Key   Object
	Value Object
}

// Hash maps hashable keys to values. Entries are kept in the order their
// key was first written, so Inspect is stable for a given hash.
type Hash struct {
	header
	pairs *linkedhashmap.Map // HashKey -> []HashPair
	size  int
}

func NewHash() *Hash {
	return &Hash{pairs: linkedhashmap.New()}
}

func (h *Hash) Type() ObjectType { return HASH_OBJ }

// Set inserts key or overwrites the value of an equal key.
func (h *Hash) Set(key Hashable, value Object) {
	if h.pairs == nil {
		h.pairs = linkedhashmap.New()
	}

	hk := key.HashKey()
	var bucket []HashPair
	if b, ok := h.pairs.Get(hk); ok {
		bucket = b.([]HashPair)
	}

	for i := range bucket {
		if Equal(bucket[i].Key, key) {
			bucket[i].Value = value
			return
		}
	}

	h.pairs.Put(hk, append(bucket, HashPair{Key: key, Value: value}))
	h.size++
}

func (h *Hash) Get(key Hashable) (Object, bool) {
	if h.pairs == nil {
		return nil, false
	}

	b, ok := h.pairs.Get(key.HashKey())
	if !ok {
		return nil, false
	}
	for _, pair := range b.([]HashPair) {
		if Equal(pair.Key, key) {
			return pair.Value, true
		}
	}
	return nil, false
}

func (h *Hash) Len() int { return h.size }

// Pairs returns the entries in insertion order.
func (h *Hash) Pairs() []HashPair {
	out := make([]HashPair, 0, h.size)
	if h.pairs == nil {
		return out
	}

	h.pairs.Each(func(_ interface{}, bucket interface{}) {
		out = append(out, bucket.([]HashPair)...)
	})
	return out
}

func (h *Hash) Inspect() string {
	var out bytes.Buffer

	pairs := make([]string, 0, h.size)
	for _, pair := range h.Pairs() {
		pairs = append(pairs, pair.Key.Inspect()+":"+pair.Value.Inspect())
	}

	out.WriteString("{")
	out.WriteString(strings.Join(pairs, ", "))
	out.WriteString("}")

	return out.String()
}
