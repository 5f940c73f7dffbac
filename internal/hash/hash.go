// Package hash provides the 128-bit content fingerprint used as the cache key
// for every hash and compute process, together with the order-sensitive
// accumulator nodes append their state to.
package hash

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/unicode/norm"
)

// Domain tags keep hashes produced for different purposes disjoint even when
// the appended payloads happen to coincide.
const (
	DomainPlug    = "plugflow.plug.v1"
	DomainContext = "plugflow.context.v1"
	DomainValue   = "plugflow.value.v1"
)

// Hash is a 128-bit fingerprint standing in for the value that a computation
// would produce.
type Hash struct {
	Hi uint64
	Lo uint64
}

// IsZero reports whether h is the zero hash. No accumulator ever produces it,
// so it is used to mean "not computed".
func (h Hash) IsZero() bool {
	return h.Hi == 0 && h.Lo == 0
}

// Less orders hashes, for deterministic output.
func (h Hash) Less(o Hash) bool {
	if h.Hi != o.Hi {
		return h.Hi < o.Hi
	}
	return h.Lo < o.Lo
}

// String returns the hash as 32 lowercase hex digits.
func (h Hash) String() string {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], h.Hi)
	binary.BigEndian.PutUint64(b[8:], h.Lo)
	return hex.EncodeToString(b[:])
}

// kind tags prefix every appended item so that different sequences of
// appends never produce the same byte stream.
const (
	kindBool byte = iota + 1
	kindInt
	kindUint
	kindFloat
	kindString
	kindBytes
	kindHash
	kindTag
)

// Hasher accumulates appended items into a Hash. Appending is order
// sensitive: appending A then B differs from B then A. A Hasher is not safe
// for concurrent use.
type Hasher struct {
	d   *xxh3.Hasher
	buf [9]byte
}

// New returns an empty accumulator.
func New() *Hasher {
	return &Hasher{d: xxh3.New()}
}

// NewDomain returns an accumulator seeded with a domain tag.
func NewDomain(domain string) *Hasher {
	h := New()
	h.writeRaw([]byte(domain))
	h.writeRaw([]byte{0x00})
	return h
}

func (h *Hasher) writeRaw(b []byte) {
	// xxh3.Hasher.Write never returns an error.
	_, _ = h.d.Write(b)
}

func (h *Hasher) writeWord(kind byte, v uint64) {
	h.buf[0] = kind
	binary.LittleEndian.PutUint64(h.buf[1:], v)
	h.writeRaw(h.buf[:])
}

// AppendBool appends a boolean.
func (h *Hasher) AppendBool(v bool) *Hasher {
	var u uint64
	if v {
		u = 1
	}
	h.writeWord(kindBool, u)
	return h
}

// AppendInt appends a signed integer.
func (h *Hasher) AppendInt(v int64) *Hasher {
	h.writeWord(kindInt, uint64(v))
	return h
}

// AppendUint appends an unsigned integer.
func (h *Hasher) AppendUint(v uint64) *Hasher {
	h.writeWord(kindUint, v)
	return h
}

// AppendFloat appends a float. Positive and negative zero hash identically.
func (h *Hasher) AppendFloat(v float64) *Hasher {
	if v == 0 {
		v = 0
	}
	h.writeWord(kindFloat, math.Float64bits(v))
	return h
}

// AppendString appends a string in Unicode normalization form C, so
// canonically equivalent strings hash identically.
func (h *Hasher) AppendString(s string) *Hasher {
	s = norm.NFC.String(s)
	h.writeWord(kindString, uint64(len(s)))
	h.writeRaw([]byte(s))
	return h
}

// AppendBytes appends raw bytes.
func (h *Hasher) AppendBytes(b []byte) *Hasher {
	h.writeWord(kindBytes, uint64(len(b)))
	h.writeRaw(b)
	return h
}

// AppendHash appends a previously computed hash, typically an upstream one.
func (h *Hasher) AppendHash(o Hash) *Hasher {
	h.writeWord(kindHash, o.Hi)
	binary.LittleEndian.PutUint64(h.buf[1:], o.Lo)
	h.writeRaw(h.buf[1:])
	return h
}

// AppendTag appends a short type or kind tag.
func (h *Hasher) AppendTag(tag string) *Hasher {
	h.writeWord(kindTag, uint64(len(tag)))
	h.writeRaw([]byte(tag))
	return h
}

// Sum returns the hash of everything appended so far. The accumulator stays
// usable.
func (h *Hasher) Sum() Hash {
	s := h.d.Sum128()
	out := Hash{Hi: s.Hi, Lo: s.Lo}
	if out.IsZero() {
		out.Lo = 1
	}
	return out
}

// Of hashes a single string under a domain. Handy for tests and identities.
func Of(domain, s string) Hash {
	return NewDomain(domain).AppendString(s).Sum()
}
