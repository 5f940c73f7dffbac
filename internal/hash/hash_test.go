package hash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_Deterministic(t *testing.T) {
	build := func() Hash {
		return New().AppendString("a").AppendInt(3).AppendFloat(1.5).AppendBool(true).Sum()
	}
	assert.Equal(t, build(), build())
}

func TestHasher_OrderSensitive(t *testing.T) {
	ab := New().AppendString("a").AppendString("b").Sum()
	ba := New().AppendString("b").AppendString("a").Sum()
	assert.NotEqual(t, ab, ba)
}

func TestHasher_NoConcatenationAmbiguity(t *testing.T) {
	left := New().AppendString("ab").AppendString("c").Sum()
	right := New().AppendString("a").AppendString("bc").Sum()
	assert.NotEqual(t, left, right)
}

func TestHasher_KindsAreDistinct(t *testing.T) {
	testCases := []struct {
		name string
		a, b Hash
	}{
		{"int vs uint", New().AppendInt(1).Sum(), New().AppendUint(1).Sum()},
		{"int vs float", New().AppendInt(1).Sum(), New().AppendFloat(1).Sum()},
		{"string vs tag", New().AppendString("x").Sum(), New().AppendTag("x").Sum()},
		{"string vs bytes", New().AppendString("x").Sum(), New().AppendBytes([]byte("x")).Sum()},
		{"bool vs int", New().AppendBool(true).Sum(), New().AppendInt(1).Sum()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, tc.a, tc.b)
		})
	}
}

func TestHasher_Domains(t *testing.T) {
	assert.NotEqual(t, Of(DomainPlug, "x"), Of(DomainContext, "x"))
	assert.Equal(t, Of(DomainPlug, "x"), Of(DomainPlug, "x"))
}

func TestHasher_NormalizesStrings(t *testing.T) {
	composed := "\u00e9"
	decomposed := "e\u0301"
	require.NotEqual(t, composed, decomposed)
	assert.Equal(t, New().AppendString(composed).Sum(), New().AppendString(decomposed).Sum())
}

func TestHasher_SignedZero(t *testing.T) {
	assert.Equal(t, New().AppendFloat(0).Sum(), New().AppendFloat(math.Copysign(0, -1)).Sum())
}

func TestHasher_AppendHash(t *testing.T) {
	upstream := Of(DomainValue, "up")
	a := New().AppendHash(upstream).Sum()
	b := New().AppendHash(Of(DomainValue, "other")).Sum()
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
}

func TestHash_String(t *testing.T) {
	h := Hash{Hi: 1, Lo: 255}
	assert.Equal(t, "000000000000000100000000000000ff", h.String())
	assert.Len(t, Of(DomainPlug, "abc").String(), 32)
}

func TestHash_Less(t *testing.T) {
	assert.True(t, Hash{Hi: 1}.Less(Hash{Hi: 2}))
	assert.True(t, Hash{Hi: 1, Lo: 1}.Less(Hash{Hi: 1, Lo: 2}))
	assert.False(t, Hash{Hi: 1, Lo: 2}.Less(Hash{Hi: 1, Lo: 2}))
}
