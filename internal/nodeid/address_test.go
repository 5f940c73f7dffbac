package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_String(t *testing.T) {
	testCases := []struct {
		name        string
		addr        *Address
		expectedStr string
	}{
		{
			name:        "node and plug",
			addr:        &Address{Path: []PathSegment{NewPathSegment("add1"), NewPathSegment("out")}},
			expectedStr: "add1.out",
		},
		{
			name:        "indexed child",
			addr:        &Address{Path: []PathSegment{NewPathSegment("switch1"), NewPathSegmentWithIndex("in", 2)}},
			expectedStr: "switch1.in[2]",
		},
		{
			name:        "nil address",
			addr:        nil,
			expectedStr: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStr, tc.addr.String())
		})
	}
}

func TestAddress_RoundTrip(t *testing.T) {
	for _, id := range []string{"a.b.c", "switch1.in[0]", "grade.color[2].r", "time-warp.out"} {
		t.Run(id, func(t *testing.T) {
			addr, err := Parse(id)
			require.NoError(t, err)
			assert.Equal(t, id, addr.String())

			again, err := Parse(addr.String())
			require.NoError(t, err)
			assert.True(t, addr.Equal(again))
		})
	}
}

func TestAddress_Accessors(t *testing.T) {
	addr, err := Parse("n.p.c")
	require.NoError(t, err)
	assert.Equal(t, "n", addr.Node())
	assert.Equal(t, []PathSegment{NewPathSegment("p"), NewPathSegment("c")}, addr.Plug())
	assert.Equal(t, "n.p.c.d", addr.Child("d").String())
	assert.Equal(t, "n.p.c", addr.String(), "Child does not modify the receiver")

	var nilAddr *Address
	assert.Equal(t, "", nilAddr.Node())
	assert.Nil(t, nilAddr.Plug())
}

func TestAddress_Equal(t *testing.T) {
	addr1, _ := Parse("a.b[0]")
	addr2, _ := Parse("a.b[0]")
	addr3, _ := Parse("a.b[1]")
	addr4, _ := Parse("a.c[0]")

	assert.True(t, addr1.Equal(addr2))
	assert.False(t, addr1.Equal(addr3))
	assert.False(t, addr1.Equal(addr4))
	assert.False(t, addr1.Equal(nil))
	assert.False(t, (*Address)(nil).Equal(addr1))
	assert.True(t, (*Address)(nil).Equal(nil))
}

func TestHandle(t *testing.T) {
	assert.True(t, Handle{}.IsZero())
	assert.False(t, Handle{Index: 1}.IsZero())
	assert.Equal(t, "#3.1", Handle{Index: 3, Generation: 1}.String())
}
