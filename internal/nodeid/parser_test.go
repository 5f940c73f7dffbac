package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    []PathSegment
		wantErr string
	}{
		{
			name: "node only",
			raw:  "constant1",
			want: []PathSegment{NewPathSegment("constant1")},
		},
		{
			name: "nested with index",
			raw:  "sw.in[3].x",
			want: []PathSegment{NewPathSegment("sw"), NewPathSegmentWithIndex("in", 3), NewPathSegment("x")},
		},
		{
			name: "ui prefixed plug",
			raw:  "n.ui:label",
			want: []PathSegment{NewPathSegment("n"), NewPathSegment("ui:label")},
		},
		{name: "empty", raw: "", wantErr: "cannot be empty"},
		{name: "empty segment", raw: "a..b", wantErr: "empty segment"},
		{name: "trailing dot", raw: "a.", wantErr: "empty segment"},
		{name: "leading digit", raw: "1a.out", wantErr: "invalid path segment"},
		{name: "bad index", raw: "a.b[x]", wantErr: "invalid path segment"},
		{name: "space", raw: "a b", wantErr: "invalid path segment"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := Parse(tc.raw)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, addr.Path)
		})
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("in0"))
	assert.True(t, ValidName("time_warp-2"))
	assert.False(t, ValidName("in[0]"))
	assert.False(t, ValidName("a.b"))
	assert.False(t, ValidName(""))
}
