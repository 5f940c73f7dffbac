package nodeid

import (
	"slices"
	"strconv"
	"strings"
)

// PathSegment is one component of an address, `name` or `name[index]`.
type PathSegment struct {
	Name  string
	Index int // -1 when absent.
}

// NewPathSegment creates a segment without an index.
func NewPathSegment(name string) PathSegment {
	return PathSegment{Name: name, Index: -1}
}

// NewPathSegmentWithIndex creates a segment selecting the index-th child.
func NewPathSegmentWithIndex(name string, index int) PathSegment {
	return PathSegment{Name: name, Index: index}
}

// HasIndex reports whether the segment selects a child by position.
func (ps PathSegment) HasIndex() bool {
	return ps.Index != -1
}

// Address is the structured form of a plug path. The first segment names
// the node.
type Address struct {
	Path []PathSegment
}

// Node returns the node name, or "" for an empty address.
func (a *Address) Node() string {
	if a == nil || len(a.Path) == 0 {
		return ""
	}
	return a.Path[0].Name
}

// Plug returns the segments below the node.
func (a *Address) Plug() []PathSegment {
	if a == nil || len(a.Path) < 2 {
		return nil
	}
	return a.Path[1:]
}

// Child returns a new address with one more segment.
func (a *Address) Child(name string) *Address {
	path := make([]PathSegment, 0, len(a.Path)+1)
	path = append(path, a.Path...)
	path = append(path, NewPathSegment(name))
	return &Address{Path: path}
}

// String returns the canonical path representation.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	var sb strings.Builder
	for i, segment := range a.Path {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(segment.Name)
		if segment.HasIndex() {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(segment.Index))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

// Equal checks two addresses for equality.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return slices.Equal(a.Path, other.Path)
}
