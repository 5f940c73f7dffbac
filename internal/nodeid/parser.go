package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches a single segment, e.g. `name` or `name[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_:-]*)(?:\[(\d+)\])?$`)

// Parse converts a path string such as `node.plug[1].child` into an Address.
func Parse(raw string) (*Address, error) {
	if raw == "" {
		return nil, fmt.Errorf("plug path cannot be empty")
	}

	addr := &Address{}
	for _, segmentStr := range strings.Split(raw, ".") {
		if segmentStr == "" {
			return nil, fmt.Errorf("plug path %q contains an empty segment", raw)
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return nil, fmt.Errorf("invalid path segment %q in %q", segmentStr, raw)
		}

		segment := NewPathSegment(matches[1])
		if matches[2] != "" {
			index, err := strconv.Atoi(matches[2])
			if err != nil {
				return nil, fmt.Errorf("invalid index in segment %q: %w", segmentStr, err)
			}
			segment.Index = index
		}
		addr.Path = append(addr.Path, segment)
	}

	return addr, nil
}

// ValidName reports whether s can be used as a node or plug name.
func ValidName(s string) bool {
	m := segmentRegex.FindStringSubmatch(s)
	return m != nil && m[2] == ""
}
