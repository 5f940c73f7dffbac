package nodeid

import "fmt"

// Handle is a weak reference to a plug in a graph's arena. The zero Handle
// refers to nothing.
type Handle struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.Index, h.Generation)
}
