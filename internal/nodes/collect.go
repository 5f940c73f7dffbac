package nodes

import (
	"errors"
	"fmt"

	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const CollectType = "collect"

// MaxCollectFrames bounds the number of frames a single Collect evaluates.
const MaxCollectFrames = 1 << 20

// ErrTooManyFrames is returned when a range exceeds MaxCollectFrames.
var ErrTooManyFrames = errors.New("too many frames")

// Collect evaluates its input at every frame from start to end inclusive
// and outputs the values in frame order. Frames are evaluated in parallel,
// and concurrent requests for the same collection help each other.
type Collect struct {
	graph.Base
	In, Start, End, Out *graph.Plug
}

func NewCollect(name string) *Collect {
	n := &Collect{Base: graph.NewBase(CollectType, name)}
	n.In = n.AddInput("in", value.Float)
	n.Start = n.AddInput("start", value.Int, graph.WithDefault(int64(1)))
	n.End = n.AddInput("end", value.Int, graph.WithDefault(int64(1)))
	n.Out = n.AddOutput("out", value.FloatVector)
	return n
}

func (n *Collect) Affects(p *graph.Plug) []*graph.Plug {
	switch p {
	case n.In, n.Start, n.End:
		return []*graph.Plug{n.Out}
	}
	return nil
}

func (n *Collect) frames(ev graph.Evaluation) (start int64, count int, err error) {
	if start, err = intValue(ev, n.Start); err != nil {
		return 0, 0, err
	}
	end, err := intValue(ev, n.End)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return start, 0, nil
	}
	// The difference of two int64s always fits in a uint64.
	if span := uint64(end) - uint64(start); span >= MaxCollectFrames {
		return 0, 0, fmt.Errorf("%w: %d..%d spans more than %d frames", ErrTooManyFrames, start, end, MaxCollectFrames)
	}
	return start, int(end-start) + 1, nil
}

func (n *Collect) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	start, count, err := n.frames(ev)
	if err != nil {
		return err
	}
	hashes := make([]hash.Hash, count)
	err = ev.Parallel(count, func(sub graph.Evaluation, i int) error {
		c := sub.Context().WithFrame(float64(start + int64(i)))
		ih, err := sub.With(c).Hash(n.In)
		hashes[i] = ih
		return err
	})
	if err != nil {
		return err
	}
	h.AppendInt(start).AppendUint(uint64(count))
	for _, ih := range hashes {
		h.AppendHash(ih)
	}
	return nil
}

func (n *Collect) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	start, count, err := n.frames(ev)
	if err != nil {
		return nil, err
	}
	out := make([]float64, count)
	err = ev.Parallel(count, func(sub graph.Evaluation, i int) error {
		c := sub.Context().WithFrame(float64(start + int64(i)))
		v, err := sub.With(c).Value(n.In)
		if err != nil {
			return err
		}
		out[i] = v.(float64)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (n *Collect) ComputeCachePolicy(*graph.Plug) graph.CachePolicy { return graph.TaskCollaboration }
func (n *Collect) HashCachePolicy(*graph.Plug) graph.CachePolicy    { return graph.TaskCollaboration }
