package scheduler

import (
	"context"
	"fmt"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/graph"
)

// Request asks for one plug in one context.
type Request struct {
	// Index orders requests: frame-major, then plug order.
	Index   int
	Plug    *graph.Plug
	Context *evalctx.Context
}

// Frame is the frame the request is evaluated at.
func (r Request) Frame() float64 { return r.Context.Frame() }

// FrameRange is an inclusive range of frames. A zero Step means 1.
type FrameRange struct {
	Start, End, Step float64
}

// Frames returns the frames in the range.
func (fr FrameRange) Frames() []float64 {
	step := fr.Step
	if step == 0 {
		step = 1
	}
	var out []float64
	for i := 0; ; i++ {
		f := fr.Start + float64(i)*step
		if f > fr.End {
			break
		}
		out = append(out, f)
	}
	return out
}

// Plan is what to evaluate.
type Plan struct {
	Plugs  []*graph.Plug
	Base   *evalctx.Context
	Frames FrameRange
}

// Scheduler streams evaluation requests.
type Scheduler interface {
	// Requests returns a channel of requests. The channel is closed once
	// every request was sent or ctx is done.
	Requests(ctx context.Context) <-chan Request
	// Len is the number of requests a full stream holds.
	Len() int
}

// DefaultScheduler emits a Plan's requests in order.
type DefaultScheduler struct {
	plan   Plan
	frames []float64
}

// New validates plan and returns a scheduler for it.
func New(plan Plan) (*DefaultScheduler, error) {
	if len(plan.Plugs) == 0 {
		return nil, fmt.Errorf("plan has no plugs")
	}
	for _, p := range plan.Plugs {
		if p == nil {
			return nil, fmt.Errorf("plan contains a nil plug")
		}
	}
	if plan.Frames.Step < 0 {
		return nil, fmt.Errorf("frame step must not be negative, got %g", plan.Frames.Step)
	}
	if plan.Frames.End < plan.Frames.Start {
		return nil, fmt.Errorf("frame range end %g is before start %g", plan.Frames.End, plan.Frames.Start)
	}
	if plan.Base == nil {
		plan.Base = evalctx.New()
	}
	return &DefaultScheduler{plan: plan, frames: plan.Frames.Frames()}, nil
}

// Len implements Scheduler.
func (s *DefaultScheduler) Len() int {
	return len(s.frames) * len(s.plan.Plugs)
}

// Requests implements Scheduler.
func (s *DefaultScheduler) Requests(ctx context.Context) <-chan Request {
	logger := ctxlog.FromContext(ctx)
	ch := make(chan Request)
	go func() {
		defer close(ch)
		index := 0
		for _, frame := range s.frames {
			c := s.plan.Base.WithFrame(frame)
			for _, p := range s.plan.Plugs {
				select {
				case ch <- Request{Index: index, Plug: p, Context: c}:
					index++
				case <-ctx.Done():
					logger.Debug("Scheduler stopped.", "sent", index, "total", s.Len())
					return
				}
			}
		}
		logger.Debug("Scheduler exhausted.", "sent", index)
	}()
	return ch
}
