package app

import (
	"context"
	"fmt"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/executor"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hclgraph"
	"github.com/vk/plugflow/internal/notify"
	"github.com/vk/plugflow/internal/scheduler"
)

// Run evaluates the configured plugs over the configured frame range. mode
// selects whether values or only hashes are produced. The report is
// returned even when some requests failed; the error then aggregates the
// failures.
func (a *App) Run(ctx context.Context, mode executor.Mode) (*executor.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	if a.config.NotifyURL != "" {
		stop, err := a.startNotifications(ctx)
		if err != nil {
			return nil, err
		}
		defer stop()
	}

	for _, o := range a.config.Overrides {
		if err := hclgraph.ApplyOverride(a.graph, o); err != nil {
			return nil, err
		}
		a.logger.Debug("Applied override.", "override", o)
	}

	plugs, err := a.ResolvePlugs()
	if err != nil {
		return nil, err
	}
	sch, err := scheduler.New(scheduler.Plan{
		Plugs:  plugs,
		Base:   a.context,
		Frames: scheduler.FrameRange{Start: a.config.FrameStart, End: a.config.FrameEnd, Step: a.config.FrameStep},
	})
	if err != nil {
		return nil, fmt.Errorf("invalid evaluation plan: %w", err)
	}

	a.logger.Info("Starting evaluation.", "plugs", len(plugs), "requests", sch.Len())
	exec := executor.New(a.engine, executor.WithWorkers(a.config.WorkerCount), executor.WithMode(mode))
	report, err := exec.Execute(ctx, sch)
	a.logger.Info("Evaluation finished.",
		"run_id", report.RunID,
		"failed", report.Failed,
		"cancelled", report.Cancelled,
		"cache_entries", a.engine.ValueCache().Len(),
		"cache_bytes", a.engine.ValueCache().MemoryUsage(),
	)
	return report, err
}

// ResolvePlugs returns the configured plugs, or every unconnected output
// of a computed node when none are configured.
func (a *App) ResolvePlugs() ([]*graph.Plug, error) {
	if len(a.config.Plugs) > 0 {
		out := make([]*graph.Plug, 0, len(a.config.Plugs))
		for _, path := range a.config.Plugs {
			p, err := a.graph.Plug(path)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	}

	var out []*graph.Plug
	for _, n := range a.graph.Nodes() {
		if _, ok := n.(graph.ComputeNode); !ok {
			continue
		}
		for _, p := range n.Plugs() {
			if p.Direction() == graph.Out && !p.IsCompound() && len(p.Outputs()) == 0 {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("graph has no outputs to evaluate")
	}
	return out, nil
}

// startNotifications connects to the notify URL and relays graph changes
// until the returned function is called.
func (a *App) startNotifications(ctx context.Context) (func(), error) {
	emitter, err := notify.Dial(ctx, a.config.NotifyURL, notify.SocketOptions{Namespace: a.config.NotifyNamespace})
	if err != nil {
		return nil, fmt.Errorf("failed to start notifications: %w", err)
	}
	pub := notify.NewPublisher(emitter, 0)
	unsubscribe := pub.Attach(a.graph)
	done := make(chan struct{})
	go func() {
		defer close(done)
		pub.Run(ctx)
	}()
	return func() {
		unsubscribe()
		pub.Close()
		<-done
		emitter.Close()
	}, nil
}
