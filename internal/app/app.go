package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hclgraph"
	"github.com/vk/plugflow/internal/inmemorystore"
	"github.com/vk/plugflow/internal/inmemorytopology"
	"github.com/vk/plugflow/internal/monitor"
	"github.com/vk/plugflow/internal/process"
	"github.com/vk/plugflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	outW   io.Writer
	logger *slog.Logger
	config *Config

	registry *registry.Registry
	graph    *graph.Graph
	context  *evalctx.Context
	engine   *process.Engine

	performance *monitor.Performance
	metrics     *prometheus.Registry
	httpServer  *http.Server
}

// NewApp builds the registry from modules (the core modules when none are
// given), loads the graph and variables named by cfg and prepares the
// evaluation engine. Log output goes to outW.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	if err := reg.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid node registry: %w", err)
	}
	logger.Debug("Node modules registered.", "modules", len(modules), "types", len(reg.Types()))

	g := graph.New(inmemorytopology.New(), inmemorystore.New(), graph.WithLogger(logger))
	c, err := hclgraph.NewLoader(reg).Load(ctx, g, cfg.GraphPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	if cfg.VariablesPath != "" {
		if c, err = hclgraph.LoadVariables(c, cfg.VariablesPath); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	logger.Debug("Graph loaded.", "nodes", len(g.Nodes()), "context", c)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	perf := monitor.NewPerformance()
	metrics := monitor.NewMetrics(promReg)

	var opts []process.Option
	opts = append(opts, process.WithMonitor(monitor.Multi(perf, metrics)))
	if cfg.MemoryLimit > 0 {
		opts = append(opts, process.WithMemoryLimit(cfg.MemoryLimit))
	}
	if cfg.HashCacheSize > 0 {
		opts = append(opts, process.WithHashCacheSize(cfg.HashCacheSize))
	}
	engine := process.New(opts...)
	metrics.RegisterCacheGauges(engine.ValueCache())

	return &App{
		ctx:         ctx,
		outW:        outW,
		logger:      logger,
		config:      cfg,
		registry:    reg,
		graph:       g,
		context:     c,
		engine:      engine,
		performance: perf,
		metrics:     promReg,
	}, nil
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry { return a.registry }

// Graph returns the loaded graph.
func (a *App) Graph() *graph.Graph { return a.graph }

// Context returns the base evaluation context.
func (a *App) Context() *evalctx.Context { return a.context }

// Engine returns the evaluation engine.
func (a *App) Engine() *process.Engine { return a.engine }

// Performance returns per-plug statistics gathered so far.
func (a *App) Performance() []monitor.Stats { return a.performance.Snapshot() }

// WriteDOT renders the graph in Graphviz DOT.
func (a *App) WriteDOT(w io.Writer) error { return a.graph.WriteDOT(w) }
