package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/process"
	"github.com/vk/plugflow/internal/testutil"
)

func TestPerformance(t *testing.T) {
	a, b := testutil.NewCountingNode("a"), testutil.NewCountingNode("b")
	g := testutil.NewGraph(t, a, b)
	testutil.Connect(t, g, b.In, a.Out)

	perf := NewPerformance()
	e := process.New(process.WithMonitor(perf))
	c := evalctx.New()

	for i := 0; i < 3; i++ {
		_, err := e.GetValue(context.Background(), b.Out, c)
		require.NoError(t, err)
	}

	snap := perf.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a.out", snap[0].Plug)
	assert.Equal(t, "b.out", snap[1].Plug)
	assert.Equal(t, 1, snap[1].ComputeCount)
	assert.Equal(t, 2, snap[1].ValueCacheHits)
	assert.Equal(t, 1, snap[1].HashCount)
	assert.Equal(t, 2, snap[1].HashCacheHits)
	assert.Equal(t, 1, snap[0].ComputeCount)

	perf.Reset()
	assert.Empty(t, perf.Snapshot())
}

func TestMetrics(t *testing.T) {
	a := testutil.NewCountingNode("a")
	testutil.NewGraph(t, a)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	boom := errors.New("boom")
	events := []process.Event{
		{Kind: process.KindCompute, Plug: a.Out},
		{Kind: process.KindCompute, Plug: a.Out, CacheHit: true},
		{Kind: process.KindHash, Plug: a.Out},
		{Kind: process.KindCompute, Plug: a.Out, Err: boom},
		{Kind: process.KindCompute, Plug: a.Out, Err: evalerr.ErrCancelled},
	}
	for _, e := range events {
		m.Observe(e)
	}

	assert.Equal(t, 3.0, promtest.ToFloat64(m.total.WithLabelValues("compute")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.total.WithLabelValues("hash")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.hits.WithLabelValues("compute")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.errors.WithLabelValues("compute", "error")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.errors.WithLabelValues("compute", "cancelled")))

	e := process.New(process.WithMemoryLimit(4096))
	m.RegisterCacheGauges(e.ValueCache())
	expected := `
# HELP plugflow_value_cache_limit_bytes Memory limit of the value cache.
# TYPE plugflow_value_cache_limit_bytes gauge
plugflow_value_cache_limit_bytes 4096
`
	require.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "plugflow_value_cache_limit_bytes"))
}

func TestMulti(t *testing.T) {
	var got []string
	record := func(name string) process.Monitor {
		return process.MonitorFunc(func(process.Event) { got = append(got, name) })
	}
	Multi(record("first"), nil, record("second")).Observe(process.Event{})
	assert.Equal(t, []string{"first", "second"}, got)
}
