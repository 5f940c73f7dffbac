package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/app"
	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/executor"
	"github.com/vk/plugflow/internal/integration_tests/harness"
	"github.com/vk/plugflow/internal/nodes"
)

func TestErrorHandling_ComputeFailureIsReported(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			node "arithmetic" "div" {
				operation = "divide"
				a         = 1
				b         = 0
			}

			node "arithmetic" "ok" {
				operation = "add"
				a         = 1
				b         = 1
			}
		`,
	}
	cfg := app.Config{Plugs: []string{"div.out", "ok.out"}}

	// --- Act ---
	result := harness.Run(t, files, cfg, executor.ModeValue)

	// --- Assert ---
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, nodes.ErrDivisionByZero)
	require.NotNil(t, result.Report)
	assert.Equal(t, 1, result.Report.Failed)
	assert.Zero(t, result.Report.Cancelled)

	failed := result.Report.Results[0]
	assert.Equal(t, "div.out", failed.Plug)
	assert.True(t, evalerr.IsComputeError(failed.Err()))
	assert.NotEmpty(t, failed.Error)
	assert.Equal(t, 2.0, result.Report.Results[1].Value, "other requests still complete")
}

func TestErrorHandling_FailureIsNotCached(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			node "arithmetic" "div" {
				operation = "divide"
				a         = 1
				b         = 0
			}
		`,
	}

	// --- Act ---
	result := harness.Run(t, files, app.Config{Plugs: []string{"div.out"}, FrameStart: 1, FrameEnd: 3}, executor.ModeValue)

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Equal(t, 3, result.Report.Failed, "each frame fails on its own")
	assert.Zero(t, result.App.Engine().ValueCache().Len())
}

func TestErrorHandling_CancelledRunIsNotAFailure(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			node "accumulate" "slow" {
				in         = 1
				iterations = 1000000000000
			}
		`,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// --- Act ---
	result := harness.RunWithContext(ctx, t, files, app.Config{Plugs: []string{"slow.out"}}, executor.ModeValue)

	// --- Assert ---
	require.NoError(t, result.Err, "cancellation is not a failure")
	require.NotNil(t, result.Report)
	assert.Equal(t, 1, result.Report.Cancelled)
	assert.Zero(t, result.Report.Failed)
	require.Len(t, result.Report.Results, 1)
	assert.ErrorIs(t, result.Report.Results[0].Err(), evalerr.ErrCancelled)
	assert.Zero(t, result.App.Engine().ValueCache().Len(), "cancelled results are never cached")
}
