package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/app"
	"github.com/vk/plugflow/internal/executor"
	"github.com/vk/plugflow/internal/integration_tests/harness"
)

func TestCoreExecution_FrameRange(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			node "frame" "f" {
				scale = 2
			}

			node "arithmetic" "y" {
				operation = "add"
				a         = f.out
				b         = 1
			}
		`,
	}
	cfg := app.Config{Plugs: []string{"y.out"}, FrameStart: 1, FrameEnd: 3}

	// --- Act ---
	result := harness.Run(t, files, cfg, executor.ModeValue)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Len(t, result.Report.Results, 3)
	assert.Equal(t, map[float64]any{1: 3.0, 2: 5.0, 3: 7.0}, result.Values()["y.out"])

	hashes := map[string]bool{}
	for _, r := range result.Report.Results {
		hashes[r.Hash] = true
	}
	assert.Len(t, hashes, 3, "each frame should hash differently")
}

func TestCoreExecution_DefaultPlugsAreUnconnectedOutputs(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			node "constant" "a" {
				value = 3
			}

			node "arithmetic" "b" {
				operation = "multiply"
				a         = a.out
				b         = 4
			}

			node "arithmetic" "c" {
				operation = "subtract"
				a         = 10
				b         = 1
			}
		`,
	}

	// --- Act ---
	result := harness.Run(t, files, app.Config{}, executor.ModeValue)

	// --- Assert ---
	require.NoError(t, result.Err)
	values := result.Values()
	assert.Equal(t, 12.0, values["b.out"][0])
	assert.Equal(t, 9.0, values["c.out"][0])
	assert.NotContains(t, values, "a.out", "connected outputs are not evaluated by default")
}

func TestCoreExecution_HashMode(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			node "arithmetic" "b" {
				operation = "add"
				a         = 1
				b         = 2
			}
		`,
	}
	cfg := app.Config{Plugs: []string{"b.out"}}

	// --- Act ---
	result := harness.Run(t, files, cfg, executor.ModeHash)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Len(t, result.Report.Results, 1)
	r := result.Report.Results[0]
	assert.Len(t, r.Hash, 32)
	assert.Nil(t, r.Value)
	assert.Zero(t, result.App.Engine().ValueCache().Len(), "hash mode should compute nothing")
}
