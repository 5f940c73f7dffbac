package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/app"
	"github.com/vk/plugflow/internal/executor"
	"github.com/vk/plugflow/internal/integration_tests/harness"
)

// TestHclFeatures_SplitFiles validates that connections may name nodes
// declared in another file of the same directory.
func TestHclFeatures_SplitFiles(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"graph/consumer.hcl": `
			node "arithmetic" "scaled" {
				operation = "multiply"
				a         = base.out
				b         = 3
			}
		`,
		"graph/producer.hcl": `
			node "constant" "base" {
				value = 7
			}
		`,
	}
	cfg := app.Config{GraphPaths: []string{"graph"}, Plugs: []string{"scaled.out"}}

	// --- Act ---
	result := harness.Run(t, files, cfg, executor.ModeValue)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, 21.0, result.Values()["scaled.out"][0])
}

func TestHclFeatures_IndexedPlugConnection(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			node "constant" "a" {
				value = 2
			}

			node "constant" "b" {
				value = 5
			}

			node "switch" "sw" {
				index = 1
				in0   = a.out
				in1   = b.out
			}

			node "arithmetic" "copy" {
				operation = "add"
				a         = sw.out
				b         = 0
			}
		`,
	}
	cfg := app.Config{Plugs: []string{"sw.out", "copy.out"}}

	// --- Act ---
	result := harness.Run(t, files, cfg, executor.ModeValue)

	// --- Assert ---
	require.NoError(t, result.Err)
	values := result.Values()
	assert.Equal(t, 5.0, values["sw.out"][0])
	assert.Equal(t, 5.0, values["copy.out"][0])
}
