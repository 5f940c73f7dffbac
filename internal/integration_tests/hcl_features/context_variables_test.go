package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/app"
	"github.com/vk/plugflow/internal/executor"
	"github.com/vk/plugflow/internal/integration_tests/harness"
)

func TestHclFeatures_ContextVariables(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		variables string
		want      map[float64]any
	}{
		{
			name: "from the context block",
			want: map[float64]any{1: "sh010_0001", 2: "sh010_0002"},
		},
		{
			name:      "variables file overrides the context block",
			variables: "shot: sh020\n",
			want:      map[float64]any{1: "sh020_0001", 2: "sh020_0002"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Arrange ---
			files := map[string]string{
				"main.hcl": `
					context {
						variables = {
							shot = "sh010"
						}
					}

					node "text" "label" {
						template = "${shot}_####"
					}
				`,
			}
			cfg := app.Config{Plugs: []string{"label.out"}, FrameStart: 1, FrameEnd: 2}
			if tc.variables != "" {
				files["vars.yaml"] = tc.variables
				cfg.GraphPaths = []string{"main.hcl"}
				cfg.VariablesPath = "vars.yaml"
			}

			// --- Act ---
			result := harness.Run(t, files, cfg, executor.ModeValue)

			// --- Assert ---
			require.NoError(t, result.Err)
			assert.Equal(t, tc.want, result.Values()["label.out"])
		})
	}
}

func TestHclFeatures_ContextBlockFrame(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			context {
				frame             = 12
				frames_per_second = 25
			}
		`,
	}

	// --- Act ---
	result := harness.Load(t, files, app.Config{})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, 12.0, result.App.Context().Frame())
	assert.Equal(t, 25.0, result.App.Context().FramesPerSecond())
}
