package hclgraph

import (
	"fmt"
	"os"

	ctyyaml "github.com/zclconf/go-cty-yaml"

	"github.com/vk/plugflow/internal/evalctx"
)

// LoadVariables reads a YAML mapping of context variables from path and
// returns base with those variables set. Scalars and homogeneous lists are
// accepted; the frame and frame rate may be overridden the same way.
func LoadVariables(base *evalctx.Context, path string) (*evalctx.Context, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variables file %s: %w", path, err)
	}
	return ParseVariables(base, src, path)
}

// ParseVariables is LoadVariables for in-memory YAML. name is used in
// errors only.
func ParseVariables(base *evalctx.Context, src []byte, name string) (*evalctx.Context, error) {
	ty, err := ctyyaml.ImpliedType(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse variables file %s: %w", name, err)
	}
	v, err := ctyyaml.Unmarshal(src, ty)
	if err != nil {
		return nil, fmt.Errorf("failed to decode variables file %s: %w", name, err)
	}
	if v.IsNull() {
		return base, nil
	}
	e := base.Edit()
	if err := setVariables(e, v); err != nil {
		return nil, fmt.Errorf("variables file %s: %w", name, err)
	}
	return e.Context(), nil
}
