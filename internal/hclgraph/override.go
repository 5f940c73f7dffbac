package hclgraph

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/vk/plugflow/internal/graph"
)

// ApplyOverride applies an assignment of the form `node.plug=<expr>`, where
// expr is an HCL literal or a traversal naming a source plug.
func ApplyOverride(g *graph.Graph, assignment string) error {
	path, src, ok := strings.Cut(assignment, "=")
	if !ok {
		return fmt.Errorf("override %q must have the form node.plug=value", assignment)
	}
	path = strings.TrimSpace(path)
	p, err := g.Plug(path)
	if err != nil {
		return fmt.Errorf("override %q: %w", assignment, err)
	}

	expr, diags := hclsyntax.ParseExpression([]byte(src), "override", hcl.InitialPos)
	if diags.HasErrors() {
		return fmt.Errorf("override %q: %w", assignment, diags)
	}
	if traversal, tDiags := hcl.AbsTraversalForExpr(expr); !tDiags.HasErrors() {
		srcPath, err := traversalPath(traversal)
		if err != nil {
			return fmt.Errorf("override %q: %w", assignment, err)
		}
		sp, err := g.Plug(srcPath)
		if err != nil {
			return fmt.Errorf("override %q: %w", assignment, err)
		}
		return g.SetInput(p, sp)
	}

	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return fmt.Errorf("override %q: %w", assignment, diags)
	}
	if p.IsConnected() {
		if err := g.SetInput(p, nil); err != nil {
			return fmt.Errorf("override %q: %w", assignment, err)
		}
	}
	if err := setCty(g, p, v); err != nil {
		return fmt.Errorf("override %q: %w", assignment, err)
	}
	return nil
}
