package hclgraph

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/fsutil"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/registry"
	"github.com/vk/plugflow/internal/value"
)

// Loader populates graphs from HCL files.
type Loader struct {
	registry *registry.Registry
}

// NewLoader returns a Loader creating nodes through r.
func NewLoader(r *registry.Registry) *Loader {
	return &Loader{registry: r}
}

// pendingNode is a node created in the first pass whose attributes are
// applied in the second.
type pendingNode struct {
	node  graph.Node
	block *nodeBlock
}

// Load adds the nodes defined under paths to g and returns the evaluation
// context the files describe. Directories are searched for .hcl files.
// Errors are hcl.Diagnostics carrying source ranges.
func (l *Loader) Load(ctx context.Context, g *graph.Graph, paths ...string) (*evalctx.Context, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	editor := evalctx.New().Edit()
	var pending []pendingNode

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		if root.Context != nil {
			if diags := applyContext(editor, root.Context); diags.HasErrors() {
				return nil, diags
			}
		}
		for _, nb := range root.Nodes {
			n, diags := l.createNode(g, nb)
			if diags.HasErrors() {
				return nil, diags
			}
			pending = append(pending, pendingNode{node: n, block: nb})
		}
	}

	// Connections may point at nodes from later files, so attributes are
	// applied only once every node exists.
	var diags hcl.Diagnostics
	for _, pn := range pending {
		diags = append(diags, l.applyAttributes(ctx, g, pn)...)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	logger.Debug("HCL loading complete.", "files", len(files), "nodes", len(pending))
	return editor.Context(), nil
}

func (l *Loader) createNode(g *graph.Graph, nb *nodeBlock) (graph.Node, hcl.Diagnostics) {
	n, err := l.registry.Create(nb.Type, nb.Name)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown node type",
			Detail:   fmt.Sprintf("Node %q has type %q, which is not registered.", nb.Name, nb.Type),
			Subject:  blockRange(nb),
		}}
	}
	if err := g.AddNode(n); err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid node",
			Detail:   err.Error(),
			Subject:  blockRange(nb),
		}}
	}
	return n, nil
}

func (l *Loader) applyAttributes(ctx context.Context, g *graph.Graph, pn pendingNode) hcl.Diagnostics {
	attrs, diags := pn.block.Body.JustAttributes()
	if diags.HasErrors() {
		return diags
	}
	for _, name := range sortedNames(attrs) {
		attr := attrs[name]
		p := pn.node.Plug(name)
		if p == nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown plug",
				Detail:   fmt.Sprintf("Node %q of type %q has no plug named %q.", pn.node.Name(), pn.node.TypeName(), name),
				Subject:  attr.NameRange.Ptr(),
			})
			continue
		}
		if traversal, tDiags := hcl.AbsTraversalForExpr(attr.Expr); !tDiags.HasErrors() {
			diags = append(diags, connect(ctx, g, p, traversal, attr)...)
			continue
		}
		diags = append(diags, setStatic(g, p, attr)...)
	}
	return diags
}

func connect(ctx context.Context, g *graph.Graph, dst *graph.Plug, traversal hcl.Traversal, attr *hcl.Attribute) hcl.Diagnostics {
	path, err := traversalPath(traversal)
	if err == nil {
		var src *graph.Plug
		if src, err = g.Plug(path); err == nil {
			err = g.SetInput(dst, src)
		}
	}
	if err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid connection",
			Detail:   fmt.Sprintf("Cannot connect %s to %s: %s.", dst.FullName(), path, err),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	ctxlog.FromContext(ctx).Debug("Connected plug.", "dst", dst.FullName(), "src", path)
	return nil
}

// traversalPath renders `a.out` or `sw.in[1]` as a plug path.
func traversalPath(t hcl.Traversal) (string, error) {
	var sb strings.Builder
	for _, step := range t {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			sb.WriteString(s.Name)
		case hcl.TraverseAttr:
			sb.WriteByte('.')
			sb.WriteString(s.Name)
		case hcl.TraverseIndex:
			if s.Key.Type() != cty.Number {
				return "", fmt.Errorf("plug index must be a number")
			}
			i, _ := s.Key.AsBigFloat().Int64()
			sb.WriteString("[" + strconv.FormatInt(i, 10) + "]")
		default:
			return "", fmt.Errorf("unsupported traversal step %T", step)
		}
	}
	return sb.String(), nil
}

func setStatic(g *graph.Graph, p *graph.Plug, attr *hcl.Attribute) hcl.Diagnostics {
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return diags
	}
	if err := setCty(g, p, v); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid plug value",
			Detail:   fmt.Sprintf("Cannot set %s: %s.", p.FullName(), err),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	return nil
}

// setCty sets p from v. Compound plugs take an object keyed by child name.
func setCty(g *graph.Graph, p *graph.Plug, v cty.Value) error {
	if !p.IsCompound() {
		pv, err := value.FromCty(v, p.Type())
		if err != nil {
			return err
		}
		return g.SetValue(p, pv)
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return fmt.Errorf("compound plug needs an object, got %s", v.Type().FriendlyName())
	}
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		child := p.Child(k.AsString())
		if child == nil {
			return fmt.Errorf("no child plug %q", k.AsString())
		}
		if err := setCty(g, child, ev); err != nil {
			return err
		}
	}
	return nil
}

func applyContext(e *evalctx.Editor, cb *contextBlock) hcl.Diagnostics {
	if cb.Frame != nil {
		e.SetFrame(*cb.Frame)
	}
	if cb.FramesPerSecond != nil {
		e.SetFramesPerSecond(*cb.FramesPerSecond)
	}
	if !isExprDefined(cb.Variables) {
		return nil
	}
	v, diags := cb.Variables.Value(nil)
	if diags.HasErrors() {
		return diags
	}
	if v.IsNull() {
		return nil
	}
	if err := setVariables(e, v); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid context variables",
			Detail:   err.Error() + ".",
			Subject:  cb.Variables.Range().Ptr(),
		}}
	}
	return nil
}

// setVariables sets one context variable per attribute of the object v.
func setVariables(e *evalctx.Editor, v cty.Value) error {
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return fmt.Errorf("variables must be an object, got %s", v.Type().FriendlyName())
	}
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		name := k.AsString()
		var pv value.Value
		var err error
		switch name {
		case evalctx.FrameName, evalctx.FramesPerSecondName:
			pv, err = value.FromCty(ev, value.Float)
		default:
			pv, err = value.FromCtyInferred(ev)
		}
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		if err := e.Set(name, pv); err != nil {
			return err
		}
	}
	return nil
}

func blockRange(nb *nodeBlock) *hcl.Range {
	if body, ok := nb.Body.(*hclsyntax.Body); ok {
		return body.SrcRange.Ptr()
	}
	r := nb.Body.MissingItemRange()
	return &r
}

// sortedNames returns attribute names in source order.
func sortedNames(attrs hcl.Attributes) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return attrs[a].Range.Start.Byte - attrs[b].Range.Start.Byte
	})
	return names
}

// isExprDefined reports whether an optional attribute was present in the
// source. Omitted attributes decode to zero-width placeholder expressions.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}
