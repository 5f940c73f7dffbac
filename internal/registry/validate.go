package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/graph"
)

// Validate builds a probe node from every factory and checks that it
// reports the registered type name and declares at least one output.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var result *multierror.Error

	for _, typeName := range r.Types() {
		n, err := r.Create(typeName, "probe")
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if n == nil {
			result = multierror.Append(result, fmt.Errorf("node type '%s': factory returned nil", typeName))
			continue
		}
		if n.TypeName() != typeName {
			result = multierror.Append(result, fmt.Errorf("node type '%s': factory built a '%s' node", typeName, n.TypeName()))
		}
		hasOutput := false
		for _, p := range n.Plugs() {
			if p.Direction() == graph.Out {
				hasOutput = true
				break
			}
		}
		if !hasOutput {
			result = multierror.Append(result, fmt.Errorf("node type '%s': no output plugs", typeName))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	logger.Debug("Registry validated.", "types", len(r.factories))
	return nil
}
