package app

import (
	"github.com/vk/plugflow/internal/nodes"
	"github.com/vk/plugflow/internal/registry"
)

// coreModules is the list of node modules compiled into the plugflow
// binary.
var coreModules = []registry.Module{
	nodes.Module{},
}

// NodeTypes lists the node types the core modules register.
func NodeTypes() []string {
	return registry.New(coreModules...).Types()
}
