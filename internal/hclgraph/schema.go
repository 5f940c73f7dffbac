package hclgraph

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes the top-level blocks of a definition file.
type fileRoot struct {
	Context *contextBlock `hcl:"context,block"`
	Nodes   []*nodeBlock  `hcl:"node,block"`
	Remain  hcl.Body      `hcl:",remain"`
}

type contextBlock struct {
	Frame           *float64       `hcl:"frame,optional"`
	FramesPerSecond *float64       `hcl:"frames_per_second,optional"`
	Variables       hcl.Expression `hcl:"variables,optional"`
}

type nodeBlock struct {
	Type string   `hcl:"type,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}
