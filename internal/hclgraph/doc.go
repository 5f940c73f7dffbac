// Package hclgraph builds plug graphs from HCL definition files.
//
// A definition file holds an optional context block and any number of node
// blocks:
//
//	context {
//	  frame             = 1
//	  frames_per_second = 24
//	  variables = {
//	    shot = "s0010"
//	  }
//	}
//
//	node "constant" "a" {
//	  value = 5
//	}
//
//	node "arithmetic" "b" {
//	  operation = "multiply"
//	  a         = a.out
//	  b         = 2
//	}
//
// Literal attributes set static plug values. Traversals such as `a.out` or
// `sw.in[1]` connect the plug to another node's plug. Connections are made
// after every node from every file exists, so files may reference nodes in
// any order.
package hclgraph
