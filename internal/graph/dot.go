package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDOT renders the graph in Graphviz DOT format: one vertex per node in
// insertion order and one edge per connection, labelled with the plugs.
// Children of a connected compound plug are not drawn separately.
func (g *Graph) WriteDOT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph plugflow {")
	fmt.Fprintln(bw, "\trankdir=LR;")
	fmt.Fprintln(bw, "\tnode [shape=box];")

	nodes := g.Nodes()
	for _, n := range nodes {
		fmt.Fprintf(bw, "\t%s [label=%s];\n", strconv.Quote(n.Name()), strconv.Quote(n.Name()+"\n("+n.TypeName()+")"))
	}
	for _, n := range nodes {
		for _, top := range n.Plugs() {
			top.walk(func(p *Plug) {
				src := p.Input()
				if src == nil {
					return
				}
				if p.parent != nil && p.parent.Input() != nil {
					return
				}
				fmt.Fprintf(bw, "\t%s -> %s [label=%s];\n",
					strconv.Quote(src.node.Name()),
					strconv.Quote(n.Name()),
					strconv.Quote(src.RelativeName()+" -> "+p.RelativeName()))
			})
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
