/*
Package nodeid names things in a plug graph.

An Address is the textual path of a plug: the node name followed by plug
names, dot separated, e.g. `switch1.in[2]` or `grade.color.r`. A bracketed
index selects a child plug by position.

A Handle is the weak, non-owning reference used for connections: an index
into the graph's plug arena plus a generation counter, so a handle to a
removed plug never resolves to a plug created later in the same slot.
*/
package nodeid
