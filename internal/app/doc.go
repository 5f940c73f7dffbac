// Package app contains the core application logic. It wires the node
// registry, the graph loaded from HCL, the evaluation engine and the
// executor together, decoupled from any specific entrypoint like a CLI.
package app
