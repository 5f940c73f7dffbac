// Package nodes is the standard node library: small compute nodes covering
// constants, arithmetic, context manipulation, pass-throughs and parallel
// collection. Register adds every kind to a registry.
package nodes
