// Package registry maps node type names, as written in graph files, to the
// Go factories that build those nodes.
//
// Node kinds are contributed by modules. During application startup every
// module registers its factories and the registry is validated, so a broken
// factory is caught before any graph is loaded.
package registry
