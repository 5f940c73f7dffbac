// Package scheduler expands an evaluation plan, a set of plugs over a frame
// range in a base context, into a stream of requests for the executor.
package scheduler
