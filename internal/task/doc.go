// Package task runs the parallel subtasks of a compute.
//
// An Arena is a queue of jobs served by a bounded set of worker goroutines.
// Jobs are submitted through a Group. While a Group waits it runs queued
// jobs of its own arena on the waiting goroutine, so a nested Wait never
// needs a free worker to make progress. Other goroutines may lend a hand
// with Help; they only ever run jobs queued in that arena.
package task
