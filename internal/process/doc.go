// Package process is the evaluation engine. It resolves a plug to its
// source, hashes it, and serves its value from a shared cache, running the
// node's compute at most once per hash no matter how many goroutines ask
// for it at the same time.
//
// # Flow
//
//	GetValue(plug, ctx)
//	  ├─ connected        → GetValue(input), converted to the plug type
//	  ├─ not computed     → static value or default
//	  ├─ pass-through     → GetValue(aliased input)
//	  ├─ Uncached policy  → Compute
//	  └─ otherwise        → Hash → ValueCache → Compute on miss
//
// # Concurrency
//
// A miss registers a flight for the key. Later requests for the same key
// join the flight instead of computing. Standard and TaskIsolation waiters
// block; TaskCollaboration waiters run the flight's queued subtasks while
// they wait. Every cached compute runs its subtasks in a private task
// arena, so a goroutine waiting inside one compute never picks up
// unrelated work that could need the result it is producing. This holds
// for Standard computes too, which makes Standard and TaskIsolation
// equivalent here: a Standard producer sharing its caller's arena could
// run a sibling job that blocks on the producer itself.
//
// TaskCollaboration hashes are deduplicated the same way. The hash cache
// keeps its own flights, each with a private arena, and both caches share
// one waits-for relation. If joining a flight would make the requester
// wait on itself through that relation, it computes the value or hash
// redundantly instead.
//
// Errors and cancellations reach every waiter and are never cached.
package process
