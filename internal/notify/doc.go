// Package notify forwards graph change notifications to a remote observer
// over socket.io. Dirty propagation happens on the editing goroutine, so
// the Publisher queues events and emits them from its own goroutine.
package notify
