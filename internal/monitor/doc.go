// Package monitor collects statistics about hash and compute requests made
// to the evaluation engine. Every type here implements process.Monitor.
package monitor
