// Package task runs background computations whose lifecycle hooks execute
// on a single affinity dispatcher, the way UI toolkits run callbacks on the
// main thread.
//
// A Runner owns the worker pool and holds the dispatcher. A Task wraps a
// computation and an ordered list of Hook layers; Execute hands it to the
// runner and returns immediately. The worker blocks at each lifecycle point
// until the hooks have run on the dispatcher, so for one task start,
// compute, finish or error, and finalize never overlap. Observable adds
// pluggable observers and ProgressTask drives a busy indicator, both as
// additional hook layers rather than subclasses.
package task
