// Package dispatch provides the affinity context on which every task
// lifecycle hook runs. A Dispatcher accepts work items and executes them in
// submission order on one logical goroutine, the way a UI toolkit runs
// callbacks on its main thread.
//
// Loop is the in-process implementation; Func adapts a host-provided
// dispatch function (for example a GUI engine's "run on UI thread" call).
// PostAndWait layers a blocking hand-off on top of any Dispatcher: the
// calling worker goroutine is suspended until the posted work has finished
// on the affinity goroutine, and any failure raised there is returned to it.
package dispatch
