// Package executors is an in-process task execution engine: a fixed worker
// pool runs user-supplied computations under a readiness model combining
// dependency completion, trigger (first-of) completion, and absolute time
// gates.
//
// Clients build tasks (usually a Future wrapping a producer function),
// compose them with Invoke, Then, WhenAll, WhenFirst, and
// WhenAllBeforeDeadline, and synchronously await results with Wait or Get.
// Workers poll readiness: a task popped with closed gates is re-enqueued
// until its gates open, so dependency graphs must be acyclic (see
// ValidateAcyclic).
package executors
