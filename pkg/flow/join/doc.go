// Package join implements the JOIN aggregator: run a batch of tasks, wait
// for every one of them, then decide success or failure for the batch.
//
// Policy:
//   - FailsWhenAnyFailed (default true): any failure fails the batch
//   - FailsWhenAllFailed (default false): fail only when nothing succeeded
//   - the surfaced error is the one of the lowest-index failed task
//
// Results are placed by task index regardless of completion order. When the
// batch fails, every other result goes to the unused result handler, in
// index order, after the caller received the error.
package join
