// Package race implements the RACE aggregator: run a batch of tasks and
// resolve with the first qualifying completion.
//
// "First" always means first by completion order, not by task index. The
// caller gets the outcome as early as the policy allows; the remaining tasks
// keep running in the background and their results, together with any other
// result that was not returned, are handed to the unused result handler once
// the whole batch has finished.
package race
