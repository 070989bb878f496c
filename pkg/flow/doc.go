// Package flow defines the shared vocabulary of coflow: Task, the unit of
// asynchronous work, and Result, the tagged success/failure outcome every
// task is reduced to.
//
// The aggregators live in sub-packages:
//   - join: All/AllResults wait for every task and decide from a policy
//   - race: Any/AnyResult resolve with the first qualifying completion
//   - solo: single-task helpers (delays, immediate results, adapters)
//   - core: concurrency modes, options, and the task runner both aggregators use
package flow
