// Package core contains the plumbing shared by the join and race
// aggregators: concurrency modes, call configuration, the task runner with
// its worker slots, and delivery of unused results. It holds no aggregation
// policy of its own.
package core
