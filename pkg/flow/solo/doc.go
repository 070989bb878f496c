// Package solo provides single-task building blocks: immediate results,
// delays, delayed results, deadlines, and adapters from plain functions.
//
// They are ordinary flow.Task values and compose with join.All and race.Any,
// e.g. a timeout is a race between the real task and a Deadline task.
package solo
