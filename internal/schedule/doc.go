// Package schedule provides utilities for cron expression handling and recurring execution.
//
// Cron functions parse and validate cron expressions and compute upcoming run times.
// Every runs a function on each tick of a cron expression until its context ends.
package schedule
