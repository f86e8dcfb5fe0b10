// Package housekeeping runs the dedicated background driver that wakes
// periodically and dispatches one aggregated GC/file-cleanup/cache-check
// pass to pkg/channelmgr, adapting its time budget to recent load.
//
// Grounded on the teacher's pkg/scheduler/scheduler.go ticker-loop shape
// (a single goroutine, time.Ticker, select over the ticker and a stop
// channel, logging and continuing on a cycle error rather than exiting)
// generalized from "re-evaluate container placement every 5 seconds" to
// "issue one housekeeping pass every housekeeping_interval_ms".
package housekeeping
