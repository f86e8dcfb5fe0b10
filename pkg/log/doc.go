/*
Package log provides structured logging for the storage engine using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("gc")                      │          │
	│  │  - WithChannel(3)                           │          │
	│  │  - WithOID(oid)                             │          │
	│  │  - WithTID(tid)                             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  {"level":"info","component":"gc",           │          │
	│  │   "channel":3,"time":"...","message":"..."} │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from every package in this module

Log Levels:
  - Debug: cycle start/stop, yield and budget-exhaustion detail
  - Info: general lifecycle (channel started, GC cycle completed)
  - Warn: recoverable anomalies (subscriber dropped, retrying a read)
  - Error: fatal conditions, just before a channel transitions to error
  - Fatal: unrecoverable startup errors (process exits)

Context Loggers:
  - WithComponent: tag all logs from one subsystem ("gc", "housekeeping")
  - WithChannel: tag logs with the owning channel index
  - WithOID: tag logs with the object id under operation
  - WithTID: tag logs with the type id under operation

# Usage

Initializing the Logger:

	import "github.com/nebulastore/store/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("storage manager started")
	log.Debug("housekeeping budget adjusted")
	log.Warn("event subscriber dropped, channel full")
	log.Error("channel transitioning to error state")

Structured Logging:

	log.Logger.Info().
		Int("channel", 3).
		Uint64("oid", uint64(oid)).
		Msg("entity stored")

Component Loggers:

	gcLog := log.WithComponent("gc")
	gcLog.Debug().Msg("mark cycle starting")

	chLog := log.WithChannel(2).With().Str("component", "channel").Logger()
	chLog.Info().Msg("channel state: running")

# Integration Points

This package is used by every other package in the module:

  - pkg/channel: logs worker state transitions and command handling
  - pkg/gc: logs mark/sweep cycle start, completion, and yields
  - pkg/housekeeping: logs budget adjustments and cycle scheduling
  - pkg/datafile: logs rollover, cleanup progress, and recovery truncation
  - pkg/storagemgr: logs startup, shutdown, and backup operations

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance initialized once at startup
  - Accessible from all packages without being passed down call chains

Context Logger Pattern:
  - Child loggers carry fixed fields (component, channel, oid, tid)
  - Avoids repeating the same field at every call site

Error Logging Pattern:
  - Always attach the cause with .Err(err)
  - Errors are wrapped with types.StorageError before being logged, so the
    error kind (§7 taxonomy) is visible in the log line as well as to callers

# Log Rotation

This package does not rotate log files; an embedded library has no business
owning the host process's log lifecycle. Write to a file and rotate with an
external tool (logrotate, or let the host's own logging use this package's
io.Writer).
*/
package log
