/*
Package health provides probes for monitoring the storage engine's own
liveness, independent of whatever health-check mechanism a host application
layers on top of its data.

This package implements two checker kinds: channel liveness (does a
channel's worker loop still acknowledge commands) and disk space (does the
storage directory's filesystem still have headroom). These are the checks
that make sense for an embedded, single-process engine — there is no
container, no HTTP endpoint, and no subprocess to probe, so the teacher's
HTTP/TCP/exec checkers are not carried forward.

# Architecture

	┌─────────────────────────────────────────────────────────────┐
	│                   Checker Interface                          │
	│  • Check(ctx) Result                                          │
	│  • Type() CheckType                                           │
	└────────┬──────────────────────────────────────────────────────┘
	         │
	    ┌────┴─────────┐
	    ▼              ▼
	┌────────────┐  ┌───────────┐
	│  Channel   │  │   Disk    │
	│ Liveness   │  │   Space   │
	└────────────┘  └───────────┘
	      │                │
	      ▼                ▼
	 Ping() via      AvailableBytes()
	 channel queue   on the blob connector's
	                 backing filesystem

# Core Components

Checker Interface:

	type Checker interface {
		Check(ctx context.Context) Result
		Type() CheckType
	}

Result:

	type Result struct {
		Healthy   bool
		Message   string
		CheckedAt time.Time
		Duration  time.Duration
	}

Status tracks health over time with the same hysteresis rule the teacher
used — a configurable number of consecutive failures before flipping to
unhealthy, and a single success to flip back:

	type Status struct {
		ConsecutiveFailures  int
		ConsecutiveSuccesses int
		LastCheck            time.Time
		LastResult           Result
		Healthy              bool
		StartedAt            time.Time
	}

Config:

	type Config struct {
		Interval    time.Duration // default 30s
		Timeout     time.Duration // default 10s
		Retries     int           // default 3
		StartPeriod time.Duration // default 0
	}

# Channel Liveness Check

ChannelLivenessCheck round-trips a no-op command through a channel's
command queue (via the Pinger interface, satisfied by *channel.Channel) and
fails if the channel does not acknowledge it before ctx is done — the same
signal a stuck or deadlocked worker loop would produce.

# Disk Space Check

DiskSpaceCheck reads available bytes from a DiskUsage implementation
(satisfied by the local filesystem blob connector) and fails once headroom
drops below MinAvailableBytes. An engine that cannot append new data file
records because the disk is full should be visibly unhealthy before the
first failed write, not after.

# Usage

	import "github.com/nebulastore/store/pkg/health"

	status := health.NewStatus()
	config := health.DefaultConfig()

	checker := &health.ChannelLivenessCheck{Channel: 2, Pinger: ch}

	for {
		if status.InStartPeriod(config) {
			time.Sleep(config.Interval)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		result := checker.Check(ctx)
		cancel()
		status.Update(result, config)
		if !status.Healthy {
			log.Error("channel unhealthy: " + result.Message)
		}
		time.Sleep(config.Interval)
	}

# System memory helper

SystemAvailableBytes reads /proc/meminfo's MemAvailable on Linux, returning
(0, false) elsewhere or on any read error. It is deliberately separate from
a process's own heap usage (reported by runtime.ReadMemStats in
pkg/storagemgr's Statistics) — the two numbers must never be merged into a
single gauge, since "how much memory has this process allocated" and "how
much memory can the OS still hand out" answer different questions and
conflating them was a known source of confusion in the design this engine
is based on.

# Design Patterns

Strategy: ChannelLivenessCheck and DiskSpaceCheck both satisfy Checker, so
a caller holding a []health.Checker never needs a type switch.

Hysteresis: Status requires Retries consecutive failures before flipping
unhealthy, preventing a single transient blip from looking like an outage.

Context-Based Cancellation: every Check respects its ctx deadline.

# Integration Points

  - pkg/channel: implements Pinger
  - pkg/blobstore: LocalFS implements DiskUsage
  - pkg/storagemgr: assembles Checkers into the manager's health surface
*/
package health
