/*
Package events provides an in-memory event broker so a host application can
observe engine lifecycle without polling.

The events package implements a lightweight, topic-agnostic event bus that
delivers each published Event value to every current Subscriber. It defines
event types for garbage-collector cycles, channel state transitions, data
file rollover and cleanup, housekeeping budget adjustments, type
registration and backups; within this module only pkg/storagemgr publishes,
and only EventBackupCreated. It is an observability convenience, not a
control surface — nothing in this module blocks waiting for a subscriber.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  Publisher → Event Channel (buffer: 100)                 │
	│       ↓                                                    │
	│  Broadcast Loop                                            │
	│       ↓                                                    │
	│  Subscriber Channels (buffer: 50 each, drop-on-full)      │
	│                                                            │
	│  Event Types:                                              │
	│    gc.cycle_started / gc.cycle_completed / gc.sweep_started│
	│    channel.started / channel.stopped / channel.state_changed│
	│    channel.error                                           │
	│    datafile.rolled_over / datafile.evacuated               │
	│    housekeeping.budget_adjusted                            │
	│    typedict.type_registered                                │
	│    storagemgr.backup_created                                │
	└────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus for event distribution
  - Non-blocking publish (buffered channel)
  - Graceful shutdown via stop channel

Event:
  - ID: caller-assigned identifier (may be empty)
  - Type: one of the EventType constants
  - Timestamp: set by Publish if zero
  - Message: human-readable description
  - Metadata: key-value pairs for additional context (e.g. "channel": "3")

Subscriber:
  - A buffered channel of *Event, created via Broker.Subscribe
  - Closed via Broker.Unsubscribe

# Event Flow

Publish: broker.Publish(event) enqueues onto the broker's internal event
channel, waiting only while that 100-event buffer is full, and returns
without enqueuing once the broker is stopped; the broadcast
loop then fans the event out to every subscriber channel, skipping (and
logging a warning for) any subscriber whose buffer is full.

Subscribe: broker.Subscribe() registers a new buffered channel and returns
it; Unsubscribe removes and closes it.

# Usage

	import "github.com/nebulastore/store/pkg/events"

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("%s: %s\n", event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventGCCycleCompleted,
		Message: "mark-and-sweep cycle completed",
		Metadata: map[string]string{
			"channel":       "3",
			"freed_bytes":   "40960",
			"freed_entities": "12",
		},
	})

# Event Types Catalog

GC Events:
  - EventGCCycleStarted / EventGCCycleCompleted: one full mark-then-sweep pass
  - EventGCSweepStarted: the mark monitor has declared every channel ready

Channel Events:
  - EventChannelStarted / EventChannelStopped: worker loop lifecycle
  - EventChannelStateChanged: any ChannelState transition
  - EventChannelError: a channel entered the error state

Data File Events:
  - EventFileRolledOver: a channel's active data file rolled over
  - EventFileEvacuated: incremental cleanup moved live entities forward

Housekeeping Events:
  - EventHousekeepingBudgetSet: the adaptive time budget changed

Type Dictionary Events:
  - EventTypeRegistered: a new type or type version was registered

Storage Manager Events:
  - EventBackupCreated: CreateBackup finished writing an archive

# Design Patterns

Non-Blocking Publish: Publish never waits for a subscriber; a full
subscriber buffer causes that event to be skipped for that subscriber, not
redelivered.

Fan-Out: one event, delivered independently to every current subscriber.

Fire-and-Forget: no acknowledgment, no retry, no persistence. This is
observability, not an audit log or a message queue.

# Limitations

In-memory only, no event replay or history, no guaranteed delivery, no
topic-based filtering (subscribers filter client-side by Type). These are
intentional: anything needing guaranteed delivery belongs in a real message
queue, outside this engine's scope.

# Integration Points

  - pkg/storagemgr: owns the broker and publishes backup-created events
  - pkg/gc, pkg/channel, pkg/datafile, pkg/housekeeping and pkg/typedict
    publish nothing; their event types are defined here but never sent
*/
package events
