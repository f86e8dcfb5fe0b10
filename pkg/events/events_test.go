package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/events"
)

func TestSubscriberReceivesPublishedEvent(t *testing.T) {
	b := events.NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(&events.Event{Type: events.EventGCCycleStarted, Message: "cycle 1"})

	select {
	case ev := <-sub:
		assert.Equal(t, events.EventGCCycleStarted, ev.Type)
		assert.Equal(t, "cycle 1", ev.Message)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := events.NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	// sub is closed by Unsubscribe; reading from a closed channel must
	// return the zero value immediately rather than blocking.
	select {
	case ev, ok := <-sub:
		assert.False(t, ok)
		assert.Nil(t, ev)
	case <-time.After(time.Second):
		t.Fatal("closed subscriber channel should not block a read")
	}
}

func TestMultipleSubscribersEachReceiveTheEvent(t *testing.T) {
	b := events.NewBroker()
	b.Start()
	defer b.Stop()

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer b.Unsubscribe(sub1)
	defer b.Unsubscribe(sub2)

	b.Publish(&events.Event{Type: events.EventBackupCreated})

	for _, sub := range []events.Subscriber{sub1, sub2} {
		select {
		case ev := <-sub:
			assert.Equal(t, events.EventBackupCreated, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out delivery")
		}
	}
}
