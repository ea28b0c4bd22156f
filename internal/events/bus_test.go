package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventConstructorsValidate(t *testing.T) {
	t.Run("FileMovedValid", func(t *testing.T) {
		e, err := NewFileMoved("/src/a.jpg", "/dst/a.jpg", 1024, true)
		require.NoError(t, err)
		assert.Equal(t, EventFileMoved, e.Type())
		assert.Equal(t, "/src/a.jpg", e.Source)
		assert.Equal(t, "/dst/a.jpg", e.Destination)
		assert.False(t, e.Timestamp.IsZero())
	})

	t.Run("FileMovedRejectsEmptyPaths", func(t *testing.T) {
		_, err := NewFileMoved("", "/dst/a.jpg", 1, true)
		assert.Error(t, err)
		_, err = NewFileMoved("/src/a.jpg", "", 1, true)
		assert.Error(t, err)
	})

	t.Run("FileMovedRejectsNegativeSize", func(t *testing.T) {
		_, err := NewFileMoved("/src/a.jpg", "/dst/a.jpg", -1, true)
		assert.Error(t, err)
	})

	t.Run("FileDeletedValid", func(t *testing.T) {
		e, err := NewFileDeleted("/dst/a.jpg", 0)
		require.NoError(t, err)
		assert.Equal(t, EventFileDeleted, e.Type())
	})

	t.Run("FileDeletedRejectsBadInput", func(t *testing.T) {
		_, err := NewFileDeleted("", 1)
		assert.Error(t, err)
		_, err = NewFileDeleted("/dst/a.jpg", -5)
		assert.Error(t, err)
	})

	t.Run("FileCopiedValid", func(t *testing.T) {
		e, err := NewFileCopied("/src/a.jpg", "/dst/a.jpg", 10, 10, true, true)
		require.NoError(t, err)
		assert.Equal(t, EventFileCopied, e.Type())
		assert.Equal(t, int64(10), e.DestinationSize)
	})

	t.Run("FileCopiedRejectsNegativeSizes", func(t *testing.T) {
		_, err := NewFileCopied("/src/a.jpg", "/dst/a.jpg", -1, 10, true, true)
		assert.Error(t, err)
		_, err = NewFileCopied("/src/a.jpg", "/dst/a.jpg", 10, -1, true, true)
		assert.Error(t, err)
	})
}

func TestBusDispatchesInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []string

	subA := bus.Subscribe(EventFileDeleted, func(Event) { order = append(order, "a") })
	subB := bus.Subscribe(EventFileDeleted, func(Event) { order = append(order, "b") })
	subC := bus.Subscribe(EventFileDeleted, func(Event) { order = append(order, "c") })
	defer subA.Cancel()
	defer subB.Cancel()
	defer subC.Cancel()

	e, err := NewFileDeleted("/tmp/x.jpg", 1)
	require.NoError(t, err)
	bus.Publish(e)

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestBusFiltersByEventType(t *testing.T) {
	bus := NewBus()
	var moved, deleted int

	subMoved := bus.Subscribe(EventFileMoved, func(Event) { moved++ })
	subDeleted := bus.Subscribe(EventFileDeleted, func(Event) { deleted++ })
	defer subMoved.Cancel()
	defer subDeleted.Cancel()

	e, err := NewFileDeleted("/tmp/x.jpg", 1)
	require.NoError(t, err)
	bus.Publish(e)
	bus.Publish(e)

	assert.Equal(t, 0, moved)
	assert.Equal(t, 2, deleted)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	var calls []string

	subA := bus.Subscribe(EventFileCopied, func(Event) { calls = append(calls, "a") })
	subB := bus.Subscribe(EventFileCopied, func(Event) { calls = append(calls, "b") })
	defer subA.Cancel()

	assert.True(t, subB.Cancel())
	// Cancelling twice is harmless and reports nothing left to release.
	assert.False(t, subB.Cancel())

	e, err := NewFileCopied("/src/a.jpg", "/dst/a.jpg", 1, 1, true, true)
	require.NoError(t, err)
	bus.Publish(e)

	assert.Equal(t, []string{"a"}, calls)
}

func TestBusRejectsForeignSubscription(t *testing.T) {
	busA := NewBus()
	busB := NewBus()

	sub := busA.Subscribe(EventFileMoved, func(Event) {})
	defer sub.Cancel()

	assert.False(t, busB.Unsubscribe(sub))
	assert.True(t, busA.Unsubscribe(sub))
}

func TestBusCancelDuringDispatch(t *testing.T) {
	bus := NewBus()
	var calls []string

	var subA *Subscription
	subA = bus.Subscribe(EventFileDeleted, func(Event) {
		calls = append(calls, "a")
		subA.Cancel()
	})
	subB := bus.Subscribe(EventFileDeleted, func(Event) { calls = append(calls, "b") })
	defer subB.Cancel()

	e, err := NewFileDeleted("/tmp/x.jpg", 1)
	require.NoError(t, err)

	// The in-flight round still reaches every handler that was subscribed
	// when Publish started; the cancelled handler is gone on the next round.
	bus.Publish(e)
	assert.Equal(t, []string{"a", "b"}, calls)

	bus.Publish(e)
	assert.Equal(t, []string{"a", "b", "b"}, calls)
}

func TestBusPublishWithNoSubscribers(t *testing.T) {
	bus := NewBus()
	e, err := NewFileMoved("/src/a.jpg", "/dst/a.jpg", 1, true)
	require.NoError(t, err)

	assert.NotPanics(t, func() { bus.Publish(e) })
	assert.NotPanics(t, func() { bus.Publish(nil) })
}
