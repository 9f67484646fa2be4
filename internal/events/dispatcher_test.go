package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var first, second []Event
	dispatcher.Subscribe(EventActionExecuted, func(ctx context.Context, event Event) error {
		first = append(first, event)
		return nil
	})
	dispatcher.Subscribe(EventActionExecuted, func(ctx context.Context, event Event) error {
		second = append(second, event)
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventActionExecuted, TicketID: 5})

	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, 5, first[0].TicketID)
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var delivered int
	dispatcher.Subscribe(EventActionFailed, func(ctx context.Context, event Event) error {
		delivered++
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventActionPlanned})

	require.NoError(t, err)
	assert.Zero(t, delivered)
}

func TestDispatcherContinuesPastFailingHandler(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var delivered int
	dispatcher.Subscribe(EventActionPlanned, func(ctx context.Context, event Event) error {
		return errors.New("subscriber broke")
	})
	dispatcher.Subscribe(EventActionPlanned, func(ctx context.Context, event Event) error {
		delivered++
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventActionPlanned})

	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
}
