package sse

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mestermind/backend/internal/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func assertNoMessage(t *testing.T, ch <-chan SSEMessage) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected SSE message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHubUserChannelAndOrdering(t *testing.T) {
	hub := NewSSEHub(logger.NewNop())
	userID := uuid.New()

	client := hub.NewSSEClient(userID)
	defer client.Close()

	hub.NotifyUser(userID, SSEEventMessageReceived, map[string]any{"seq": 1})
	hub.NotifyUser(userID, SSEEventConversationUpdated, map[string]any{"seq": 2})

	first := recvMessage(t, client.Outbound, time.Second)
	second := recvMessage(t, client.Outbound, time.Second)
	if first.Event != SSEEventMessageReceived {
		t.Fatalf("first event = %s, want %s", first.Event, SSEEventMessageReceived)
	}
	if second.Event != SSEEventConversationUpdated {
		t.Fatalf("second event = %s, want %s", second.Event, SSEEventConversationUpdated)
	}

	// Another user's channel stays quiet.
	other := hub.NewSSEClient(uuid.New())
	defer other.Close()
	hub.NotifyUser(userID, SSEEventProposalUpdated, nil)
	recvMessage(t, client.Outbound, time.Second)
	assertNoMessage(t, other.Outbound)
}

func TestSSEHubJobSubscriptions(t *testing.T) {
	hub := NewSSEHub(logger.NewNop())
	userID := uuid.New()
	jobID := uuid.New()

	client := hub.NewSSEClient(userID)
	defer client.Close()

	// Before subscribing, job events do not reach the client.
	hub.Broadcast(SSEMessage{Channel: JobChannel(jobID), Event: SSEEventAppointmentUpdated})
	assertNoMessage(t, client.Outbound)

	hub.SubscribeUser(userID, JobChannel(jobID))
	hub.Broadcast(SSEMessage{Channel: JobChannel(jobID), Event: SSEEventAppointmentUpdated})
	got := recvMessage(t, client.Outbound, time.Second)
	if got.Event != SSEEventAppointmentUpdated {
		t.Fatalf("event = %s, want %s", got.Event, SSEEventAppointmentUpdated)
	}

	hub.UnsubscribeUser(userID, JobChannel(jobID))
	hub.Broadcast(SSEMessage{Channel: JobChannel(jobID), Event: SSEEventAppointmentUpdated})
	assertNoMessage(t, client.Outbound)

	// Subscribing a user with no open connection is a no-op.
	hub.SubscribeUser(uuid.New(), JobChannel(jobID))
	hub.Broadcast(SSEMessage{Channel: JobChannel(jobID), Event: SSEEventAppointmentUpdated})
	assertNoMessage(t, client.Outbound)
}

func TestSSEHubRemoveClientDropsAllChannels(t *testing.T) {
	hub := NewSSEHub(logger.NewNop())
	userID := uuid.New()
	jobID := uuid.New()

	client := hub.NewSSEClient(userID)
	hub.SubscribeUser(userID, JobChannel(jobID))
	hub.RemoveClient(client)
	client.Close()

	hub.NotifyUser(userID, SSEEventMessageReceived, nil)
	hub.Broadcast(SSEMessage{Channel: JobChannel(jobID), Event: SSEEventAppointmentUpdated})
	assertNoMessage(t, client.Outbound)

	// A reconnect picks the user channel back up.
	reconnected := hub.NewSSEClient(userID)
	defer reconnected.Close()
	hub.NotifyUser(userID, SSEEventLeadAccessGranted, nil)
	got := recvMessage(t, reconnected.Outbound, time.Second)
	if got.Event != SSEEventLeadAccessGranted {
		t.Fatalf("event = %s, want %s", got.Event, SSEEventLeadAccessGranted)
	}
}

func TestSSEHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewSSEHub(logger.NewNop())
	userID := uuid.New()
	client := hub.NewSSEClient(userID)
	defer client.Close()

	// Overfill the outbound buffer; Broadcast must drop, not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			hub.NotifyUser(userID, SSEEventMessageReceived, map[string]any{"seq": i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("broadcast blocked on a slow client")
	}
}
