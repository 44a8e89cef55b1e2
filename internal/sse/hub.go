package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mestermind/backend/internal/logger"
)

type SSEEvent string

const (
	SSEEventMessageReceived     SSEEvent = "MessageReceived"
	SSEEventConversationUpdated SSEEvent = "ConversationUpdated"
	SSEEventProposalUpdated     SSEEvent = "ProposalUpdated"
	SSEEventAppointmentUpdated  SSEEvent = "AppointmentUpdated"
	SSEEventLeadAccessGranted   SSEEvent = "LeadAccessGranted"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// UserChannel is the per-user channel every client is subscribed to by
// default. Conversation events also go out on a per-job channel.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID)
}

func JobChannel(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
}

func (c *SSEClient) Done() <-chan struct{} {
	return c.done
}

func (c *SSEClient) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

type SSEHub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	subscriptions map[string]map[*SSEClient]bool
}

func NewSSEHub(log *logger.Logger) *SSEHub {
	return &SSEHub{
		logger:        log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*SSEClient]bool),
	}
}

func (hub *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
	client := &SSEClient{
		ID:       uuid.New(),
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan SSEMessage, 16),
		done:     make(chan struct{}),
	}
	hub.AddChannel(client, UserChannel(userID))
	return client
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}

	client.Channels[channel] = true

	clients, exists := hub.subscriptions[channel]
	if !exists {
		clients = make(map[*SSEClient]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true

	hub.logger.Debug("SSE client subscribed", "clientID", client.ID, "channel", channel)
}

func (hub *SSEHub) RemoveChannel(client *SSEClient, channel string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	delete(client.Channels, channel)

	if subMap, ok := hub.subscriptions[channel]; ok {
		delete(subMap, client)
		if len(subMap) == 0 {
			delete(hub.subscriptions, channel)
		}
	}
	hub.logger.Debug("SSE client unsubscribed from channel", "clientID", client.ID, "channel", channel)
}

// SubscribeUser adds a channel to every open connection of a user. A user
// with no open connection is a no-op; the client resubscribes on reconnect.
func (hub *SSEHub) SubscribeUser(userID uuid.UUID, channel string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	for client := range hub.subscriptions[UserChannel(userID)] {
		client.Channels[channel] = true
		clients, exists := hub.subscriptions[channel]
		if !exists {
			clients = make(map[*SSEClient]bool)
			hub.subscriptions[channel] = clients
		}
		clients[client] = true
	}
}

func (hub *SSEHub) UnsubscribeUser(userID uuid.UUID, channel string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	for client := range hub.subscriptions[UserChannel(userID)] {
		delete(client.Channels, channel)
		if subMap, ok := hub.subscriptions[channel]; ok {
			delete(subMap, client)
			if len(subMap) == 0 {
				delete(hub.subscriptions, channel)
			}
		}
	}
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for ch := range client.Channels {
		if subMap, ok := hub.subscriptions[ch]; ok {
			delete(subMap, client)
			if len(subMap) == 0 {
				delete(hub.subscriptions, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
	hub.logger.Debug("SSE client unsubscribed from all channels", "clientID", client.ID)
}

// Broadcast delivers to every subscriber of the message's channel. Slow
// clients are skipped rather than blocking the sender.
func (hub *SSEHub) Broadcast(msg SSEMessage) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	clients, ok := hub.subscriptions[msg.Channel]
	if !ok {
		return
	}
	for client := range clients {
		select {
		case client.Outbound <- msg:
		default:
			hub.logger.Warn("SSE client outbound full, dropping event", "clientID", client.ID, "event", msg.Event)
		}
	}
}

func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.logger.Debug("SSE client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-client.Outbound:
			jsonBytes, err := json.Marshal(msg)
			if err != nil {
				hub.logger.Warn("Failed to marshal SSE message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", string(jsonBytes))
			flusher.Flush()
		}
	}
}

// NotifyUser publishes an event on a user's personal channel.
func (hub *SSEHub) NotifyUser(userID uuid.UUID, event SSEEvent, data any) {
	hub.Broadcast(SSEMessage{
		Channel: UserChannel(userID),
		Event:   event,
		Data:    data,
	})
}
