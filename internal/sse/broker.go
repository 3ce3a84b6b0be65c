package sse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/keywordlock/serp-tracker/internal/logger"
)

// broker implements the Broker interface.
type broker struct {
	logger  logger.Logger
	clients map[string]*subscriber
	mu      sync.RWMutex

	// Event distribution
	publish chan Event

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Configuration
	eventBufferSize  int
	clientBufferSize int
	shutdownTimeout  time.Duration
	maxClients       int
}

// NewBroker creates a new SSE broker.
func NewBroker(log logger.Logger, opts ...BrokerOption) Broker {
	b := &broker{
		logger:           log,
		clients:          make(map[string]*subscriber),
		eventBufferSize:  DefaultEventBufferSize,
		clientBufferSize: DefaultClientBufferSize,
		shutdownTimeout:  DefaultShutdownTimeout,
		maxClients:       DefaultMaxClients,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.publish = make(chan Event, b.eventBufferSize)

	return b
}

// Start begins processing events.
func (b *broker) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.wg.Add(1)
	go b.broadcastLoop()

	b.logger.Info("SSE broker started",
		logger.Int("event_buffer_size", b.eventBufferSize),
		logger.Int("client_buffer_size", b.clientBufferSize),
		logger.Int("max_clients", b.maxClients),
	)

	return nil
}

// Stop gracefully shuts down the broker.
func (b *broker) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("SSE broker stopped gracefully")
	case <-time.After(b.shutdownTimeout):
		b.logger.Warn("SSE broker shutdown timeout exceeded")
	}

	return nil
}

// Publish sends an event to all connected clients.
func (b *broker) Publish(ctx context.Context, event Event) error {
	select {
	case b.publish <- event:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish cancelled: %w", ctx.Err())
	default:
		return fmt.Errorf("publish buffer full (dropped event: %s)", event.Type)
	}
}

// Subscribe creates a new SSE subscription.
func (b *broker) Subscribe(ctx context.Context, opts ...ClientOption) (events <-chan Event, cleanup func()) {
	clientOpts := ClientOptions{
		BufferSize: b.clientBufferSize,
	}

	for _, opt := range opts {
		opt(&clientOpts)
	}

	b.mu.RLock()
	currentClients := len(b.clients)
	b.mu.RUnlock()

	if b.maxClients > 0 && currentClients >= b.maxClients {
		b.logger.Warn("Max SSE clients reached, rejecting new connection",
			logger.Int("max_clients", b.maxClients),
			logger.Int("current_clients", currentClients),
		)
		// Return a closed channel to signal rejection
		closed := make(chan Event)
		close(closed)
		return closed, func() {}
	}

	c := newSubscriber(ctx, clientOpts.BufferSize, clientOpts.TaskID)

	b.mu.Lock()
	b.clients[c.id] = c
	b.mu.Unlock()

	b.logger.Debug("Client subscribed",
		logger.String("client_id", c.id),
		logger.Int("total_clients", b.ClientCount()),
	)

	b.wg.Add(1)
	go b.cleanupClient(c)

	cleanup = func() {
		b.removeClient(c.id)
	}

	return c.events, cleanup
}

// ClientCount returns the number of connected clients.
func (b *broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// broadcastLoop distributes events to all clients.
func (b *broker) broadcastLoop() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.publish:
			b.broadcast(event)
		case <-b.ctx.Done():
			b.disconnectAllClients()
			return
		}
	}
}

// broadcast sends an event to all subscribers (with task scoping).
func (b *broker) broadcast(event Event) {
	b.mu.RLock()
	clients := make([]*subscriber, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	sent := 0
	slowClients := make([]string, 0)

	for _, c := range clients {
		if c.deliver(event) {
			sent++
		} else {
			slowClients = append(slowClients, c.id)
		}
	}

	// Close slow clients
	for _, clientID := range slowClients {
		b.logger.Warn("Client buffer full, closing slow connection",
			logger.String("client_id", clientID),
			logger.String("event_type", event.Type),
		)
		b.removeClient(clientID)
	}

	if sent > 0 || len(slowClients) > 0 {
		b.logger.Debug("Event broadcast",
			logger.String("event_type", event.Type),
			logger.String("task_id", event.TaskID),
			logger.Int("sent", sent),
			logger.Int("dropped", len(slowClients)),
		)
	}
}

// cleanupClient waits for client context to be cancelled and removes it.
func (b *broker) cleanupClient(c *subscriber) {
	defer b.wg.Done()

	<-c.ctx.Done()

	b.removeClient(c.id)
}

// removeClient removes and closes a client.
func (b *broker) removeClient(clientID string) {
	b.mu.Lock()
	c, exists := b.clients[clientID]
	if exists {
		delete(b.clients, clientID)
	}
	b.mu.Unlock()

	if exists && c != nil {
		c.close()
		b.logger.Debug("Client disconnected",
			logger.String("client_id", clientID),
			logger.Int("total_clients", b.ClientCount()),
		)
	}
}

// disconnectAllClients closes all client connections.
func (b *broker) disconnectAllClients() {
	b.mu.Lock()
	clients := make([]*subscriber, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.clients = make(map[string]*subscriber)
	b.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	b.logger.Info("All SSE clients disconnected",
		logger.Int("count", len(clients)),
	)
}
