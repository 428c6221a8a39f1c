package telemetry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a wait lifecycle event.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// WaitID is the associated wait ID, if applicable.
	WaitID string `json:"wait_id,omitempty"`

	// Target is the wait target (address, path, URL), if applicable.
	Target string `json:"target,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeWaitStarted  = "wait.started"
	EventTypeWaitAttempt  = "wait.attempt"
	EventTypeWaitResolved = "wait.resolved"
	EventTypeWaitFailed   = "wait.failed"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventPublisher manages async event publishing and subscriptions. Events
// are buffered; when the buffer is full, new events are dropped rather than
// blocking the wait loop that produced them.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []EventSubscriber
	wg          sync.WaitGroup
	mu          sync.RWMutex
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	ep := &EventPublisher{config: cfg}
	if !cfg.Enabled {
		return ep, nil
	}

	ep.buffer = make(chan Event, cfg.BufferSize)
	ep.done = make(chan struct{})

	ep.wg.Add(1)
	go ep.dispatch()

	return ep, nil
}

func (ep *EventPublisher) dispatch() {
	defer ep.wg.Done()
	for {
		select {
		case ev := <-ep.buffer:
			ep.deliver(ev)
		case <-ep.done:
			// Drain whatever is left before exiting
			for {
				select {
				case ev := <-ep.buffer:
					ep.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (ep *EventPublisher) deliver(ev Event) {
	ep.mu.RLock()
	subs := ep.subscribers
	ep.mu.RUnlock()
	for _, sub := range subs {
		sub(ev)
	}
}

// Subscribe registers a subscriber for all events.
func (ep *EventPublisher) Subscribe(sub EventSubscriber) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.subscribers = append(ep.subscribers, sub)
}

// Publish emits an event. It never blocks: events are dropped when the
// buffer is full or publishing is disabled.
func (ep *EventPublisher) Publish(eventType, waitID, target, message, level string, data map[string]interface{}) {
	if ep.buffer == nil {
		return
	}

	ev := Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Type:      eventType,
		WaitID:    waitID,
		Target:    target,
		Message:   message,
		Level:     level,
		Data:      data,
	}

	select {
	case ep.buffer <- ev:
	default:
	}
}

// PublishWaitStarted emits a wait.started event.
func (ep *EventPublisher) PublishWaitStarted(waitID, target string) {
	ep.Publish(EventTypeWaitStarted, waitID, target, "wait started", EventLevelInfo, nil)
}

// PublishWaitResolved emits a wait.resolved event.
func (ep *EventPublisher) PublishWaitResolved(waitID, target string, attempts int, elapsed time.Duration) {
	ep.Publish(EventTypeWaitResolved, waitID, target, "wait resolved", EventLevelInfo,
		map[string]interface{}{"attempts": attempts, "elapsed": elapsed.String()})
}

// PublishWaitFailed emits a wait.failed event.
func (ep *EventPublisher) PublishWaitFailed(waitID, target string, err error, attempts int, elapsed time.Duration) {
	ep.Publish(EventTypeWaitFailed, waitID, target, err.Error(), EventLevelError,
		map[string]interface{}{"attempts": attempts, "elapsed": elapsed.String()})
}

// Close stops the dispatcher after draining buffered events.
func (ep *EventPublisher) Close() {
	if ep.done == nil {
		return
	}
	ep.closeOnce.Do(func() {
		close(ep.done)
	})
	ep.wg.Wait()
}
