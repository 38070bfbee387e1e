package events

import (
	"sync"

	"go.uber.org/zap"
)

var _ EventStore = (*InMemoryEventStore)(nil)

// InMemoryEventStore keeps streams in memory and dispatches handlers
// asynchronously. With a retention limit the oldest events are evicted;
// a stream whose events are all evicted starts again at version 1.
type InMemoryEventStore struct {
	streams     map[string][]Event
	versions    map[string]int
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	position    int
	evicted     int
	retention   int
	allEvents   []Event
	logger      *zap.Logger
	handlers    sync.WaitGroup
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	return NewBoundedEventStore(logger, 0)
}

// NewBoundedEventStore keeps at most retention events; 0 keeps everything
func NewBoundedEventStore(logger *zap.Logger, retention int) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention < 0 {
		retention = 0
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		versions:    make(map[string]int),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		retention:   retention,
		logger:      logger,
	}
}

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.versions[streamID]++
	eventWithVersion := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: s.versions[streamID],
	}

	s.streams[streamID] = append(s.streams[streamID], eventWithVersion)
	s.allEvents = append(s.allEvents, eventWithVersion)
	s.position++
	s.evict()

	handlers := s.matchingHandlers(eventWithVersion.Type())
	s.handlers.Add(len(handlers))
	for _, h := range handlers {
		go func(h EventHandler, e Event) {
			defer s.handlers.Done()
			if err := h.Handle(e); err != nil {
				s.logger.Warn("event handler failed",
					zap.String("event", e.Type()),
					zap.String("stream", e.StreamID()),
					zap.Error(err))
			}
		}(h, eventWithVersion)
	}

	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	for i, e := range events {
		if e.Version() >= fromVersion {
			return append([]Event(nil), events[i:]...), nil
		}
	}
	return []Event{}, nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	// positions keep counting across evictions
	index := fromPosition - s.evicted
	if index < 0 {
		index = 0
	}

	if index >= len(s.allEvents) {
		return []Event{}, nil
	}

	return append([]Event(nil), s.allEvents[index:]...), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		if s.subscribers[eventType] == nil {
			s.subscribers[eventType] = make([]EventHandler, 0)
		}
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		newHandlers := make([]EventHandler, 0)
		for _, h := range handlers {
			if h != handler {
				newHandlers = append(newHandlers, h)
			}
		}
		s.subscribers[eventType] = newHandlers
	}

	return nil
}

// evict drops the oldest events past the retention limit. It must be
// called with the mutex held.
func (s *InMemoryEventStore) evict() {
	if s.retention == 0 {
		return
	}
	for len(s.allEvents) > s.retention {
		oldest := s.allEvents[0]
		s.allEvents[0] = nil
		s.allEvents = s.allEvents[1:]
		s.evicted++

		stream := s.streams[oldest.StreamID()]
		if len(stream) <= 1 {
			delete(s.streams, oldest.StreamID())
			delete(s.versions, oldest.StreamID())
			continue
		}
		stream[0] = nil
		s.streams[oldest.StreamID()] = stream[1:]
	}
}

// matchingHandlers must be called with the mutex held
func (s *InMemoryEventStore) matchingHandlers(eventType string) []EventHandler {
	var handlers []EventHandler
	for _, h := range s.subscribers[eventType] {
		if h.CanHandle(eventType) {
			handlers = append(handlers, h)
		}
	}
	return handlers
}

// Wait blocks until every dispatched handler has returned
func (s *InMemoryEventStore) Wait() {
	s.handlers.Wait()
}
