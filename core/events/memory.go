package events

import "sync"

// MemoryEmitter retains every emitted event in order. It backs the RPC event
// tail and keeps engine tests deterministic.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []*Event
	limit  int
}

// NewMemoryEmitter returns an emitter that keeps at most limit events,
// discarding the oldest once the cap is reached. A non-positive limit keeps
// everything.
func NewMemoryEmitter(limit int) *MemoryEmitter {
	return &MemoryEmitter{limit: limit}
}

// Emit implements the Emitter interface.
func (m *MemoryEmitter) Emit(evt *Event) {
	if m == nil || evt == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	if m.limit > 0 && len(m.events) > m.limit {
		m.events = m.events[len(m.events)-m.limit:]
	}
}

// Events returns a snapshot of the retained events.
func (m *MemoryEmitter) Events() []*Event {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}
