package stream

import (
	"sync"
	"time"
)

// ScanEvent is the live feed payload published for every accepted scan.
// Monitoring dashboards subscribe to see doors opening in real time.
type ScanEvent struct {
	PersonName string    `json:"person_name"`
	ReaderID   string    `json:"reader_id"`
	Zones      []string  `json:"zones"`
	Type       string    `json:"type"`
	Principal  bool      `json:"principal"`
	Timestamp  time.Time `json:"timestamp"`
}

// Feed fan-outs scan events to all active subscribers (SSE clients).
type Feed struct {
	mu   sync.RWMutex
	subs map[int]chan ScanEvent
	next int
}

// New initialises an empty feed.
func New() *Feed {
	return &Feed{subs: make(map[int]chan ScanEvent)}
}

// Publish delivers the event to every subscriber. Slow subscribers are
// skipped rather than blocking the scan path.
func (f *Feed) Publish(ev ScanEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel is buffered so a burst of scans does not
// stall the publisher.
func (f *Feed) Subscribe() (<-chan ScanEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	ch := make(chan ScanEvent, 16)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// SubscriberCount reports the number of active subscribers.
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
