package access

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. It backs the
// engine tests and demo deployments; production uses the Postgres store.
type InMemory struct {
	mu          sync.RWMutex
	people      map[string]Person
	credentials map[string]Credential // keyed by number
	owners      map[string]string     // credential id -> person id
	readers     map[string]Reader
	readerZones map[string][]Zone
	assignments map[string][]Assignment // person id -> active assignments
	grants      map[string][]string     // org unit id -> zone ids
	events      []ClockEvent
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		people:      make(map[string]Person),
		credentials: make(map[string]Credential),
		owners:      make(map[string]string),
		readers:     make(map[string]Reader),
		readerZones: make(map[string][]Zone),
		assignments: make(map[string][]Assignment),
		grants:      make(map[string][]string),
	}
}

// --- fixture setters ---

func (s *InMemory) AddPerson(p Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people[p.ID] = p
}

func (s *InMemory) AddCredential(c Credential, ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[c.Number] = c
	if ownerID != "" {
		s.owners[c.ID] = ownerID
	}
}

func (s *InMemory) AddReader(r Reader, zones ...Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers[r.ID] = r
	s.readerZones[r.ID] = append([]Zone(nil), zones...)
}

func (s *InMemory) AddAssignment(personID string, a Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[personID] = append(s.assignments[personID], a)
}

func (s *InMemory) Grant(orgUnitID string, zoneIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[orgUnitID] = append(s.grants[orgUnitID], zoneIDs...)
}

// EventCount reports the log length; tests use it to verify that rejected
// scans write nothing.
func (s *InMemory) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// --- Store ---

func (s *InMemory) Person(ctx context.Context, id string) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.people[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *InMemory) CredentialByNumber(ctx context.Context, number string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentials[number]
	if !ok {
		return nil, ErrNotFound
	}
	out := c
	return &out, nil
}

func (s *InMemory) OwnerOf(ctx context.Context, credentialID string) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	personID, ok := s.owners[credentialID]
	if !ok {
		return nil, ErrNotFound
	}
	p, ok := s.people[personID]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *InMemory) Reader(ctx context.Context, id string) (*Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readers[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := r
	return &out, nil
}

func (s *InMemory) ReaderZones(ctx context.Context, readerID string) ([]Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Zone(nil), s.readerZones[readerID]...), nil
}

func (s *InMemory) ActiveAssignments(ctx context.Context, personID string) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Assignment(nil), s.assignments[personID]...), nil
}

func (s *InMemory) ZoneGrants(ctx context.Context, orgUnitID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.grants[orgUnitID]...), nil
}

func (s *InMemory) AppendEvent(ctx context.Context, ev *ClockEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *ev)
	return nil
}

func (s *InMemory) EventsBetween(ctx context.Context, personID string, from, to time.Time) ([]ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ClockEvent
	for _, ev := range s.events {
		if ev.PersonID != personID {
			continue
		}
		if ev.OccurredAt.Before(from) || !ev.OccurredAt.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}
