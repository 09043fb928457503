package access

import (
	"context"
	"time"
)

// Engine evaluates scans against the directory/topology state held in its
// Store and derives presence and worked time from the clock event log. It is
// stateless apart from the store: every answer is recomputed from the log.
type Engine struct {
	store Store
	now   func() time.Time
	loc   *time.Location
}

// Option configures Engine behavior.
type Option func(*Engine)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) {
		if fn != nil {
			e.now = fn
		}
	}
}

// WithLocation sets the location used for day boundaries. Presence resets at
// local midnight, so the location decides where "today" starts.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine constructs an engine over the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// today returns the local midnight boundaries around the current instant.
func (e *Engine) today() (start, end time.Time) {
	now := e.now().In(e.loc)
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)
	return start, start.AddDate(0, 0, 1)
}

// zoneProfile is the person's authorization surface: every zone granted
// through an active assignment, and the subset granted through assignments
// whose organizational unit is flagged principal within its organization.
type zoneProfile struct {
	granted          map[string]struct{}
	principal        map[string]struct{}
	hasPrincipalUnit bool
}

func (e *Engine) zoneProfile(ctx context.Context, personID string) (zoneProfile, error) {
	profile := zoneProfile{
		granted:   make(map[string]struct{}),
		principal: make(map[string]struct{}),
	}
	assignments, err := e.store.ActiveAssignments(ctx, personID)
	if err != nil {
		return profile, internalErr(err)
	}
	for _, a := range assignments {
		if a.OrgUnitPrincipal {
			profile.hasPrincipalUnit = true
		}
		grants, err := e.store.ZoneGrants(ctx, a.OrgUnitID)
		if err != nil {
			return profile, internalErr(err)
		}
		for _, zoneID := range grants {
			profile.granted[zoneID] = struct{}{}
			if a.OrgUnitPrincipal {
				profile.principal[zoneID] = struct{}{}
			}
		}
	}
	return profile, nil
}

func intersects(zones []Zone, set map[string]struct{}) bool {
	for _, z := range zones {
		if _, ok := set[z.ID]; ok {
			return true
		}
	}
	return false
}

// zoneIndex memoizes reader -> zone lookups while classifying a batch of
// events that often share a handful of readers.
type zoneIndex struct {
	store Store
	cache map[string][]Zone
}

func newZoneIndex(store Store) *zoneIndex {
	return &zoneIndex{store: store, cache: make(map[string][]Zone)}
}

func (idx *zoneIndex) zonesOf(ctx context.Context, readerID string) ([]Zone, error) {
	if zones, ok := idx.cache[readerID]; ok {
		return zones, nil
	}
	zones, err := idx.store.ReaderZones(ctx, readerID)
	if err != nil {
		return nil, err
	}
	idx.cache[readerID] = zones
	return zones, nil
}

// isPrincipalEvent reports whether an event's reader opens at least one zone
// granted to a unit-flagged-principal assignment of the person.
func (idx *zoneIndex) isPrincipalEvent(ctx context.Context, ev ClockEvent, profile zoneProfile) (bool, error) {
	zones, err := idx.zonesOf(ctx, ev.ReaderID)
	if err != nil {
		return false, err
	}
	return intersects(zones, profile.principal), nil
}
