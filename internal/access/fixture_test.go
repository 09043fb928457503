package access

import (
	"context"
	"testing"
	"time"
)

// The standard scenario used across the engine tests: one person in org-1
// with a principal assignment to the front-office unit (granting the office
// zone) and a secondary assignment to the lab unit (granting the lab zone).
// One reader per zone, one valid badge.
type fixture struct {
	store *InMemory
	eng   *Engine
	now   time.Time
}

const (
	fxPerson       = "p1"
	fxOrg          = "org-1"
	fxBadge        = "1001"
	fxCredential   = "cred-1"
	fxOfficeUnit   = "unit-office"
	fxLabUnit      = "unit-lab"
	fxOfficeZone   = "z-office"
	fxLabZone      = "z-lab"
	fxOfficeReader = "r-office"
	fxLabReader    = "r-lab"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewInMemory()
	now := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)

	store.AddPerson(Person{ID: fxPerson, OrganizationID: fxOrg, FirstName: "Nadia", LastName: "Charlet"})
	store.AddCredential(Credential{ID: fxCredential, Number: fxBadge, Kind: "rfid", CreatedAt: now.AddDate(-1, 0, 0)}, fxPerson)
	store.AddReader(Reader{ID: fxOfficeReader, Name: "Front office door"}, Zone{ID: fxOfficeZone, Name: "Front office", Capacity: 40})
	store.AddReader(Reader{ID: fxLabReader, Name: "Lab door"}, Zone{ID: fxLabZone, Name: "Lab", Capacity: 12})
	store.AddAssignment(fxPerson, Assignment{OrgUnitID: fxOfficeUnit, OrgUnitName: "Front office", OrgUnitPrincipal: true, PersonPrincipal: true})
	store.AddAssignment(fxPerson, Assignment{OrgUnitID: fxLabUnit, OrgUnitName: "Lab", OrgUnitPrincipal: false, PersonPrincipal: false})
	store.Grant(fxOfficeUnit, fxOfficeZone)
	store.Grant(fxLabUnit, fxLabZone)

	fx := &fixture{store: store, now: now}
	fx.eng = NewEngine(store,
		WithClock(func() time.Time { return fx.now }),
		WithLocation(time.UTC),
	)
	return fx
}

// at builds a timestamp on the fixture's current day.
func (fx *fixture) at(hour, min int) time.Time {
	return time.Date(fx.now.Year(), fx.now.Month(), fx.now.Day(), hour, min, 0, 0, time.UTC)
}

func (fx *fixture) appendEvent(t *testing.T, readerID string, at time.Time, typ EventType) {
	t.Helper()
	err := fx.store.AppendEvent(context.Background(), &ClockEvent{
		ID:           "ev-" + at.Format("20060102T150405"),
		CredentialID: fxCredential,
		PersonID:     fxPerson,
		ReaderID:     readerID,
		OccurredAt:   at,
		Type:         typ,
	})
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
}
