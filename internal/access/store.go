package access

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store implementations for missing rows. The
// engine translates it into the operation-specific domain code at each call
// site (BADGE_NOT_FOUND, USER_NOT_FOUND, ...).
var ErrNotFound = errors.New("access: not found")

// Store is the persistence boundary of the engine. Directory and topology
// reads are snapshot reads; AppendEvent is the only mutation and must be
// all-or-nothing.
type Store interface {
	// Person resolves a directory entry by id.
	Person(ctx context.Context, id string) (*Person, error)

	// CredentialByNumber resolves a badge by its printed number.
	CredentialByNumber(ctx context.Context, number string) (*Credential, error)

	// OwnerOf resolves the person currently holding a credential.
	OwnerOf(ctx context.Context, credentialID string) (*Person, error)

	// Reader resolves a reader device by id.
	Reader(ctx context.Context, id string) (*Reader, error)

	// ReaderZones lists the zones a reader opens.
	ReaderZones(ctx context.Context, readerID string) ([]Zone, error)

	// ActiveAssignments lists the person's assignments with no end date.
	ActiveAssignments(ctx context.Context, personID string) ([]Assignment, error)

	// ZoneGrants lists the zone ids granted to an organizational unit.
	ZoneGrants(ctx context.Context, orgUnitID string) ([]string, error)

	// AppendEvent persists a clock event. Implementations must not leave a
	// partially recorded event behind on failure.
	AppendEvent(ctx context.Context, ev *ClockEvent) error

	// EventsBetween returns the person's events with from <= occurred_at < to,
	// ordered by occurred_at ascending.
	EventsBetween(ctx context.Context, personID string, from, to time.Time) ([]ClockEvent, error)
}
