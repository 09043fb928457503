package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pointage.org/internal/access"
)

// Store implements access.Store on PostgreSQL. All directory and topology
// reads are plain snapshot queries; the clock event insert runs inside an
// explicit transaction so a failed scan never leaves a partial row.
type Store struct {
	db *sql.DB
}

var _ access.Store = (*Store)(nil)

// Open connects to PostgreSQL using the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle; tests use this with sqlmock.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Person(ctx context.Context, id string) (*access.Person, error) {
	var p access.Person
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id, first_name, last_name
		from people where id=$1
	`, id).Scan(&p.ID, &p.OrganizationID, &p.FirstName, &p.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, access.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CredentialByNumber(ctx context.Context, number string) (*access.Credential, error) {
	var c access.Credential
	var expires sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		select id, number, kind, created_at, expires_at
		from credentials where number=$1
	`, number).Scan(&c.ID, &c.Number, &c.Kind, &c.CreatedAt, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, access.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}

func (s *Store) OwnerOf(ctx context.Context, credentialID string) (*access.Person, error) {
	var p access.Person
	err := s.db.QueryRowContext(ctx, `
		select p.id, p.organization_id, p.first_name, p.last_name
		from people p
		join credential_owners co on co.person_id = p.id
		where co.credential_id=$1 and co.released_at is null
	`, credentialID).Scan(&p.ID, &p.OrganizationID, &p.FirstName, &p.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, access.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Reader(ctx context.Context, id string) (*access.Reader, error) {
	var r access.Reader
	err := s.db.QueryRowContext(ctx, `
		select id, name from readers where id=$1
	`, id).Scan(&r.ID, &r.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, access.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ReaderZones(ctx context.Context, readerID string) ([]access.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `
		select z.id, z.name, z.capacity
		from zones z
		join reader_links rl on rl.zone_id = z.id
		where rl.reader_id=$1
		order by z.name asc
	`, readerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []access.Zone
	for rows.Next() {
		var z access.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.Capacity); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (s *Store) ActiveAssignments(ctx context.Context, personID string) ([]access.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		select ou.id, ou.name, ou.principal, a.person_principal
		from assignments a
		join org_units ou on ou.id = a.org_unit_id
		where a.person_id=$1 and a.ended_at is null
	`, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []access.Assignment
	for rows.Next() {
		var a access.Assignment
		if err := rows.Scan(&a.OrgUnitID, &a.OrgUnitName, &a.OrgUnitPrincipal, &a.PersonPrincipal); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ZoneGrants(ctx context.Context, orgUnitID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select zone_id from zone_grants where org_unit_id=$1
	`, orgUnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var zoneID string
		if err := rows.Scan(&zoneID); err != nil {
			return nil, err
		}
		out = append(out, zoneID)
	}
	return out, rows.Err()
}

func (s *Store) AppendEvent(ctx context.Context, ev *access.ClockEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into clock_events(id, credential_id, person_id, reader_id, occurred_at, type)
		values ($1,$2,$3,$4,$5,$6)
	`, ev.ID, ev.CredentialID, ev.PersonID, ev.ReaderID, ev.OccurredAt.UTC(), string(ev.Type)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) EventsBetween(ctx context.Context, personID string, from, to time.Time) ([]access.ClockEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, credential_id, person_id, reader_id, occurred_at, type
		from clock_events
		where person_id=$1 and occurred_at >= $2 and occurred_at < $3
		order by occurred_at asc
	`, personID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []access.ClockEvent
	for rows.Next() {
		var ev access.ClockEvent
		var typ string
		if err := rows.Scan(&ev.ID, &ev.CredentialID, &ev.PersonID, &ev.ReaderID, &ev.OccurredAt, &typ); err != nil {
			return nil, err
		}
		ev.Type = access.EventType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}
