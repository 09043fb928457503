package access

import "time"

// EventType classifies a clock event.
type EventType string

const (
	TypeEntry  EventType = "entry"
	TypeExit   EventType = "exit"
	TypeAccess EventType = "access"
)

// Person is a badge holder known to the directory.
type Person struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
}

// FullName returns the display name used in scan responses.
func (p Person) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// Assignment is a person's currently active link to an organizational unit.
// The two principal flags are deliberately distinct fields: OrgUnitPrincipal
// is a property of the unit within its organization and decides whether the
// unit's zones count as principal-zone activity; PersonPrincipal marks the
// assignment that anchors the person in the directory. They must never be
// substituted for one another.
type Assignment struct {
	OrgUnitID        string `json:"org_unit_id"`
	OrgUnitName      string `json:"org_unit_name"`
	OrgUnitPrincipal bool   `json:"org_unit_principal"`
	PersonPrincipal  bool   `json:"person_principal"`
}

// Zone is a physical area opened by one or more readers.
type Zone struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Reader is a badge reader device mounted at an entry point.
type Reader struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Credential is the badge presented at a reader. The kind describes the badge
// technology only and plays no part in authorization.
type Credential struct {
	ID        string     `json:"id"`
	Number    string     `json:"number"`
	Kind      string     `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the credential expiry has passed at the given instant.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// ClockEvent is the immutable record produced by one authorized scan. Events
// are append-only and never mutated; all presence and worked-time state is
// recomputed from this log.
type ClockEvent struct {
	ID           string    `json:"id"`
	CredentialID string    `json:"credential_id"`
	PersonID     string    `json:"person_id"`
	ReaderID     string    `json:"reader_id"`
	OccurredAt   time.Time `json:"occurred_at"`
	Type         EventType `json:"type"`
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed           bool   `json:"allowed"`
	PrincipalZone     bool   `json:"principal_zone"`
	RequiresPrincipal bool   `json:"requires_principal,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// ScanResult is returned for every recorded scan.
type ScanResult struct {
	Event         ClockEvent `json:"event"`
	PersonID      string     `json:"person_id"`
	PersonName    string     `json:"person_name"`
	ZoneNames     []string   `json:"zone_names"`
	PrincipalZone bool       `json:"principal_zone"`
	PriorStatus   string     `json:"prior_status"`
	Status        string     `json:"status"`
	Message       string     `json:"message"`
}

// Action describes the person's most recent entry/exit event of the day,
// kept for display purposes only.
type Action struct {
	At            time.Time `json:"at"`
	Type          EventType `json:"type"`
	ReaderID      string    `json:"reader_id"`
	PrincipalZone bool      `json:"principal_zone"`
	AffectsStatus bool      `json:"affects_status"`
}

// Status is the person's derived presence state for today.
type Status struct {
	PersonID           string  `json:"person_id"`
	Status             string  `json:"status"` // "present" or "absent"
	Present            bool    `json:"present"`
	LastAction         *Action `json:"last_action,omitempty"`
	CanAccessSecondary bool    `json:"can_access_secondary"`
}

// WorkingStatus extends Status with the open session and today's total.
type WorkingStatus struct {
	Status
	CurrentSessionStart *time.Time `json:"current_session_start,omitempty"`
	TodayWorkedMinutes  float64    `json:"today_worked_minutes"`
}

// TimesheetEntry is one event row in a day's display list. InProgress rows are
// synthetic: they mark a session that is still open at query time.
type TimesheetEntry struct {
	At            time.Time `json:"at"`
	Type          EventType `json:"type"`
	ReaderID      string    `json:"reader_id"`
	PrincipalZone bool      `json:"principal_zone"`
	InProgress    bool      `json:"in_progress,omitempty"`
}

// DaySheet aggregates one calendar day.
type DaySheet struct {
	Date         string           `json:"date"`
	TotalMinutes float64          `json:"total_minutes"`
	TotalHours   float64          `json:"total_hours"`
	Entries      []TimesheetEntry `json:"entries"`
}

// Timesheet is the worked-time summary over a date range.
type Timesheet struct {
	PersonID     string     `json:"person_id"`
	Start        string     `json:"start"`
	End          string     `json:"end"`
	TotalMinutes float64    `json:"total_minutes"`
	TotalHours   float64    `json:"total_hours"`
	Days         []DaySheet `json:"days"`
}

const (
	statusPresent = "present"
	statusAbsent  = "absent"
)
