package access

import (
	"context"
	"errors"
)

// Authorize decides whether a person may use a reader right now. orgScope is
// the caller's organization when the check runs in an administrative context;
// an empty scope skips tenant isolation. The function is a pure decision over
// current directory/topology/event-log state and records nothing.
//
// Rejections return both a Decision carrying the reason (and the
// requires_principal hint for the secondary gate) and the matching domain
// error.
func (e *Engine) Authorize(ctx context.Context, orgScope, personID, readerID string) (Decision, error) {
	person, err := e.store.Person(ctx, personID)
	if err != nil {
		return Decision{}, translateNotFound(err, ErrUserNotFound)
	}
	if orgScope != "" && person.OrganizationID != orgScope {
		return reject(ErrAccessDenied, false)
	}

	if _, err := e.store.Reader(ctx, readerID); err != nil {
		return Decision{}, translateNotFound(err, ErrReaderNotFound)
	}
	zones, err := e.store.ReaderZones(ctx, readerID)
	if err != nil {
		return Decision{}, internalErr(err)
	}
	if len(zones) == 0 {
		return reject(ErrNoZonesConfigured, false)
	}

	profile, err := e.zoneProfile(ctx, personID)
	if err != nil {
		return Decision{}, err
	}
	if !intersects(zones, profile.granted) {
		return reject(ErrZoneAccessDenied, false)
	}
	principalZone := intersects(zones, profile.principal)

	// Secondary zones are reachable only while clocked in at the principal
	// service. The caller is told to prompt for a principal entry first.
	if !principalZone {
		present, err := e.presentToday(ctx, personID, profile)
		if err != nil {
			return Decision{}, err
		}
		if !present {
			dec, err := reject(ErrSecondaryAccessDenied, false)
			dec.RequiresPrincipal = true
			return dec, err
		}
	}

	return Decision{Allowed: true, PrincipalZone: principalZone}, nil
}

func reject(domainErr *Error, principalZone bool) (Decision, error) {
	return Decision{
		Allowed:       false,
		PrincipalZone: principalZone,
		Reason:        domainErr.Code,
	}, domainErr
}

// translateNotFound maps a store miss to the call-site domain code and wraps
// everything else as an internal failure.
func translateNotFound(err error, notFound *Error) error {
	if errors.Is(err, ErrNotFound) {
		return notFound
	}
	return internalErr(err)
}
