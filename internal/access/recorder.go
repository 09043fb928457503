package access

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pointage.org/internal/ids"
)

// Record converts a scan (badge number presented at a reader) into a
// persisted clock event. requestedType selects explicit mode when non-empty
// ("entrée"/"sortie"/"accès", accents and case ignored, or the canonical
// entry/exit/access); an empty type switches to inferred mode where
// principal-zone scans toggle the presence state and secondary scans record
// plain access. orgScope applies tenant isolation as in Authorize.
//
// A rejected scan writes nothing: the single event insert is the only
// mutation and it happens after every check has passed.
func (e *Engine) Record(ctx context.Context, orgScope, credentialNumber, readerID, requestedType string) (ScanResult, error) {
	var explicit EventType
	if requestedType != "" {
		var ok bool
		if explicit, ok = normalizeType(requestedType); !ok {
			return ScanResult{}, ErrInvalidType.withMessage("unknown clock event type %q", requestedType)
		}
	}

	now := e.now()
	cred, err := e.store.CredentialByNumber(ctx, strings.TrimSpace(credentialNumber))
	if err != nil {
		return ScanResult{}, translateNotFound(err, ErrBadgeNotFound)
	}
	if cred.Expired(now) {
		return ScanResult{}, ErrBadgeExpired
	}
	person, err := e.store.OwnerOf(ctx, cred.ID)
	if err != nil {
		return ScanResult{}, translateNotFound(err, ErrUserNotFound)
	}
	if _, err := e.store.Reader(ctx, readerID); err != nil {
		return ScanResult{}, translateNotFound(err, ErrReaderNotFound)
	}

	dec, err := e.Authorize(ctx, orgScope, person.ID, readerID)
	if err != nil {
		return ScanResult{}, err
	}

	profile, err := e.zoneProfile(ctx, person.ID)
	if err != nil {
		return ScanResult{}, err
	}
	wasPresent, err := e.presentToday(ctx, person.ID, profile)
	if err != nil {
		return ScanResult{}, err
	}

	evType := explicit
	if evType == "" {
		// Inferred mode: secondary zones record plain access; principal
		// zones toggle presence on every scan.
		switch {
		case !dec.PrincipalZone:
			evType = TypeAccess
		case wasPresent:
			evType = TypeExit
		default:
			evType = TypeEntry
		}
	}

	ev := ClockEvent{
		ID:           ids.New(),
		CredentialID: cred.ID,
		PersonID:     person.ID,
		ReaderID:     readerID,
		OccurredAt:   now,
		Type:         evType,
	}
	if err := e.store.AppendEvent(ctx, &ev); err != nil {
		return ScanResult{}, internalErr(err)
	}

	zones, err := e.store.ReaderZones(ctx, readerID)
	if err != nil {
		return ScanResult{}, internalErr(err)
	}
	names := make([]string, 0, len(zones))
	for _, z := range zones {
		names = append(names, z.Name)
	}

	status := wasPresent
	if dec.PrincipalZone {
		switch evType {
		case TypeEntry:
			status = true
		case TypeExit:
			status = false
		}
	}

	return ScanResult{
		Event:         ev,
		PersonID:      person.ID,
		PersonName:    person.FullName(),
		ZoneNames:     names,
		PrincipalZone: dec.PrincipalZone,
		PriorStatus:   statusLabel(wasPresent),
		Status:        statusLabel(status),
		Message:       scanMessage(evType, dec.PrincipalZone, status),
	}, nil
}

func scanMessage(t EventType, principal, present bool) string {
	if !principal {
		return fmt.Sprintf("secondary-service access recorded; principal status unchanged: %s", statusLabel(present))
	}
	switch t {
	case TypeEntry:
		return fmt.Sprintf("entry into principal service recorded; status: %s", statusLabel(present))
	case TypeExit:
		return fmt.Sprintf("exit from principal service recorded; status: %s", statusLabel(present))
	default:
		return fmt.Sprintf("principal-service access recorded; status: %s", statusLabel(present))
	}
}

var typeAliases = map[string]EventType{
	"entree": TypeEntry,
	"entry":  TypeEntry,
	"sortie": TypeExit,
	"exit":   TypeExit,
	"acces":  TypeAccess,
	"access": TypeAccess,
}

// normalizeType folds case and diacritics so kiosks may send the French
// labels verbatim: "Entrée" and "entree" both map to entry.
func normalizeType(raw string) (EventType, bool) {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(strings.TrimSpace(raw)),
	)
	if err != nil {
		return "", false
	}
	t, ok := typeAliases[folded]
	return t, ok
}
