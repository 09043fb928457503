package access

import "context"

// CurrentStatus derives the person's presence state from today's clock
// events. Presence is scoped to the current local day: an unmatched entry
// from a previous day never carries over.
func (e *Engine) CurrentStatus(ctx context.Context, personID string) (WorkingStatus, error) {
	return e.status(ctx, personID, false)
}

// WorkingStatus is CurrentStatus plus the open session start and today's
// worked minutes. It fails with NO_PRINCIPAL_SERVICE when the person has no
// active assignment to a principal-flagged unit, because no zone could ever
// open or close a session for them.
func (e *Engine) WorkingStatus(ctx context.Context, personID string) (WorkingStatus, error) {
	return e.status(ctx, personID, true)
}

func (e *Engine) status(ctx context.Context, personID string, working bool) (WorkingStatus, error) {
	if _, err := e.store.Person(ctx, personID); err != nil {
		return WorkingStatus{}, translateNotFound(err, ErrUserNotFound)
	}
	profile, err := e.zoneProfile(ctx, personID)
	if err != nil {
		return WorkingStatus{}, err
	}
	if working && !profile.hasPrincipalUnit {
		return WorkingStatus{}, ErrNoPrincipalService
	}

	dayStart, dayEnd := e.today()
	events, err := e.store.EventsBetween(ctx, personID, dayStart, dayEnd)
	if err != nil {
		return WorkingStatus{}, internalErr(err)
	}

	idx := newZoneIndex(e.store)
	present := false
	var lastAction *Action
	var sessionStart *ClockEvent

	for i := range events {
		ev := events[i]
		if ev.Type != TypeEntry && ev.Type != TypeExit {
			continue
		}
		principal, err := idx.isPrincipalEvent(ctx, ev, profile)
		if err != nil {
			return WorkingStatus{}, internalErr(err)
		}
		lastAction = &Action{
			At:            ev.OccurredAt,
			Type:          ev.Type,
			ReaderID:      ev.ReaderID,
			PrincipalZone: principal,
			AffectsStatus: principal,
		}
		if !principal {
			continue
		}
		switch ev.Type {
		case TypeEntry:
			present = true
			if sessionStart == nil {
				sessionStart = &events[i]
			}
		case TypeExit:
			present = false
			sessionStart = nil
		}
	}

	out := WorkingStatus{
		Status: Status{
			PersonID:           personID,
			Present:            present,
			Status:             statusLabel(present),
			LastAction:         lastAction,
			CanAccessSecondary: present,
		},
	}
	if !working {
		return out, nil
	}

	if sessionStart != nil {
		start := sessionStart.OccurredAt
		out.CurrentSessionStart = &start
	}
	minutes, err := e.workedRange(ctx, personID, profile, dayStart, dayEnd)
	if err != nil {
		return WorkingStatus{}, err
	}
	out.TodayWorkedMinutes = minutes
	return out, nil
}

// presentToday is the cheap form used by the secondary-access gate: present
// iff the most recent principal-zone entry/exit event today is an entry.
func (e *Engine) presentToday(ctx context.Context, personID string, profile zoneProfile) (bool, error) {
	dayStart, dayEnd := e.today()
	events, err := e.store.EventsBetween(ctx, personID, dayStart, dayEnd)
	if err != nil {
		return false, internalErr(err)
	}
	idx := newZoneIndex(e.store)
	present := false
	for _, ev := range events {
		if ev.Type != TypeEntry && ev.Type != TypeExit {
			continue
		}
		principal, err := idx.isPrincipalEvent(ctx, ev, profile)
		if err != nil {
			return false, internalErr(err)
		}
		if !principal {
			continue
		}
		present = ev.Type == TypeEntry
	}
	return present, nil
}

func statusLabel(present bool) string {
	if present {
		return statusPresent
	}
	return statusAbsent
}
