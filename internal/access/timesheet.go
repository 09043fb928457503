package access

import (
	"context"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// WorkedTime aggregates the person's clock events over [start, end] (both
// inclusive, formatted YYYY-MM-DD) into per-day and period totals. Pairing
// uses principal-zone events only; the display list carries every event,
// annotated with its zone class.
func (e *Engine) WorkedTime(ctx context.Context, personID, start, end string) (Timesheet, error) {
	startDay, err := time.ParseInLocation(dateLayout, start, e.loc)
	if err != nil {
		return Timesheet{}, ErrInvalidDateFormat
	}
	endDay, err := time.ParseInLocation(dateLayout, end, e.loc)
	if err != nil {
		return Timesheet{}, ErrInvalidDateFormat
	}
	if startDay.After(endDay) {
		return Timesheet{}, ErrInvalidDateRange
	}

	if _, err := e.store.Person(ctx, personID); err != nil {
		return Timesheet{}, translateNotFound(err, ErrUserNotFound)
	}
	profile, err := e.zoneProfile(ctx, personID)
	if err != nil {
		return Timesheet{}, err
	}

	rangeEnd := endDay.AddDate(0, 0, 1)
	events, err := e.store.EventsBetween(ctx, personID, startDay, rangeEnd)
	if err != nil {
		return Timesheet{}, internalErr(err)
	}

	sheet := Timesheet{PersonID: personID, Start: start, End: end}
	idx := newZoneIndex(e.store)
	now := e.now().In(e.loc)

	var day *DaySheet
	var openEntry *time.Time
	var dayDate time.Time

	flush := func() {
		if day == nil {
			return
		}
		// A session still open at end of day is credited only when the day is
		// today and the requested range reaches the current instant. Stale
		// open sessions from past days contribute nothing: the engine does
		// not guess when the person actually left.
		if openEntry != nil && sameDay(dayDate, now) && !rangeEnd.Before(now) {
			day.TotalMinutes += now.Sub(*openEntry).Minutes()
			day.Entries = append(day.Entries, TimesheetEntry{
				At:            *openEntry,
				Type:          TypeEntry,
				PrincipalZone: true,
				InProgress:    true,
			})
		}
		day.TotalHours = roundHours(day.TotalMinutes)
		sheet.TotalMinutes += day.TotalMinutes
		sheet.Days = append(sheet.Days, *day)
		day = nil
		openEntry = nil
	}

	for _, ev := range events {
		at := ev.OccurredAt.In(e.loc)
		if day == nil || !sameDay(dayDate, at) {
			flush()
			dayDate = at
			day = &DaySheet{Date: at.Format(dateLayout)}
		}
		principal, err := idx.isPrincipalEvent(ctx, ev, profile)
		if err != nil {
			return Timesheet{}, internalErr(err)
		}
		day.Entries = append(day.Entries, TimesheetEntry{
			At:            at,
			Type:          ev.Type,
			ReaderID:      ev.ReaderID,
			PrincipalZone: principal,
		})
		if !principal {
			continue
		}
		switch ev.Type {
		case TypeEntry:
			if openEntry == nil {
				t := at
				openEntry = &t
			}
		case TypeExit:
			if openEntry != nil {
				day.TotalMinutes += at.Sub(*openEntry).Minutes()
				openEntry = nil
			}
			// An exit with no open session is ignored: totals never go
			// negative and the walk keeps going.
		}
	}
	flush()

	sheet.TotalHours = roundHours(sheet.TotalMinutes)
	return sheet, nil
}

// workedRange computes total minutes for an arbitrary window using the same
// pairing rules, shared with WorkingStatus for today's running total.
func (e *Engine) workedRange(ctx context.Context, personID string, profile zoneProfile, from, to time.Time) (float64, error) {
	events, err := e.store.EventsBetween(ctx, personID, from, to)
	if err != nil {
		return 0, internalErr(err)
	}
	idx := newZoneIndex(e.store)
	now := e.now().In(e.loc)

	var total float64
	var openEntry *time.Time
	var openDay time.Time

	credit := func() {
		if openEntry != nil && sameDay(openDay, now) && !to.Before(now) {
			total += now.Sub(*openEntry).Minutes()
		}
		openEntry = nil
	}

	for _, ev := range events {
		at := ev.OccurredAt.In(e.loc)
		if openEntry != nil && !sameDay(openDay, at) {
			credit()
		}
		principal, err := idx.isPrincipalEvent(ctx, ev, profile)
		if err != nil {
			return 0, internalErr(err)
		}
		if !principal {
			continue
		}
		switch ev.Type {
		case TypeEntry:
			if openEntry == nil {
				t := at
				openEntry = &t
				openDay = at
			}
		case TypeExit:
			if openEntry != nil {
				total += at.Sub(*openEntry).Minutes()
				openEntry = nil
			}
		}
	}
	credit()
	return total, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func roundHours(minutes float64) float64 {
	return math.Round(minutes/60*100) / 100
}
