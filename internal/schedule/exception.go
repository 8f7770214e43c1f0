package schedule

import "github.com/chorenest/chorenest/internal/model"

// overlayExceptions annotates occurrences whose date matches an exception by
// calendar day. An exception with a rescheduled date moves the occurrence
// (keeping the original date); one without cancels it in place — cancelled
// occurrences stay in the list for callers to filter. The first matching
// exception wins, and already-annotated occurrences are skipped, so applying
// the overlay twice is the same as applying it once.
func overlayExceptions(occs []Occurrence, excs []model.ScheduleException) []Occurrence {
	if len(excs) == 0 {
		return occs
	}

	for i := range occs {
		if occs[i].IsRescheduled || occs[i].IsCancelled {
			continue
		}
		for _, e := range excs {
			if !sameDay(occs[i].Date, e.ExceptionDate) {
				continue
			}
			if e.RescheduledDate != nil {
				orig := occs[i].Date
				occs[i].OriginalDate = &orig
				occs[i].Date = dateOnly(*e.RescheduledDate)
				occs[i].IsRescheduled = true
			} else {
				occs[i].IsCancelled = true
			}
			occs[i].Reason = e.Reason
			break
		}
	}
	return occs
}
