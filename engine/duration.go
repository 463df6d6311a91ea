package engine

// =============================================================================
// DURATION - Whole-month contract length
// =============================================================================

// ContractMonths returns the contract duration in whole months using an
// inclusive-day rule: the whole calendar months between the dates, plus one
// when the end day of month reaches the start day of month. A contract from
// Jan 15 to Mar 20 spans 3 months; Jan 20 to Mar 15 spans 2.
//
// The result is floored at 1: a same-month or inverted span still produces
// a single period rather than an empty schedule.
func ContractMonths(start, end Date) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() >= start.Day() {
		months++
	}
	if months < 1 {
		return 1
	}
	return months
}
