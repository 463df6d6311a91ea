/*
strategy.go - Single-obligation recognition strategies

PURPOSE:
  Implements the interchangeable period generators for contracts without an
  obligation breakdown. All three share the same contract: cover the span
  from start to end with contiguous periods, split the value evenly, round
  to cents at the point of computation, clamp deferred revenue at zero, and
  clip the final period end to the contract end date.

STRATEGIES:
  Monthly:   one period per contract month, labeled YYYY-MM
  Quarterly: max(1, months/3) periods of 3 months, labeled YYYY-Qn
  Annual:    max(1, months/12) periods of 12 months, labeled YYYY

SEE ALSO:
  - obligations.go: The fourth strategy, for mixed recognition patterns
  - duration.go: Where the month count comes from
*/
package engine

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STRATEGY INTERFACE
// =============================================================================

// StrategyInput bundles the validated contract terms every strategy needs.
type StrategyInput struct {
	Start  Date
	End    Date
	Value  decimal.Decimal
	Months int
}

// Strategy generates an ordered sequence of periods covering the contract
// span, with no gaps or overlaps.
type Strategy interface {
	// Name identifies the cadence for logs and narrative text.
	Name() string

	// Periods returns how many periods a contract of the given whole-month
	// duration produces.
	Periods(months int) int

	// Generate produces the schedule rows.
	Generate(in StrategyInput) []PeriodRecord
}

// =============================================================================
// EVEN-SPLIT GENERATORS
// =============================================================================

// Monthly recognizes revenue in equal monthly slices.
type Monthly struct{}

func (Monthly) Name() string { return "monthly" }
func (Monthly) Periods(months int) int { return months }

func (m Monthly) Generate(in StrategyInput) []PeriodRecord {
	return evenSplit(in, m.Periods(in.Months), 1, func(d Date) string {
		return d.String()[:7] // YYYY-MM
	})
}

// Quarterly recognizes revenue in equal quarterly slices.
type Quarterly struct{}

func (Quarterly) Name() string { return "quarterly" }
func (Quarterly) Periods(months int) int {
	if q := months / 3; q > 1 {
		return q
	}
	return 1
}

func (q Quarterly) Generate(in StrategyInput) []PeriodRecord {
	return evenSplit(in, q.Periods(in.Months), 3, func(d Date) string {
		return strconv.Itoa(d.Year()) + "-Q" + strconv.Itoa(d.Quarter())
	})
}

// Annual recognizes revenue in equal annual slices.
type Annual struct{}

func (Annual) Name() string { return "annual" }
func (Annual) Periods(months int) int {
	if y := months / 12; y > 1 {
		return y
	}
	return 1
}

func (a Annual) Generate(in StrategyInput) []PeriodRecord {
	return evenSplit(in, a.Periods(in.Months), 12, func(d Date) string {
		return strconv.Itoa(d.Year())
	})
}

// evenSplit is the shared loop: n periods of stepMonths each, value split
// evenly. Deferred revenue tracks the exact (unrounded) share so rounding
// drift never accumulates; the clamp keeps it from dipping below zero on
// the final period.
func evenSplit(in StrategyInput, n, stepMonths int, label func(Date) string) []PeriodRecord {
	schedule := make([]PeriodRecord, 0, n)
	share := in.Value.Div(decimal.NewFromInt(int64(n)))
	revenue := share.Round(2)

	current := in.Start
	for i := 0; i < n; i++ {
		periodEnd := current.AddMonths(stepMonths).AddDays(-1)
		if periodEnd.After(in.End) {
			periodEnd = in.End
		}

		remaining := in.Value.Sub(share.Mul(decimal.NewFromInt(int64(i + 1))))
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}

		schedule = append(schedule, PeriodRecord{
			Period:      label(current),
			PeriodStart: current.String(),
			PeriodEnd:   periodEnd.String(),
			Revenue:     revenue,
			Deferred:    remaining.Round(2),
		})

		current = current.AddMonths(stepMonths)
		if current.After(in.End) {
			break
		}
	}
	return schedule
}
