/*
obligations.go - Mixed-pattern multi-obligation strategy

PURPOSE:
  Contracts that break their price into distinct performance obligations
  need per-obligation recognition timing: a setup fee recognized upfront, a
  subscription spread over the term, a milestone recognized when delivered.
  This strategy builds a monthly period grid regardless of payment terms and
  lets each obligation contribute to each period according to its own
  pattern.

STATE:
  Per-obligation recognized-to-date totals thread through the period loop;
  deferred revenue for a period is the sum across obligations of what has
  been allocated but not yet recognized. This is the only stateful loop in
  the engine, and the state is local to a single call.
*/
package engine

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// OBLIGATION SPECS - Parsed, defaulted obligation records
// =============================================================================

// ObligationSpec is an Obligation after pattern parsing and defaulting.
type ObligationSpec struct {
	Name        string
	Allocated   decimal.Decimal
	Recognition Recognition
	PeriodIndex int // 1-based period for point-in-time recognition
}

// buildObligationSpecs converts raw obligation records into specs. It
// returns ok=false when any record is missing its name or allocated value,
// which downgrades the contract to single-obligation mode. Unknown
// recognition patterns are mapped to over_time with a warning.
func buildObligationSpecs(obs []Obligation, log zerolog.Logger) ([]ObligationSpec, bool) {
	specs := make([]ObligationSpec, 0, len(obs))
	for _, ob := range obs {
		if ob.Name == "" || ob.AllocatedValue == nil {
			return nil, false
		}

		pattern, known := ParseRecognition(ob.Recognition)
		if !known {
			log.Warn().Str("obligation", ob.Name).Str("recognition", ob.Recognition).
				Msg("unknown recognition pattern; treating as over_time")
		}

		idx := ob.RecognitionPeriod
		if idx <= 0 {
			idx = DefaultRecognitionPeriod
		}

		specs = append(specs, ObligationSpec{
			Name:        ob.Name,
			Allocated:   *ob.AllocatedValue,
			Recognition: pattern,
			PeriodIndex: idx,
		})
	}
	return specs, true
}

// =============================================================================
// MULTI-OBLIGATION STRATEGY
// =============================================================================

// MultiObligation generates a monthly grid where each obligation follows
// its own recognition pattern.
type MultiObligation struct {
	Obligations []ObligationSpec
}

func (*MultiObligation) Name() string { return "multi-obligation" }
func (*MultiObligation) Periods(months int) int { return months }

func (s *MultiObligation) Generate(in StrategyInput) []PeriodRecord {
	months := decimal.NewFromInt(int64(in.Months))
	recognized := make([]decimal.Decimal, len(s.Obligations))
	for i := range recognized {
		recognized[i] = decimal.Zero
	}

	schedule := make([]PeriodRecord, 0, in.Months)
	current := in.Start
	for period := 1; period <= in.Months; period++ {
		periodEnd := current.AddMonths(1).AddDays(-1)
		if periodEnd.After(in.End) {
			periodEnd = in.End
		}

		total := decimal.Zero
		deferred := decimal.Zero
		breakdown := make([]ObligationRevenue, len(s.Obligations))
		for i, ob := range s.Obligations {
			amount := s.contribution(ob, period, months)
			recognized[i] = recognized[i].Add(amount)

			remaining := ob.Allocated.Sub(recognized[i])
			if remaining.IsNegative() {
				remaining = decimal.Zero
			}

			breakdown[i] = ObligationRevenue{Name: ob.Name, Amount: amount}
			total = total.Add(amount)
			deferred = deferred.Add(remaining)
		}

		schedule = append(schedule, PeriodRecord{
			Period:      current.String()[:7], // YYYY-MM
			PeriodStart: current.String(),
			PeriodEnd:   periodEnd.String(),
			Revenue:     total.Round(2),
			Deferred:    deferred.Round(2),
			Obligations: breakdown,
		})

		current = current.AddMonths(1)
		if current.After(in.End) {
			break
		}
	}
	return schedule
}

// contribution is the revenue one obligation recognizes in the given
// 1-based period, rounded to cents at the point of computation.
func (s *MultiObligation) contribution(ob ObligationSpec, period int, months decimal.Decimal) decimal.Decimal {
	switch ob.Recognition {
	case RecognizeUpfront:
		if period == 1 {
			return ob.Allocated.Round(2)
		}
	case RecognizePointInTime:
		if period == ob.PeriodIndex {
			return ob.Allocated.Round(2)
		}
	default: // over_time
		return ob.Allocated.Div(months).Round(2)
	}
	return decimal.Zero
}
