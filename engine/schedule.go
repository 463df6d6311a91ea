/*
schedule.go - Schedule orchestration and the period record type

PURPOSE:
  Glues the pieces together: validation, duration, strategy dispatch, and
  the narrative attached to the first period. The public contract is
  GenerateSchedule: it always returns a non-empty, renderable schedule and
  never returns an error or lets a panic escape. Callers distinguish
  "degraded" from "failed" by the period sentinel value, not by a separate
  error channel.

DISPATCH RULES:
  1. Validation failure            -> single "Error" row
  2. Unknown start or end date     -> single "Unable to identify" row
  3. Well-formed obligations list  -> multi-obligation strategy
  4. Otherwise                     -> cadence from payment terms
     (unrecognized terms fall back to monthly, logged)

SEE ALSO:
  - strategy.go: Single-obligation period generators
  - obligations.go: Mixed-pattern generator
  - validate.go: What counts as a validation failure
*/
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine generates revenue recognition schedules. It is stateless across
// invocations and safe for concurrent use.
type Engine struct {
	log zerolog.Logger
}

// New creates an Engine that logs warnings and fallbacks to the given
// logger. Pass zerolog.Nop() to silence it.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// =============================================================================
// PERIOD RECORD - One schedule row
// =============================================================================

// ObligationRevenue is the portion of a period's revenue contributed by a
// single performance obligation. Order is preserved from the contract.
type ObligationRevenue struct {
	Name   string
	Amount decimal.Decimal
}

// PeriodRecord is a single row of a revenue schedule. Diagnostic rows use
// sentinel Period values ("Unable to identify", "Error") and carry Note or
// Err instead of meaningful amounts.
type PeriodRecord struct {
	Period      string
	PeriodStart string
	PeriodEnd   string
	Revenue     decimal.Decimal
	Deferred    decimal.Decimal

	// Per-obligation breakdown, multi-obligation schedules only.
	Obligations []ObligationRevenue

	// Side channels, not guaranteed present.
	Reasoning string // first period only
	Note      string // degraded schedules
	Err       string // error schedules
}

// IsDiagnostic reports whether the row is a degraded or error placeholder
// rather than a computed period.
func (p PeriodRecord) IsDiagnostic() bool {
	return p.Period == SentinelUnknown || p.Period == "Error"
}

// MarshalJSON writes the row with the fixed upstream column names. Columns
// keep a stable order (base columns, then one revenue_<obligation> column
// per obligation) so rendered tables and CSV exports are deterministic.
func (p PeriodRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeString := func(key, val string) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		v, _ := json.Marshal(val)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	writeAmount := func(key string, val decimal.Decimal) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(val.StringFixed(2))
	}

	writeString("period", p.Period)
	writeString("period_start", p.PeriodStart)
	writeString("period_end", p.PeriodEnd)
	writeAmount("revenue_amount", p.Revenue)
	for _, ob := range p.Obligations {
		writeAmount("revenue_"+ColumnName(ob.Name), ob.Amount)
	}
	writeAmount("deferred_revenue", p.Deferred)
	if p.Reasoning != "" {
		writeString("_reasoning", p.Reasoning)
	}
	if p.Note != "" {
		writeString("note", p.Note)
	}
	if p.Err != "" {
		writeString("error", p.Err)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ColumnName converts an obligation name into a column suffix: lowercase,
// with non-alphanumeric runs collapsed to single underscores.
func ColumnName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// GenerateSchedule produces the revenue recognition schedule for a contract.
// It never returns an error: validation failures and unexpected panics
// become a single "Error" row, and unknown dates become a single
// "Unable to identify" row.
func (e *Engine) GenerateSchedule(cd ContractData) (schedule []PeriodRecord) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("schedule generation panicked")
			schedule = errorSchedule(fmt.Sprintf("%v", r))
		}
	}()

	if err := e.Validate(cd); err != nil {
		e.log.Error().Err(err).Msg("contract failed validation")
		return errorSchedule(err.Error())
	}

	if IsUnknownDate(cd.StartDate) || IsUnknownDate(cd.EndDate) {
		e.log.Warn().Msg("contract dates missing; returning degraded schedule")
		return unknownSchedule()
	}

	start, err := ParseDate(strings.TrimSpace(cd.StartDate))
	if err != nil {
		return errorSchedule(err.Error())
	}
	end, err := ParseDate(strings.TrimSpace(cd.EndDate))
	if err != nil {
		return errorSchedule(err.Error())
	}
	total, err := cd.TotalValue.Decimal()
	if err != nil {
		return errorSchedule(err.Error())
	}

	months := ContractMonths(start, end)
	in := StrategyInput{Start: start, End: end, Value: total, Months: months}

	e.log.Info().
		Str("start", start.String()).
		Str("end", end.String()).
		Str("total", total.StringFixed(2)).
		Int("months", months).
		Msg("generating revenue schedule")

	strat := e.selectStrategy(cd, total)
	schedule = strat.Generate(in)
	if len(schedule) > 0 {
		schedule[0].Reasoning = e.buildReasoning(strat, in, cd)
	}
	return schedule
}

// selectStrategy picks multi-obligation mode when the obligations list is
// present and fully formed, otherwise dispatches on payment cadence.
func (e *Engine) selectStrategy(cd ContractData, total decimal.Decimal) Strategy {
	if len(cd.Obligations) > 0 {
		specs, ok := buildObligationSpecs(cd.Obligations, e.log)
		if ok {
			e.checkAllocations(specs, total)
			return &MultiObligation{Obligations: specs}
		}
		e.log.Warn().Int("obligations", len(cd.Obligations)).
			Msg("obligation records incomplete; falling back to single-obligation mode")
	}

	cadence, recognized := ParseCadence(cd.PaymentTerms)
	if !recognized {
		e.log.Warn().Str("payment_terms", cd.PaymentTerms).
			Msg("unrecognized payment terms; defaulting to monthly")
	}
	switch cadence {
	case CadenceQuarterly:
		return Quarterly{}
	case CadenceAnnual:
		return Annual{}
	default:
		return Monthly{}
	}
}

// checkAllocations warns when obligation allocations do not sum to the
// total contract value. This stays informational: allocation gaps are a
// data-quality signal for the reviewer, not grounds to reject a schedule.
func (e *Engine) checkAllocations(specs []ObligationSpec, total decimal.Decimal) {
	sum := decimal.Zero
	for _, s := range specs {
		sum = sum.Add(s.Allocated)
	}
	if !sum.Sub(total).Abs().LessThanOrEqual(centTolerance) {
		e.log.Warn().
			Str("allocated", sum.StringFixed(2)).
			Str("total", total.StringFixed(2)).
			Msg("obligation allocations do not sum to total contract value")
	}
}

var centTolerance = decimal.New(1, -2) // 0.01

// =============================================================================
// DIAGNOSTIC ROWS
// =============================================================================

func unknownSchedule() []PeriodRecord {
	return []PeriodRecord{{
		Period:      SentinelUnknown,
		PeriodStart: SentinelUnknown,
		PeriodEnd:   SentinelUnknown,
		Revenue:     decimal.Zero,
		Deferred:    decimal.Zero,
		Note:        "Contract dates not found in document",
	}}
}

func errorSchedule(msg string) []PeriodRecord {
	return []PeriodRecord{{
		Period:      "Error",
		PeriodStart: SentinelNA,
		PeriodEnd:   SentinelNA,
		Revenue:     decimal.Zero,
		Deferred:    decimal.Zero,
		Err:         msg,
	}}
}

// =============================================================================
// NARRATIVE
// =============================================================================

// buildReasoning explains the chosen methodology in plain language. The
// string rides on the first period only; renderers surface it as a footnote.
func (e *Engine) buildReasoning(strat Strategy, in StrategyInput, cd ContractData) string {
	switch s := strat.(type) {
	case *MultiObligation:
		var parts []string
		allocated := decimal.Zero
		for _, ob := range s.Obligations {
			allocated = allocated.Add(ob.Allocated)
			switch ob.Recognition {
			case RecognizeUpfront:
				parts = append(parts, fmt.Sprintf("%q ($%s) recognized upfront in period 1",
					ob.Name, ob.Allocated.StringFixed(2)))
			case RecognizePointInTime:
				parts = append(parts, fmt.Sprintf("%q ($%s) recognized at a point in time in period %d",
					ob.Name, ob.Allocated.StringFixed(2), ob.PeriodIndex))
			default:
				parts = append(parts, fmt.Sprintf("%q ($%s) recognized evenly over %d months",
					ob.Name, ob.Allocated.StringFixed(2), in.Months))
			}
		}
		narrative := fmt.Sprintf("ASC 606 multi-element arrangement with %d performance obligations over %d monthly periods: %s.",
			len(s.Obligations), in.Months, strings.Join(parts, "; "))
		if !allocated.Sub(in.Value).Abs().LessThanOrEqual(centTolerance) {
			narrative += fmt.Sprintf(" Note: obligation allocations ($%s) do not sum to the total contract value ($%s).",
				allocated.StringFixed(2), in.Value.StringFixed(2))
		}
		return narrative
	default:
		per := in.Value.Div(decimal.NewFromInt(int64(strat.Periods(in.Months)))).Round(2)
		return fmt.Sprintf("ASC 606 step 5: $%s recognized ratably as the service is delivered, across %d %s period(s) of $%s each (payment terms %q).",
			in.Value.StringFixed(2), strat.Periods(in.Months), strat.Name(), per.StringFixed(2), cd.PaymentTerms)
	}
}
