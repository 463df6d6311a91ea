/*
Package engine implements the ASC 606 revenue recognition schedule engine.

PURPOSE:
  Turns extracted contract terms (dates, total value, payment cadence, and an
  optional list of performance obligations) into a validated, period-bucketed
  revenue / deferred-revenue schedule. The engine is purely computational:
  no I/O, no clock reads, no shared state between invocations.

KEY CONCEPTS IN THIS FILE (contract.go):
  - ContractData: The input record, produced upstream by an LLM extractor or
    a human editor. Field names are a joint contract with the extractor and
    must not change.
  - Obligation: A distinct performance obligation with its own allocated
    value and recognition pattern.
  - Cadence / Recognition: Closed enums replacing free-text dispatch.
    Unknown inputs fall back to a default through an explicit, testable branch.

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all currency amounts, rounded to cents
     at the point of computation.
  2. Never raise: GenerateSchedule always returns a renderable schedule;
     failures become diagnostic rows (see schedule.go).
  3. Soft vs hard requirements: unknown dates degrade the schedule, a bad
     value or missing payment terms reject the contract (see validate.go).

SEE ALSO:
  - validate.go: Input validation rules
  - duration.go: Whole-month contract duration
  - strategy.go: Monthly/quarterly/annual period generators
  - obligations.go: Mixed-pattern multi-obligation generator
  - schedule.go: Orchestration and diagnostic rows
*/
package engine

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINELS - Upstream extractors mark unknown fields with these values
// =============================================================================

const (
	// SentinelUnknown marks a field the extractor could not identify.
	SentinelUnknown = "Unable to identify"

	// SentinelNA is an alternate unknown marker seen in extractor output.
	SentinelNA = "N/A"
)

// IsUnknownDate reports whether a date field carries no usable value.
// Empty strings and the extractor sentinels all count as unknown.
func IsUnknownDate(s string) bool {
	switch strings.TrimSpace(s) {
	case "", SentinelUnknown, SentinelNA:
		return true
	}
	return false
}

// =============================================================================
// CONTRACT DATA - Immutable input record
// =============================================================================

// ContractData is the structured contract record the engine consumes.
// JSON field names are a joint contract with the upstream extractor and
// the editor UI; the extractor's "performance_obligations" spelling is
// accepted as an alias for "obligations".
type ContractData struct {
	CustomerName string       `json:"customer_name,omitempty"`
	VendorName   string       `json:"vendor_name,omitempty"`
	StartDate    string       `json:"contract_start_date"`
	EndDate      string       `json:"contract_end_date"`
	TotalValue   ValueText    `json:"total_contract_value"`
	PaymentTerms string       `json:"payment_terms"`
	Obligations  []Obligation `json:"obligations,omitempty"`
}

// UnmarshalJSON accepts the canonical "obligations" key and the
// "performance_obligations" alias the extraction prompt uses. When both
// keys are present the canonical one wins.
func (cd *ContractData) UnmarshalJSON(b []byte) error {
	type contractAlias ContractData
	aux := struct {
		*contractAlias
		PerformanceObligations []Obligation `json:"performance_obligations"`
	}{contractAlias: (*contractAlias)(cd)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(cd.Obligations) == 0 {
		cd.Obligations = aux.PerformanceObligations
	}
	return nil
}

// Obligation is one performance obligation within a contract.
// AllocatedValue is a pointer so a missing allocation is distinguishable
// from an explicit zero; records missing Name or AllocatedValue downgrade
// the whole contract to single-obligation mode.
type Obligation struct {
	Name              string           `json:"name"`
	AllocatedValue    *decimal.Decimal `json:"allocated_value,omitempty"`
	Recognition       string           `json:"recognition,omitempty"`
	RecognitionPeriod int              `json:"recognition_period,omitempty"`
}

// UnmarshalJSON accepts both the structured object form and the bare string
// form some extractors emit ("performance_obligations": ["setup", "support"]).
// A bare string carries a name only, which downgrades scheduling to
// single-obligation mode.
func (o *Obligation) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*o = Obligation{Name: name}
		return nil
	}

	type obligationAlias Obligation
	var a obligationAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*o = Obligation(a)
	return nil
}

// ValueText carries a numeric field that upstream extractors emit either as
// a JSON number or as a string (sometimes with currency formatting, e.g.
// "$48,000.00"). It preserves the raw text so the validator can report
// non-numeric input instead of silently dropping it.
type ValueText string

func (v *ValueText) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = ValueText(strings.TrimSpace(s))
		return nil
	}
	if string(b) == "null" {
		*v = ""
		return nil
	}
	*v = ValueText(strings.TrimSpace(string(b)))
	return nil
}

func (v ValueText) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

func (v ValueText) String() string { return string(v) }

// IsEmpty reports whether no value was supplied at all.
func (v ValueText) IsEmpty() bool { return strings.TrimSpace(string(v)) == "" }

// Decimal parses the value as a currency amount, tolerating a leading
// currency symbol and thousands separators.
func (v ValueText) Decimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(string(v))
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(s)
}

// =============================================================================
// CADENCE - Closed variant for payment-terms dispatch
// =============================================================================

// Cadence is the period length used for single-obligation schedules.
type Cadence int

const (
	CadenceMonthly Cadence = iota
	CadenceQuarterly
	CadenceAnnual
)

func (c Cadence) String() string {
	switch c {
	case CadenceQuarterly:
		return "quarterly"
	case CadenceAnnual:
		return "annual"
	default:
		return "monthly"
	}
}

// ParseCadence maps free-text payment terms onto a Cadence. The second
// return value is false when the input was not recognized and the monthly
// default applies; callers log that branch rather than hiding it.
func ParseCadence(paymentTerms string) (Cadence, bool) {
	terms := strings.ToLower(strings.TrimSpace(paymentTerms))
	switch {
	case strings.Contains(terms, "month"):
		return CadenceMonthly, true
	case strings.Contains(terms, "annual"), strings.Contains(terms, "year"):
		return CadenceAnnual, true
	case strings.Contains(terms, "quarter"):
		return CadenceQuarterly, true
	default:
		return CadenceMonthly, false
	}
}

// =============================================================================
// RECOGNITION - Closed variant for per-obligation timing patterns
// =============================================================================

// Recognition is the timing rule for a single performance obligation.
type Recognition int

const (
	// RecognizeOverTime spreads the allocated value evenly across the term.
	RecognizeOverTime Recognition = iota

	// RecognizePointInTime recognizes the full value in one chosen period.
	RecognizePointInTime

	// RecognizeUpfront recognizes the full value in the first period.
	RecognizeUpfront
)

func (r Recognition) String() string {
	switch r {
	case RecognizePointInTime:
		return "point_in_time"
	case RecognizeUpfront:
		return "upfront"
	default:
		return "over_time"
	}
}

// DefaultRecognitionPeriod is the 1-based period index used for
// point-in-time obligations that do not specify one.
const DefaultRecognitionPeriod = 2

// ParseRecognition maps a recognition pattern string onto a Recognition.
// An absent pattern defaults to over_time silently; an unknown pattern
// also defaults to over_time but returns false so the caller can warn.
func ParseRecognition(s string) (Recognition, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "over_time":
		return RecognizeOverTime, true
	case "point_in_time":
		return RecognizePointInTime, true
	case "upfront":
		return RecognizeUpfront, true
	default:
		return RecognizeOverTime, false
	}
}
