package engine

import (
	"strings"
)

// =============================================================================
// VALIDATOR - Completeness and consistency checks before scheduling
// =============================================================================

// Validate checks a contract record before any schedule is computed.
//
// Hard requirements (return a *ValidationError):
//   - total_contract_value present, numeric, and > 0
//   - payment_terms present and non-blank
//   - dates, when both supplied as real values, parseable YYYY-MM-DD with
//     start strictly before end
//
// Soft requirements (logged, not an error): missing or sentinel dates. A
// contract with unknown dates can still report its value and obligations;
// the schedule degrades to an informational row instead of failing.
func (e *Engine) Validate(cd ContractData) error {
	if strings.TrimSpace(cd.PaymentTerms) == "" {
		return validationErr("payment_terms", ErrMissingField)
	}

	if cd.TotalValue.IsEmpty() {
		return validationErr("total_contract_value", ErrMissingField)
	}
	total, err := cd.TotalValue.Decimal()
	if err != nil {
		return validationErr("total_contract_value", ErrInvalidValue)
	}
	if !total.IsPositive() {
		return validationErr("total_contract_value", ErrInvalidValue)
	}

	startUnknown := IsUnknownDate(cd.StartDate)
	endUnknown := IsUnknownDate(cd.EndDate)
	if startUnknown {
		e.log.Warn().Str("field", "contract_start_date").
			Msg("contract date missing or unidentified; schedule will be incomplete")
	}
	if endUnknown {
		e.log.Warn().Str("field", "contract_end_date").
			Msg("contract date missing or unidentified; schedule will be incomplete")
	}
	if startUnknown || endUnknown {
		return nil
	}

	start, err := ParseDate(strings.TrimSpace(cd.StartDate))
	if err != nil {
		return validationErr("contract_start_date", ErrInvalidDateFormat)
	}
	end, err := ParseDate(strings.TrimSpace(cd.EndDate))
	if err != nil {
		return validationErr("contract_end_date", ErrInvalidDateFormat)
	}
	if !start.Before(end) {
		return validationErr("contract_start_date", ErrInvalidDateOrder)
	}

	return nil
}
