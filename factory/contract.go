/*
Package factory provides JSON to Go contract conversion.

PURPOSE:
  Converts the JSON emitted by the contract analyzer (or uploaded directly
  by a client) into engine.ContractData, normalizing the messy parts before
  the engine ever sees them. LLM output is best-effort JSON: fields arrive
  blank, as the literal string "null", as dates in the wrong format, or
  wrapped in stray whitespace. The factory absorbs all of that so the
  engine can stay strict.

JSON SCHEMA (analyzer output):
  {
    "contract_info": {
      "customer_name": "Acme Corp",
      "vendor_name": "CloudCo",
      "contract_start_date": "2024-01-01",
      "contract_end_date": "2024-12-31",
      "total_contract_value": "120000",
      "payment_terms": "monthly",
      "performance_obligations": [
        {"name": "setup", "allocated_value": 6000, "recognition": "upfront"}
      ]
    },
    "asc606_analysis": {
      "step_1": {"title": "...", "description": "...", "details": {...}},
      ...
      "step_5": {"title": "...", "description": "...", "details": {...}}
    }
  }

NORMALIZATION RULES:
  - All string fields are whitespace-trimmed
  - "null", "none", "N/A" and blank dates become "Unable to identify"
  - Analyzer payloads only: dates not in YYYY-MM-DD format become
    "Unable to identify" (logged). Direct contract submissions keep
    malformed dates as-is so they fail validation instead
  - Everything else passes through untouched; value parsing stays in the
    engine, which already accepts "$1,200,000.00" style text

USAGE:
  f := factory.New(log)

  // Full analyzer payload
  result, err := f.ParseAnalysis(raw)

  // Bare contract record (direct schedule requests)
  cd, err := f.ParseContract(raw)

SEE ALSO:
  - engine/contract.go: ContractData definition and value parsing
  - analyzer/gemini.go: Where the JSON comes from
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/warp/revenue-engine/engine"
)

// =============================================================================
// ANALYZER PAYLOAD TYPES
// =============================================================================

// AnalysisResult is the full payload produced by a contract analysis run:
// the extracted contract record plus the five-step ASC 606 narrative.
type AnalysisResult struct {
	ContractInfo engine.ContractData `json:"contract_info"`
	ASC606       FiveStepAnalysis    `json:"asc606_analysis"`
}

// FiveStepAnalysis is the ASC 606 five-step model, one entry per step.
type FiveStepAnalysis struct {
	Step1 AnalysisStep `json:"step_1"`
	Step2 AnalysisStep `json:"step_2"`
	Step3 AnalysisStep `json:"step_3"`
	Step4 AnalysisStep `json:"step_4"`
	Step5 AnalysisStep `json:"step_5"`
}

// Steps returns the five steps in order.
func (f FiveStepAnalysis) Steps() []AnalysisStep {
	return []AnalysisStep{f.Step1, f.Step2, f.Step3, f.Step4, f.Step5}
}

// AnalysisStep is one step of the five-step model. Details is free-form
// and passed through verbatim; its shape differs per step.
type AnalysisStep struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Details     json.RawMessage `json:"details,omitempty"`
}

// =============================================================================
// CONTRACT FACTORY
// =============================================================================

// Factory converts analyzer JSON into normalized contract records.
type Factory struct {
	log zerolog.Logger
}

// New creates a contract factory. Normalization fallbacks are logged as
// warnings on the given logger.
func New(log zerolog.Logger) *Factory {
	return &Factory{log: log}
}

// ParseAnalysis parses a full analyzer payload. It requires both top-level
// sections and all five analysis steps, then normalizes the contract record
// in place.
func (f *Factory) ParseAnalysis(raw []byte) (*AnalysisResult, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}
	for _, key := range []string{"contract_info", "asc606_analysis"} {
		if _, ok := top[key]; !ok {
			return nil, fmt.Errorf("missing top-level field: %s", key)
		}
	}

	var result AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}

	for i, step := range result.ASC606.Steps() {
		if step.Title == "" || step.Description == "" {
			return nil, fmt.Errorf("incomplete ASC 606 step: step_%d", i+1)
		}
	}

	f.Normalize(&result.ContractInfo)
	return &result, nil
}

// ParseContract parses a bare contract record, as posted by clients that
// already have structured data and only want a schedule. Unlike the analyze
// path, malformed dates are left as submitted so an editor typo surfaces as
// a validation error instead of silently degrading to the unknown sentinel.
func (f *Factory) ParseContract(raw []byte) (engine.ContractData, error) {
	var cd engine.ContractData
	if err := json.Unmarshal(raw, &cd); err != nil {
		return engine.ContractData{}, fmt.Errorf("failed to parse contract JSON: %w", err)
	}
	f.cleanRecord(&cd)
	cd.StartDate = canonicalDate(cd.StartDate)
	cd.EndDate = canonicalDate(cd.EndDate)
	return cd, nil
}

// ToJSON renders a contract record back to JSON, for storage and echo
// responses.
func (f *Factory) ToJSON(cd engine.ContractData) ([]byte, error) {
	return json.Marshal(cd)
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize cleans a contract record in place so downstream validation sees
// canonical values. It never rejects: unusable dates degrade to the unknown
// sentinel and everything else is left for engine.Validate to judge.
func (f *Factory) Normalize(cd *engine.ContractData) {
	f.cleanRecord(cd)
	cd.StartDate = f.normalizeDate("contract_start_date", cd.StartDate)
	cd.EndDate = f.normalizeDate("contract_end_date", cd.EndDate)
}

// cleanRecord trims text fields and canonicalizes null spellings without
// touching date semantics.
func (f *Factory) cleanRecord(cd *engine.ContractData) {
	cd.CustomerName = cleanText(cd.CustomerName)
	cd.VendorName = cleanText(cd.VendorName)
	cd.PaymentTerms = cleanText(cd.PaymentTerms)

	for i := range cd.Obligations {
		cd.Obligations[i].Name = cleanText(cd.Obligations[i].Name)
		cd.Obligations[i].Recognition = cleanText(cd.Obligations[i].Recognition)
	}
}

// normalizeDate maps absent or malformed dates to the unknown sentinel.
// Valid YYYY-MM-DD strings and explicit sentinels pass through.
func (f *Factory) normalizeDate(field, raw string) string {
	s := cleanText(raw)
	if s == "" || engine.IsUnknownDate(s) {
		return engine.SentinelUnknown
	}
	if _, err := engine.ParseDate(s); err != nil {
		f.log.Warn().Str("field", field).Str("value", s).
			Msg("invalid date format; marking as unable to identify")
		return engine.SentinelUnknown
	}
	return s
}

// canonicalDate maps empty strings and sentinel spellings to the unknown
// sentinel but leaves everything else, malformed or not, for the validator.
func canonicalDate(raw string) string {
	s := cleanText(raw)
	if s == "" || engine.IsUnknownDate(s) {
		return engine.SentinelUnknown
	}
	return s
}

// cleanText trims whitespace and maps JSON-ish null spellings to empty.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none":
		return ""
	}
	return s
}
