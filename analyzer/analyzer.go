/*
Package analyzer extracts structured contract data from raw contract text
using an LLM.

PURPOSE:
  Bridges unstructured contract documents and the schedule engine. An
  Extractor takes the plain text of a contract and returns the structured
  record (engine.ContractData) plus the five-step ASC 606 narrative that
  the factory package defines. The Gemini implementation is the production
  extractor; tests and offline deployments substitute their own.

KEY CONCEPTS:
  - Extractor: The single seam between the HTTP layer and the LLM vendor.
  - Excerpting: Contract text is truncated before prompting. Type
    identification reads less than full analysis does.
  - Pacing: One paced request at a time, enforced with a rate.Limiter
    rather than ad hoc sleeps, so concurrent HTTP handlers queue fairly.

SEE ALSO:
  - gemini.go: Gemini-backed Extractor
  - prompt.go: Prompt templates
  - parse.go: JSON extraction from LLM responses
  - factory/contract.go: Result types and normalization
*/
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/revenue-engine/factory"
)

// Pacing and sizing limits for LLM calls.
const (
	// MaxRetries is the number of attempts per request before giving up.
	MaxRetries = 3

	// TypeExcerptLimit caps the text sent for contract type identification.
	TypeExcerptLimit = 8000

	// AnalysisExcerptLimit caps the text sent for full extraction.
	AnalysisExcerptLimit = 12000

	// MinContractChars is the shortest text worth sending to the LLM at all.
	MinContractChars = 100
)

// ErrTextTooShort rejects input below MinContractChars.
var ErrTextTooShort = errors.New("contract text appears too short to analyze")

// Extractor turns raw contract text into structured analysis results.
type Extractor interface {
	// AnalyzeContract extracts the contract record and the five-step
	// ASC 606 narrative in a single call.
	AnalyzeContract(ctx context.Context, contractText string) (*factory.AnalysisResult, error)

	// IdentifyContractType classifies the contract. Implementations return
	// a low-confidence fallback rather than an error when classification
	// itself fails; only invalid input is an error.
	IdentifyContractType(ctx context.Context, contractText string) (*ContractTypeInfo, error)
}

// ContractTypeInfo is the classification result for a contract document.
type ContractTypeInfo struct {
	ContractType  string   `json:"contract_type"`
	Confidence    string   `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	KeyIndicators []string `json:"key_indicators"`
}

// knownContractTypes are the classifications the prompt asks for. Anything
// else is logged but passed through.
var knownContractTypes = []string{
	"SaaS Subscription",
	"Professional Services",
	"Perpetual Software License",
	"Hybrid",
	"Hardware/Equipment Sale",
	"Maintenance & Support",
	"Other",
}

// fallbackTypeInfo is returned when classification fails downstream of
// input validation. Callers always get something renderable.
func fallbackTypeInfo(err error) *ContractTypeInfo {
	reason := err.Error()
	if len(reason) > 100 {
		reason = reason[:100]
	}
	return &ContractTypeInfo{
		ContractType:  "Other",
		Confidence:    "low",
		Reasoning:     fmt.Sprintf("Could not determine contract type due to analysis error: %s", reason),
		KeyIndicators: []string{"Analysis failed", "Manual review required"},
	}
}

// ValidateText checks that contract text is substantial enough to analyze.
func ValidateText(contractText string) error {
	trimmed := strings.TrimSpace(contractText)
	if trimmed == "" {
		return errors.New("contract text cannot be empty")
	}
	if len(trimmed) < MinContractChars {
		return ErrTextTooShort
	}
	return nil
}

// excerpt truncates text to at most limit bytes.
func excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
