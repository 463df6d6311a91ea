/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/contract.go: AnalysisResult and FiveStepAnalysis
*/
package api

import (
	"github.com/warp/revenue-engine/engine"
	"github.com/warp/revenue-engine/factory"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ContractDTO represents a stored contract in API responses.
type ContractDTO struct {
	ID           string              `json:"id"`
	ContractType string              `json:"contract_type,omitempty"`
	Contract     engine.ContractData `json:"contract_info"`
	CreatedAt    string              `json:"created_at,omitempty"`
	UpdatedAt    string              `json:"updated_at,omitempty"`
}

// ScheduleResponse wraps a computed revenue schedule.
type ScheduleResponse struct {
	ContractID string                `json:"contract_id,omitempty"`
	Schedule   []engine.PeriodRecord `json:"revenue_schedule"`
}

// AnalyzeRequest is the request to analyze raw contract text.
type AnalyzeRequest struct {
	ContractText string `json:"contract_text"`
}

// AnalyzeResponse is the full result of a contract analysis: the stored
// contract, its classification, the five-step narrative, and the schedule
// computed from the extracted terms.
type AnalyzeResponse struct {
	ContractID    string                   `json:"contract_id"`
	ContractType  string                   `json:"contract_type"`
	Confidence    string                   `json:"confidence,omitempty"`
	Reasoning     string                   `json:"reasoning,omitempty"`
	KeyIndicators []string                 `json:"key_indicators,omitempty"`
	Contract      engine.ContractData      `json:"contract_info"`
	ASC606        factory.FiveStepAnalysis `json:"asc606_analysis"`
	Schedule      []engine.PeriodRecord    `json:"revenue_schedule"`
}

// TypeResponse is the classification-only result.
type TypeResponse struct {
	ContractType  string   `json:"contract_type"`
	Confidence    string   `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	KeyIndicators []string `json:"key_indicators"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Contracts   int    `json:"contracts"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
