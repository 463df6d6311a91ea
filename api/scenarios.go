/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	contract records for testing and demos. Each scenario loads contracts
	that demonstrate specific engine behaviors.

AVAILABLE SCENARIOS:

	saas-monthly:     Single SaaS subscription, monthly recognition
	payment-cadences: Monthly, quarterly, and annual contracts side by side
	multi-obligation: Hybrid contract with setup fee, subscription, training
	degraded-inputs:  Contracts with missing dates and formatted values

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Insert the scenario's contract records
 3. Clients fetch schedules per contract, recomputed on demand

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "multi-obligation"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - engine/contract.go: ContractData fields used below
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/revenue-engine/engine"
	"github.com/warp/revenue-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "saas-monthly",
		Name:        "SaaS Monthly",
		Description: "Single annual SaaS subscription recognized monthly",
		Contracts:   1,
	},
	{
		ID:          "payment-cadences",
		Name:        "Payment Cadences",
		Description: "The same contract value on monthly, quarterly, and annual terms",
		Contracts:   3,
	},
	{
		ID:          "multi-obligation",
		Name:        "Multi-Obligation",
		Description: "Hybrid contract: upfront setup fee, ratable subscription, milestone training",
		Contracts:   1,
	},
	{
		ID:          "degraded-inputs",
		Name:        "Degraded Inputs",
		Description: "Extractor output with unknown dates and currency-formatted values",
		Contracts:   2,
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads the selected scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	records, err := scenarioContracts(req.ScenarioID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := h.insertRecords(ctx, records); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.Log.Info().Str("scenario", req.ScenarioID).Int("contracts", len(records)).
		Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]any{
		"scenario_id": req.ScenarioID,
		"contracts":   len(records),
	})
}

// ResetDatabase clears all stored contracts.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) insertRecords(ctx context.Context, records []sqlite.ContractRecord) error {
	for _, rec := range records {
		if err := h.Store.SaveContract(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

func scenarioContracts(scenarioID string) ([]sqlite.ContractRecord, error) {
	switch scenarioID {
	case "saas-monthly":
		return []sqlite.ContractRecord{
			demoContract("Acme Corp", "CloudCo", "2024-01-01", "2024-12-31", "120000", "monthly", "SaaS Subscription", nil),
		}, nil

	case "payment-cadences":
		return []sqlite.ContractRecord{
			demoContract("Globex", "CloudCo", "2024-01-01", "2024-12-31", "120000", "monthly", "SaaS Subscription", nil),
			demoContract("Globex", "CloudCo", "2024-01-01", "2024-12-31", "120000", "quarterly", "SaaS Subscription", nil),
			demoContract("Globex", "CloudCo", "2024-01-01", "2026-12-31", "120000", "annual", "SaaS Subscription", nil),
		}, nil

	case "multi-obligation":
		return []sqlite.ContractRecord{
			demoContract("Initech", "CloudCo", "2024-01-01", "2024-12-31", "24000", "monthly", "Hybrid", []engine.Obligation{
				{Name: "setup", AllocatedValue: amount(6000), Recognition: "upfront"},
				{Name: "subscription", AllocatedValue: amount(12000), Recognition: "over_time"},
				{Name: "training", AllocatedValue: amount(6000), Recognition: "point_in_time", RecognitionPeriod: 3},
			}),
		}, nil

	case "degraded-inputs":
		missingDates := demoContract("Umbrella Corp", "CloudCo", engine.SentinelUnknown, engine.SentinelUnknown, "48000", "monthly", "Other", nil)
		formattedValue := demoContract("Stark Industries", "CloudCo", "2024-03-15", "2025-03-14", "$1,200,000.00", "annual", "Professional Services", nil)
		return []sqlite.ContractRecord{missingDates, formattedValue}, nil

	default:
		return nil, fmt.Errorf("scenario %q does not exist", scenarioID)
	}
}

func demoContract(customer, vendor, start, end, value, terms, contractType string, obligations []engine.Obligation) sqlite.ContractRecord {
	return sqlite.ContractRecord{
		ID: uuid.NewString(),
		Data: engine.ContractData{
			CustomerName: customer,
			VendorName:   vendor,
			StartDate:    start,
			EndDate:      end,
			TotalValue:   engine.ValueText(value),
			PaymentTerms: terms,
			Obligations:  obligations,
		},
		ContractType: contractType,
	}
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
