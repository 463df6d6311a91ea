/*
handlers.go - HTTP API handlers for the revenue recognition service

PURPOSE:
  Exposes the schedule engine and contract analyzer via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Schedules:
    POST   /api/schedule                       Compute a schedule from a contract body

  Contracts:
    GET    /api/contracts                      List stored contracts
    POST   /api/contracts                      Store a contract
    GET    /api/contracts/{id}                 Get a stored contract
    PUT    /api/contracts/{id}                 Replace a stored contract
    DELETE /api/contracts/{id}                 Delete a contract
    GET    /api/contracts/{id}/schedule        Schedule for a stored contract
    GET    /api/contracts/{id}/schedule.csv    Same schedule as CSV download

  Analysis:
    POST   /api/analyze                        Extract + analyze raw contract text
    POST   /api/analyze/type                   Classify raw contract text

  Scenarios:
    GET    /api/scenarios                      List demo scenarios
    POST   /api/scenarios/load                 Load a demo scenario
    POST   /api/scenarios/reset                Reset the database

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (contracts only; schedules are recomputed)
  - Engine: Deterministic schedule generation
  - Factory: JSON parsing and normalization
  - Extractor: LLM-backed text analysis (nil when no API key is set)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed request bodies, invalid text input
  - 404: Contract not found
  - 502: Upstream LLM failure
  - 503: Analysis requested but no extractor configured
  - 500: Internal errors

  Contract validation failures are NOT HTTP errors: the engine reports them
  as diagnostic schedule rows, and those ship with status 200.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/revenue-engine/analyzer"
	"github.com/warp/revenue-engine/engine"
	"github.com/warp/revenue-engine/factory"
	"github.com/warp/revenue-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// maxBodyBytes caps request bodies; contract text runs large but bounded.
const maxBodyBytes = 1 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Engine    *engine.Engine
	Factory   *factory.Factory
	Extractor analyzer.Extractor
	Log       zerolog.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler. Extractor may be nil; analysis endpoints
// then answer 503 while everything else keeps working.
func NewHandler(store *sqlite.Store, extractor analyzer.Extractor, log zerolog.Logger) *Handler {
	return &Handler{
		Store:     store,
		Engine:    engine.New(log),
		Factory:   factory.New(log),
		Extractor: extractor,
		Log:       log,
	}
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GenerateSchedule computes a schedule from a contract in the request body.
// Nothing is stored. The engine never fails, so every well-formed request
// gets a 200 with at least one row.
// POST /api/schedule
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	cd, err := h.Factory.ParseContract(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract JSON", err)
		return
	}

	writeJSON(w, http.StatusOK, ScheduleResponse{
		Schedule: h.Engine.GenerateSchedule(cd),
	})
}

// GetContractSchedule recomputes the schedule for a stored contract.
// GET /api/contracts/{id}/schedule
func (h *Handler) GetContractSchedule(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadContract(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, ScheduleResponse{
		ContractID: rec.ID,
		Schedule:   h.Engine.GenerateSchedule(rec.Data),
	})
}

// GetContractScheduleCSV renders the same schedule as a CSV download.
// GET /api/contracts/{id}/schedule.csv
func (h *Handler) GetContractScheduleCSV(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadContract(w, r)
	if !ok {
		return
	}

	schedule := h.Engine.GenerateSchedule(rec.Data)
	writeScheduleCSV(w, rec.ID, schedule)
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// ListContracts returns all stored contracts.
// GET /api/contracts
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListContracts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	dtos := make([]ContractDTO, len(records))
	for i, rec := range records {
		dtos[i] = toContractDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetContract returns a single stored contract.
// GET /api/contracts/{id}
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadContract(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(*rec))
}

// CreateContract stores a contract supplied directly as JSON.
// POST /api/contracts
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	h.saveContract(w, r, uuid.NewString(), http.StatusCreated)
}

// UpdateContract replaces a stored contract's terms.
// PUT /api/contracts/{id}
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get contract", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}

	h.saveContract(w, r, id, http.StatusOK)
}

func (h *Handler) saveContract(w http.ResponseWriter, r *http.Request, id string, status int) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	cd, err := h.Factory.ParseContract(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract JSON", err)
		return
	}

	rec := sqlite.ContractRecord{ID: id, Data: cd}
	if err := h.Store.SaveContract(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save contract", err)
		return
	}

	writeJSON(w, status, toContractDTO(rec))
}

// DeleteContract removes a stored contract.
// DELETE /api/contracts/{id}
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteContract(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete contract", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadContract fetches the contract named in the URL, writing the error
// response itself when the lookup fails.
func (h *Handler) loadContract(w http.ResponseWriter, r *http.Request) (*sqlite.ContractRecord, bool) {
	id := chi.URLParam(r, "id")

	rec, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get contract", err)
		return nil, false
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return nil, false
	}
	return rec, true
}

func toContractDTO(rec sqlite.ContractRecord) ContractDTO {
	dto := ContractDTO{
		ID:           rec.ID,
		ContractType: rec.ContractType,
		Contract:     rec.Data,
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	if !rec.UpdatedAt.IsZero() {
		dto.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// ANALYSIS HANDLERS
// =============================================================================

// AnalyzeContract extracts structured data from raw contract text, stores
// the resulting contract, and returns extraction, narrative, classification,
// and schedule in one response.
// POST /api/analyze
func (h *Handler) AnalyzeContract(w http.ResponseWriter, r *http.Request) {
	if h.Extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "Contract analysis is not configured (missing API key)", nil)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := analyzer.ValidateText(req.ContractText); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract text", err)
		return
	}

	ctx := r.Context()

	typeInfo, err := h.Extractor.IdentifyContractType(ctx, req.ContractText)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Contract type identification failed", err)
		return
	}

	result, err := h.Extractor.AnalyzeContract(ctx, req.ContractText)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Contract analysis failed", err)
		return
	}

	analysisJSON, _ := json.Marshal(result.ASC606)
	rec := sqlite.ContractRecord{
		ID:           uuid.NewString(),
		Data:         result.ContractInfo,
		ContractType: typeInfo.ContractType,
		AnalysisJSON: string(analysisJSON),
	}
	if err := h.Store.SaveContract(ctx, rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save contract", err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		ContractID:    rec.ID,
		ContractType:  typeInfo.ContractType,
		Confidence:    typeInfo.Confidence,
		Reasoning:     typeInfo.Reasoning,
		KeyIndicators: typeInfo.KeyIndicators,
		Contract:      result.ContractInfo,
		ASC606:        result.ASC606,
		Schedule:      h.Engine.GenerateSchedule(result.ContractInfo),
	})
}

// IdentifyContractType classifies raw contract text without storing anything.
// POST /api/analyze/type
func (h *Handler) IdentifyContractType(w http.ResponseWriter, r *http.Request) {
	if h.Extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "Contract analysis is not configured (missing API key)", nil)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := analyzer.ValidateText(req.ContractText); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract text", err)
		return
	}

	info, err := h.Extractor.IdentifyContractType(r.Context(), req.ContractText)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Contract type identification failed", err)
		return
	}

	writeJSON(w, http.StatusOK, TypeResponse{
		ContractType:  info.ContractType,
		Confidence:    info.Confidence,
		Reasoning:     info.Reasoning,
		KeyIndicators: info.KeyIndicators,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
