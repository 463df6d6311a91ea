package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/revenue-engine/analyzer"
	"github.com/warp/revenue-engine/api"
	"github.com/warp/revenue-engine/factory"
	"github.com/warp/revenue-engine/store/sqlite"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

// stubExtractor returns canned results so handler tests never touch the
// network.
type stubExtractor struct {
	result   *factory.AnalysisResult
	typeInfo *analyzer.ContractTypeInfo
}

func (s *stubExtractor) AnalyzeContract(ctx context.Context, text string) (*factory.AnalysisResult, error) {
	return s.result, nil
}

func (s *stubExtractor) IdentifyContractType(ctx context.Context, text string) (*analyzer.ContractTypeInfo, error) {
	return s.typeInfo, nil
}

func newStubExtractor(t *testing.T) *stubExtractor {
	t.Helper()
	raw := `{
		"contract_info": {
			"customer_name": "Acme Corp",
			"vendor_name": "CloudCo",
			"contract_start_date": "2024-01-01",
			"contract_end_date": "2024-12-31",
			"total_contract_value": 120000,
			"payment_terms": "monthly"
		},
		"asc606_analysis": {
			"step_1": {"title": "Identify the Contract", "description": "d"},
			"step_2": {"title": "Identify Performance Obligations", "description": "d"},
			"step_3": {"title": "Determine Transaction Price", "description": "d"},
			"step_4": {"title": "Allocate Transaction Price", "description": "d"},
			"step_5": {"title": "Recognize Revenue", "description": "d"}
		}
	}`
	result, err := factory.New(zerolog.Nop()).ParseAnalysis([]byte(raw))
	require.NoError(t, err)
	return &stubExtractor{
		result: result,
		typeInfo: &analyzer.ContractTypeInfo{
			ContractType:  "SaaS Subscription",
			Confidence:    "high",
			Reasoning:     "Recurring software access billed monthly.",
			KeyIndicators: []string{"subscription term", "monthly fee"},
		},
	}
}

func newTestServer(t *testing.T, extractor analyzer.Extractor) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := api.NewHandler(store, extractor, zerolog.Nop())
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

const monthlyContractJSON = `{
	"customer_name": "Acme Corp",
	"contract_start_date": "2024-01-01",
	"contract_end_date": "2024-12-31",
	"total_contract_value": "120000",
	"payment_terms": "monthly"
}`

// scheduleRows decodes the revenue_schedule array into generic maps since
// period rows use custom column-oriented marshaling.
func scheduleRows(t *testing.T, body []byte) []map[string]any {
	t.Helper()
	var resp struct {
		Schedule []map[string]any `json:"revenue_schedule"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Schedule
}

// =============================================================================
// SCHEDULE ENDPOINT
// =============================================================================

func TestGenerateSchedule(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/schedule", monthlyContractJSON)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := scheduleRows(t, body)
	require.Len(t, rows, 12)
	assert.Equal(t, "2024-01", rows[0]["period"])
	assert.EqualValues(t, 10000, rows[0]["revenue_amount"])
	assert.EqualValues(t, 0, rows[11]["deferred_revenue"])
}

func TestGenerateSchedule_ValidationFailureIsStill200(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/schedule",
		`{"contract_start_date": "2024-01-01", "contract_end_date": "2024-12-31", "total_contract_value": "-5", "payment_terms": "monthly"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := scheduleRows(t, body)
	require.Len(t, rows, 1)
	assert.Equal(t, "Error", rows[0]["period"])
	assert.Contains(t, rows[0]["error"], "total_contract_value")
}

func TestGenerateSchedule_MalformedDateIsErrorRow(t *testing.T) {
	// Direct submissions keep date typos; they fail validation instead of
	// degrading to the "Unable to identify" row.
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/schedule",
		`{"contract_start_date": "01/15/2024", "contract_end_date": "2024-12-31", "total_contract_value": "120000", "payment_terms": "monthly"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := scheduleRows(t, body)
	require.Len(t, rows, 1)
	assert.Equal(t, "Error", rows[0]["period"])
	assert.Contains(t, rows[0]["error"], "contract_start_date")
}

func TestGenerateSchedule_MalformedBody(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/schedule", `{"payment_terms": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// CONTRACT CRUD
// =============================================================================

func createContract(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/contracts", monthlyContractJSON)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var dto struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &dto))
	require.NotEmpty(t, dto.ID)
	return dto.ID
}

func TestContractLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createContract(t, srv)

	// Get
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/contracts/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Acme Corp")

	// List
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/contracts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	// Update
	updated := strings.Replace(monthlyContractJSON, "Acme Corp", "Acme Holdings", 1)
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/api/contracts/"+id, updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Acme Holdings")

	// Delete
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/contracts/"+id, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/contracts/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateContract_Missing(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/contracts/nope", monthlyContractJSON)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetContractSchedule(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createContract(t, srv)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/contracts/"+id+"/schedule", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wrapped struct {
		ContractID string `json:"contract_id"`
	}
	require.NoError(t, json.Unmarshal(body, &wrapped))
	assert.Equal(t, id, wrapped.ContractID)
	assert.Len(t, scheduleRows(t, body), 12)
}

func TestGetContractScheduleCSV(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createContract(t, srv)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/contracts/"+id+"/schedule.csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 13) // header + 12 periods
	assert.Equal(t, "period,period_start,period_end,revenue_amount,deferred_revenue,note,error", strings.TrimSpace(lines[0]))
	assert.True(t, strings.HasPrefix(lines[1], "2024-01,"))
}

// =============================================================================
// ANALYSIS ENDPOINTS
// =============================================================================

func longContractText() string {
	return strings.Repeat("This Master Subscription Agreement is entered into by the parties. ", 5)
}

func TestAnalyzeContract(t *testing.T) {
	srv := newTestServer(t, newStubExtractor(t))

	reqBody, _ := json.Marshal(map[string]string{"contract_text": longContractText()})
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/analyze", string(reqBody))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		ContractID   string `json:"contract_id"`
		ContractType string `json:"contract_type"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotEmpty(t, out.ContractID)
	assert.Equal(t, "SaaS Subscription", out.ContractType)
	assert.Len(t, scheduleRows(t, body), 12)

	// The analyzed contract is stored and rescheduleable
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/contracts/"+out.ContractID+"/schedule", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyzeContract_TextTooShort(t *testing.T) {
	srv := newTestServer(t, newStubExtractor(t))

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/analyze", `{"contract_text": "too short"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeContract_NotConfigured(t *testing.T) {
	srv := newTestServer(t, nil)

	reqBody, _ := json.Marshal(map[string]string{"contract_text": longContractText()})
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/analyze", string(reqBody))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestIdentifyContractType(t *testing.T) {
	srv := newTestServer(t, newStubExtractor(t))

	reqBody, _ := json.Marshal(map[string]string{"contract_text": longContractText()})
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/analyze/type", string(reqBody))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.TypeResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "SaaS Subscription", out.ContractType)
	assert.Equal(t, "high", out.Confidence)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios(t *testing.T) {
	srv := newTestServer(t, nil)

	// List
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/scenarios", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []api.ScenarioDTO
	require.NoError(t, json.Unmarshal(body, &list))
	assert.NotEmpty(t, list)

	// Load
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load", `{"scenario_id": "payment-cadences"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/contracts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var contracts []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &contracts))
	assert.Len(t, contracts, 3)

	// Current
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/scenarios/current", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "payment-cadences")

	// Reset
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/reset", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/contracts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	contracts = nil
	require.NoError(t, json.Unmarshal(body, &contracts))
	assert.Empty(t, contracts)
}

func TestLoadScenario_Unknown(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load", `{"scenario_id": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMultiObligationScheduleOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{
		"contract_start_date": "2024-01-01",
		"contract_end_date": "2024-12-31",
		"total_contract_value": "18000",
		"payment_terms": "monthly",
		"obligations": [
			{"name": "setup", "allocated_value": 6000, "recognition": "upfront"},
			{"name": "subscription", "allocated_value": 12000, "recognition": "over_time"}
		]
	}`
	resp, respBody := doJSON(t, http.MethodPost, srv.URL+"/api/schedule", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := scheduleRows(t, respBody)
	require.Len(t, rows, 12)
	assert.EqualValues(t, 7000, rows[0]["revenue_amount"])
	assert.EqualValues(t, 6000, rows[0]["revenue_setup"])
	assert.EqualValues(t, 1000, rows[0]["revenue_subscription"])
}
