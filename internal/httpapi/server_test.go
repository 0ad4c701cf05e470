package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/internal/lotfile"
	"github.com/huangsam/bidsim/internal/store"
	"github.com/huangsam/bidsim/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLot(t *testing.T) schema.LotConfig {
	t.Helper()
	lot, _, err := lotfile.LoadLot("testdata/lot.yaml")
	require.NoError(t, err)
	return lot
}

// newTestServer returns a server backed by a mocked lot store holding lotto-1.
func newTestServer(t *testing.T) (*httptest.Server, *store.MockLotStore) {
	t.Helper()
	lots := &store.MockLotStore{}
	lots.On("Get", "lotto-1").Return(testLot(t), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), nil)
	lots.On("Get", mock.Anything).Return(schema.LotConfig{}, time.Time{}, fmt.Errorf("%w: %q", store.ErrLotNotFound, "ghost"))

	mgr := &store.MockStoreManager{}
	mgr.On("GetLotStore").Return(lots)
	mgr.On("GetRunStore").Return(nil)

	cfg := &contract.Config{Workers: 2, Seed: 3, BestDiscount: -1, Validate: false}
	srv := httptest.NewServer(NewRouter(cfg, mgr, NewLogger("json", io.Discard)))
	t.Cleanup(srv.Close)
	return srv, lots
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// TestHealth tests the liveness endpoint.
func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

// TestStatusCodes tests how bad input and engine errors map onto HTTP status codes.
func TestStatusCodes(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/api/economic", `{"base":`, http.StatusBadRequest},
		{"negative base", http.MethodPost, "/api/economic", `{"base":-5,"offered":1,"best":1}`, http.StatusBadRequest},
		{"unknown formula", http.MethodPost, "/api/economic", `{"base":5,"offered":1,"best":1,"formula":"cubic"}`, http.StatusBadRequest},
		{"alpha out of range", http.MethodPost, "/api/economic", `{"base":5,"offered":1,"best":1,"alpha":2}`, http.StatusBadRequest},
		{"discount out of range", http.MethodPost, "/api/lots/lotto-1/score", `{"discount":120}`, http.StatusBadRequest},
		{"zero iterations", http.MethodPost, "/api/lots/lotto-1/simulate", `{"my_discount":10,"iterations":0}`, http.StatusBadRequest},
		{"unknown lot", http.MethodGet, "/api/lots/ghost/max-points", "", http.StatusNotFound},
		{"unknown lot on score", http.MethodPost, "/api/lots/ghost/score", `{"discount":10}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))

			var out errorResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.NotEmpty(t, out.Error)
		})
	}
}

// TestEconomicEndpoint tests a standalone economic score.
func TestEconomicEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/economic", `{"base":1000,"offered":800,"best":800}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out schema.EconomicResult
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, schema.InterpolationFormula, out.Formula)
	assert.Equal(t, schema.DefaultAlpha, out.Alpha)
	assert.InDelta(t, 40.0, out.Score, 1e-9)
}

// TestEconomicEndpointFormulas tests that any registered formula is accepted.
func TestEconomicEndpointFormulas(t *testing.T) {
	algo.RegisterFormula("flat_http", func(_, _, _, _, maxEcon float64) float64 { return maxEcon / 4 })
	srv, _ := newTestServer(t)

	tests := []struct {
		name    string
		formula string
		status  int
	}{
		{"builtin", "linear", http.StatusOK},
		{"registered at runtime", "flat_http", http.StatusOK},
		{"unknown", "cubic", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"base":1000,"offered":800,"best":800,"max_econ":40,"formula":%q}`, tt.formula)
			resp, data := doJSON(t, http.MethodPost, srv.URL+"/api/economic", body)
			require.Equal(t, tt.status, resp.StatusCode, string(data))
			if tt.status != http.StatusOK {
				return
			}
			var res schema.EconomicResult
			require.NoError(t, json.Unmarshal(data, &res))
			assert.Equal(t, schema.FormulaID(tt.formula), res.Formula)
		})
	}
}

// TestRequirementMaxPointsEndpoint tests the single requirement ceiling.
func TestRequirementMaxPointsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/requirements/max-points",
		`{"id":"R9","type":"resource","resource":{"prof_R":3,"prof_C":2}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out schema.RequirementPoint
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 12.0, out.MaxPoints)
	assert.False(t, out.Overridden)
}

// TestLotEndpoints tests max points and scoring against a stored lot.
func TestLotEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("max points", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/lots/lotto-1/max-points", "")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var out schema.MaxPointsResult
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, "Lotto 1", out.LotName)
		assert.Len(t, out.Requirements, 2)
	})

	t.Run("score with shorthand criteria", func(t *testing.T) {
		payload := `{
			"discount": 20,
			"inputs": {
				"requirements": {
					"R1": {"r_val": 5, "c_val": 5},
					"REF1": {"criteria": {"c1": "adeguato", "c2": 4}}
				}
			}
		}`
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/lots/lotto-1/score", payload)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var out schema.ScoreReport
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Greater(t, out.Technical.Total, 20.0)
		require.NotNil(t, out.Bid)
		assert.Equal(t, 800_000.0, out.Bid.Price)
		assert.Equal(t, 40.0, out.Bid.Economic)
	})

	t.Run("lot detail", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/lots/lotto-1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var out lotResponse
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, "lotto-1", out.ID)
		assert.Equal(t, 1_000_000.0, out.Lot.BaseAmount)
	})
}

// TestSimulateAndOptimizeEndpoints tests the two scenario engines over HTTP.
func TestSimulateAndOptimizeEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("simulate", func(t *testing.T) {
		payload := `{"my_discount":25,"my_tech_score":50,
			"competitor_discount":{"mean":20,"std":5},
			"competitor_tech":{"mean":50,"std":5},"iterations":300,"seed":9}`
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/lots/lotto-1/simulate", payload)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var out schema.SimulationResult
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, 300, out.Iterations)
		assert.Equal(t, uint64(9), out.Seed)
		assert.Empty(t, out.Trials)
	})

	t.Run("optimize", func(t *testing.T) {
		payload := `{"my_tech_score":52.35,"competitor_tech_score":55,"competitor_discount":30}`
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/lots/lotto-1/optimize", payload)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var out schema.OptimizationResult
		require.NoError(t, json.Unmarshal(body, &out))
		require.True(t, out.Achievable)
		assert.Equal(t, 38.0, *out.MinDiscount)
		for _, sc := range out.Scenarios {
			assert.Nil(t, sc.WinProbability)
		}
	})
}

// TestLotManagementEndpoints tests storing, listing and deleting lots.
func TestLotManagementEndpoints(t *testing.T) {
	srv, lots := newTestServer(t)
	lots.On("Put", "new-lot", mock.MatchedBy(func(l schema.LotConfig) bool {
		return l.MaxRawScore > 0
	}), mock.AnythingOfType("time.Time")).Return(nil)
	lots.On("List").Return([]schema.LotSummary{{LotID: "lotto-1", Name: "Lotto 1"}}, nil)
	lots.On("Delete", "lotto-1").Return(nil)
	lots.On("Delete", "ghost").Return(fmt.Errorf("%w: %q", store.ErrLotNotFound, "ghost"))

	lotJSON, err := json.Marshal(testLot(t))
	require.NoError(t, err)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/api/lots/new-lot", string(lotJSON))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var stored lotResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(body)).Decode(&stored))
	assert.Equal(t, "new-lot", stored.ID)
	assert.Equal(t, 35.0, stored.Lot.Reqs[0].MaxPoints)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/lots", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []schema.LotSummary
	require.NoError(t, json.Unmarshal(body, &summaries))
	assert.Len(t, summaries, 1)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/lots/lotto-1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/lots/ghost", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	lots.AssertExpectations(t)
}

// TestLotStoreDisabled tests that lot endpoints answer 503 without a lot store.
func TestLotStoreDisabled(t *testing.T) {
	srv := httptest.NewServer(NewRouter(&contract.Config{}, nil, NewLogger("text", io.Discard)))
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/lots", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// TestMetricsEndpoint tests that engine collectors are exported.
func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/economic", `{"base":1000,"offered":900,"best":800}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
	assert.Contains(t, string(body), `bidsim_operations_total{operation="economic",status="ok"}`)
}
