package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/modelstd/internal/biochem"
	"github.com/agenthands/modelstd/internal/core"
	"github.com/agenthands/modelstd/internal/core/model"
	"github.com/agenthands/modelstd/internal/core/review"
	"github.com/agenthands/modelstd/internal/metrics"
)

type mockLLM struct {
	response string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return m.response, nil
}

const toyModel = `{
  "id": "toy",
  "metabolites": [
    {"id": "glc_c", "formula": "C6H12O6", "charge": 0, "compartment": "c"},
    {"id": "pyr_c", "formula": "C3H4O3", "charge": -1, "compartment": "c"}
  ],
  "reactions": [
    {"id": "R1", "metabolites": {"glc_c": -1, "pyr_c": 2}, "lower_bound": 0, "upper_bound": 1000}
  ]
}`

func setup(t *testing.T, advice string) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := biochem.NewMemory([]model.CanonicalCompound{
		{ID: "cpd00027", Formula: "C6H12O6"},
		{ID: "cpd00108", Formula: "C6H12O6"},
		{ID: "cpd00020", Formula: "C3H4O3", Charge: -1},
	}, nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	std := core.NewStandardizer(db, core.Options{Metrics: metrics.New(reg)})
	advisor := review.NewAdvisor(&mockLLM{response: advice}, db, nil)
	return NewServer(std, advisor, reg, nil, 10).SetupRouter(), reg
}

func post(r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := setup(t, "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStandardize(t *testing.T) {
	r, _ := setup(t, "")
	w := post(r, "/v1/standardize", map[string]interface{}{"model": json.RawMessage(toyModel)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp StandardizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	e, ok := resp.Translations.Lookup(model.KindCompound, "pyr_c")
	require.True(t, ok)
	assert.Equal(t, "cpd00020", e.Canonical)
	require.Len(t, resp.Proposals, 1)
	assert.Equal(t, "glc_c", resp.Proposals[0].Local)
	assert.Equal(t, model.OutcomeConverged, resp.Report.Outcome)
	assert.Contains(t, string(resp.Model), `"cpd00020"`)
}

func TestStandardizeWithApproval(t *testing.T) {
	r, _ := setup(t, "")
	w := post(r, "/v1/standardize", map[string]interface{}{
		"model":     json.RawMessage(toyModel),
		"approvals": []core.Approval{{Kind: model.KindCompound, Local: "glc_c", Canonical: "cpd00027"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp StandardizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Proposals)
	assert.Equal(t, 1, resp.Report.Compounds.Probable)

	w = post(r, "/v1/standardize", map[string]interface{}{
		"model":     json.RawMessage(toyModel),
		"approvals": []core.Approval{{Kind: model.KindCompound, Local: "glc_c", Canonical: "cpd99999"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStandardizeBadRequests(t *testing.T) {
	r, _ := setup(t, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/standardize", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, "/v1/standardize", map[string]interface{}{"model": json.RawMessage(`{"metabolites": [], "reactions": [{"id": "R", "metabolites": {"x": 1}}]}`)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, "/v1/standardize", map[string]interface{}{"model": json.RawMessage(toyModel), "max_iterations": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReview(t *testing.T) {
	r, _ := setup(t, `{"advice": [{"kind": "compound", "local": "glc_c", "recommended": "cpd00027", "confidence": 0.9}]}`)
	proposals := []model.ProposedMatch{{
		Kind:  model.KindCompound,
		Local: "glc_c",
		Candidates: []model.Candidate{
			{Canonical: "cpd00027", Evidence: []model.EvidenceKind{model.EvidenceFormula}},
			{Canonical: "cpd00108", Evidence: []model.EvidenceKind{model.EvidenceFormula}},
		},
	}}
	w := post(r, "/v1/review", map[string]interface{}{"proposals": proposals, "model": json.RawMessage(toyModel)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Proposals []model.ProposedMatch `json:"proposals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Proposals, 1)
	require.NotNil(t, resp.Proposals[0].Advice)
	assert.Equal(t, "cpd00027", resp.Proposals[0].Advice.Recommended)
}

func TestMetrics(t *testing.T) {
	r, _ := setup(t, "")
	post(r, "/v1/standardize", map[string]interface{}{"model": json.RawMessage(toyModel)})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "modelstd_")
}
