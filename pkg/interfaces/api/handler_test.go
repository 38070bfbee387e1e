package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/newwavedigital/ERP-sub000/pkg/application/services/aggregator"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/orchestration"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/remediation"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/resolver"
	testinghelpers "github.com/newwavedigital/ERP-sub000/pkg/application/services/testing"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/memory"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeBackend stands in for the hosted store's remote procedures
type fakeBackend struct {
	mu         sync.Mutex
	response   map[string]interface{}
	allocErr   error
	purchases  int
	production int
}

func (f *fakeBackend) AllocateOrder(ctx context.Context, orderID string) (map[string]interface{}, error) {
	return f.response, f.allocErr
}

func (f *fakeBackend) GenerateProductionCoverage(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.production++
	return nil
}

func (f *fakeBackend) GeneratePurchaseRequisitions(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchases++
	return nil
}

func allocationResponse() map[string]interface{} {
	return map[string]interface{}{
		"status": "partially_allocated",
		"lines": []interface{}{
			map[string]interface{}{
				"material_id": "M-SUGAR", "material_name": "Cane Sugar",
				"required_qty": 25.0, "allocated_qty": 10.0, "suggestion": "purchase",
			},
			map[string]interface{}{
				"material_id": "M-CLIENT-OIL", "material_name": "Client Sunflower Oil",
				"required_qty": "2.5", "allocated_qty": 1.0, "is_client_material": true,
			},
		},
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T, backend *fakeBackend) (*gin.Engine, *memory.AlertRepository) {
	t.Helper()

	agg := aggregator.NewAggregator(resolver.NewResolver(testinghelpers.BuildPreservesCatalog()), nil)
	calc := orchestration.NewCalculatorOrchestrator(agg, testinghelpers.BuildPreservesStock(), backend, nil, nil)

	alerts := memory.NewAlertRepository()
	svc := remediation.NewService(memory.NewSessionStore(), backend, alerts, nil, nil)

	return NewRouter(NewHandler(calc, svc, nil), nil), alerts
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

var preservesBatch = map[string]interface{}{
	"lines": []map[string]interface{}{
		{"id": "L1", "product_id": "P-JAM", "quantity": 10},
		{"product_name": "Tomato Relish", "quantity": "5"},
	},
}

func TestHandler_Live(t *testing.T) {
	r, _ := setupRouter(t, &fakeBackend{})

	w, env := do(t, r, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandler_Requirements(t *testing.T) {
	r, _ := setupRouter(t, &fakeBackend{})

	w, env := do(t, r, http.MethodPost, "/api/v1/batches/B1/requirements", preservesBatch)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report struct {
		BatchID string `json:"batch_id"`
		Raw     []struct {
			MaterialID  string `json:"material_id"`
			RequiredQty string `json:"required_qty"`
		} `json:"raw"`
		Packaging []json.RawMessage `json:"packaging"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))

	assert.Equal(t, "B1", report.BatchID)
	assert.Len(t, report.Packaging, 2)
	found := false
	for _, req := range report.Raw {
		if req.MaterialID == testinghelpers.Sugar {
			found = true
			assert.Equal(t, "25", req.RequiredQty)
		}
	}
	assert.True(t, found, "sugar requirement missing")
}

func TestHandler_BadBatch(t *testing.T) {
	r, _ := setupRouter(t, &fakeBackend{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"no lines field", map[string]interface{}{}},
		{"line without product", map[string]interface{}{"lines": []map[string]interface{}{{"quantity": 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/v1/batches/B1/calculate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 40000, env.Code)
		})
	}
}

func TestHandler_Calculate(t *testing.T) {
	r, _ := setupRouter(t, &fakeBackend{})

	w, env := do(t, r, http.MethodPost, "/api/v1/batches/B1/calculate", preservesBatch)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Summary struct {
			Status         string `json:"status"`
			TotalShortfall string `json:"total_shortfall"`
		} `json:"summary"`
		Queues struct {
			ClientRequests       []json.RawMessage `json:"client_requests"`
			PurchaseRequisitions []json.RawMessage `json:"purchase_requisitions"`
		} `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "partial", result.Summary.Status)
	assert.Equal(t, "16.5", result.Summary.TotalShortfall)
	assert.Len(t, result.Queues.ClientRequests, 1)
	assert.Len(t, result.Queues.PurchaseRequisitions, 1)
}

func TestHandler_ExportRequirements(t *testing.T) {
	r, _ := setupRouter(t, &fakeBackend{})

	w, _ := do(t, r, http.MethodPost, "/api/v1/batches/B7/requirements/export", preservesBatch)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "B7_materials.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Requirements")
}

func TestHandler_Allocate(t *testing.T) {
	r, _ := setupRouter(t, &fakeBackend{response: allocationResponse()})

	w, env := do(t, r, http.MethodPost, "/api/v1/orders/O1/allocate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Report  *struct{} `json:"report"`
		Summary struct {
			BatchID        string `json:"batch_id"`
			Status         string `json:"status"`
			UpstreamStatus string `json:"upstream_status"`
			TotalShortfall string `json:"total_shortfall"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Nil(t, result.Report)
	assert.Equal(t, "O1", result.Summary.BatchID)
	assert.Equal(t, "partial", result.Summary.Status)
	assert.Equal(t, "partial", result.Summary.UpstreamStatus)
	assert.Equal(t, "16.5", result.Summary.TotalShortfall)
}

func TestHandler_AllocateFailure(t *testing.T) {
	r, _ := setupRouter(t, &fakeBackend{allocErr: errors.New("connection refused")})

	w, env := do(t, r, http.MethodPost, "/api/v1/orders/O1/allocate", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, env.Message, "connection refused")
}

func TestHandler_RemediationFlow(t *testing.T) {
	backend := &fakeBackend{response: allocationResponse()}
	r, _ := setupRouter(t, backend)

	w, env := do(t, r, http.MethodPost, "/api/v1/orders/O1/remediation-sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session struct {
		ID    string `json:"id"`
		State string `json:"state"`
		Lines []struct {
			Action string `json:"action"`
			State  string `json:"state"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.Len(t, session.Lines, 2)
	assert.Equal(t, "open", session.State)
	assert.Equal(t, "purchase", session.Lines[0].Action, "seeded from the upstream suggestion")
	assert.Equal(t, "unresolved", session.Lines[1].State)

	base := "/api/v1/remediation-sessions/" + session.ID

	w, env = do(t, r, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 42200, env.Code)

	w, _ = do(t, r, http.MethodPut, base+"/lines/1", map[string]string{"action": "later"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPut, base+"/lines/9", map[string]string{"action": "skip"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPut, base+"/lines/1", map[string]string{"action": "skip"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = do(t, r, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, backend.purchases)
	assert.Equal(t, 0, backend.production)

	w, env = do(t, r, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40901, env.Code)
	assert.Equal(t, 1, backend.purchases, "a repeated submit must not call the backend")

	w, env = do(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, "submitted", session.State)
}

func TestHandler_DeferSession(t *testing.T) {
	r, alerts := setupRouter(t, &fakeBackend{response: allocationResponse()})

	_, env := do(t, r, http.MethodPost, "/api/v1/orders/O1/remediation-sessions", nil)
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	w, env := do(t, r, http.MethodPost, "/api/v1/remediation-sessions/"+session.ID+"/defer", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, alerts.Alerts(), 2)

	w, env = do(t, r, http.MethodPost, "/api/v1/remediation-sessions/"+session.ID+"/defer", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40902, env.Code)
}

func TestHandler_ClientRequests(t *testing.T) {
	r, alerts := setupRouter(t, &fakeBackend{response: allocationResponse()})

	w, _ := do(t, r, http.MethodPost, "/api/v1/orders/O1/client-requests", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	recorded := alerts.Alerts()
	require.Len(t, recorded, 1)
	assert.Equal(t, "M-CLIENT-OIL", recorded[0].SubjectID)
}

func TestHandler_UnknownSession(t *testing.T) {
	r, _ := setupRouter(t, &fakeBackend{})

	w, env := do(t, r, http.MethodGet, "/api/v1/remediation-sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)
}

func TestHandler_NoAllocationGateway(t *testing.T) {
	agg := aggregator.NewAggregator(resolver.NewResolver(testinghelpers.BuildPreservesCatalog()), nil)
	calc := orchestration.NewCalculatorOrchestrator(agg, nil, nil, nil, nil)
	r := NewRouter(NewHandler(calc, nil, nil), nil)

	w, env := do(t, r, http.MethodPost, "/api/v1/orders/O1/allocate", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 50300, env.Code)
}

func TestHandler_SubmitWithoutRemediationGateway(t *testing.T) {
	backend := &fakeBackend{response: allocationResponse()}
	agg := aggregator.NewAggregator(resolver.NewResolver(testinghelpers.BuildPreservesCatalog()), nil)
	calc := orchestration.NewCalculatorOrchestrator(agg, testinghelpers.BuildPreservesStock(), backend, nil, nil)
	svc := remediation.NewService(memory.NewSessionStore(), nil, memory.NewAlertRepository(), nil, nil)
	r := NewRouter(NewHandler(calc, svc, nil), nil)

	w, env := do(t, r, http.MethodPost, "/api/v1/orders/O1/remediation-sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	base := "/api/v1/remediation-sessions/" + session.ID
	w, _ = do(t, r, http.MethodPut, base+"/lines/1", map[string]string{"action": "skip"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = do(t, r, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 50301, env.Code)

	w, env = do(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"state":"open"`)
}

func TestRouter_Gzip(t *testing.T) {
	r, _ := setupRouter(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}
