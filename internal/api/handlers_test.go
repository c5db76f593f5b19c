package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
	"github.com/jonesrussell/funnel-analyzer/internal/funnel"
	"github.com/jonesrussell/funnel-analyzer/internal/processor"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := config.Default().Funnel
	matcher := funnel.NewMatcher(cfg)
	classifier := funnel.NewStageClassifier(cfg, matcher, &mockLogger{})
	batch := processor.NewBatchClassifier(classifier, 2, nil, &mockLogger{})
	calculator := funnel.NewCalculator(matcher, &mockLogger{})

	handler := NewHandler(nil, batch, cfg, calculator, &mockLogger{})

	router := gin.New()
	SetupRoutes(router, handler, http.NotFoundHandler())
	return router
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected healthy, got %q", resp.Status)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	router := newTestRouter()

	body := map[string]any{
		"events": []map[string]any{
			{
				"user_id": "u1", "session_id": "s1", "event_name": "session_start",
				"page_path": "/", "source": "google", "medium": "organic",
				"timestamp": "2025-06-02T10:00:00Z",
			},
			{
				"user_id": "u1", "session_id": "s1", "event_name": "sign_up_complete",
				"page_path": "/signup", "source": "google", "medium": "organic",
				"timestamp": "2025-06-02T10:05:00Z",
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ClassifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 classified events, got %d", len(resp.Events))
	}
	if resp.Events[1].FunnelStage != domain.StageConversion {
		t.Errorf("expected CONVERSION, got %s", resp.Events[1].FunnelStage)
	}
	if resp.Funnel.OverallRate != 100.0 {
		t.Errorf("expected overall rate 100, got %f", resp.Funnel.OverallRate)
	}
}

func TestClassifyEndpoint_BadBody(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetRules(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/funnel/rules", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp RulesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.StageRules) != 4 {
		t.Errorf("expected 4 stage rules, got %d", len(resp.StageRules))
	}
	if resp.ConversionEvent != "sign_up_complete" {
		t.Errorf("unexpected conversion event %q", resp.ConversionEvent)
	}
}
