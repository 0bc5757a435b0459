package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/finscope/internal/analysis"
	"github.com/newthinker/finscope/internal/api/job"
	"github.com/newthinker/finscope/internal/api/response"
	"github.com/newthinker/finscope/internal/core"
)

type fakeAnalyzer struct {
	mu   sync.Mutex
	opts analysis.Options
	err  error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, symbol string, opts analysis.Options) (*analysis.Report, error) {
	f.mu.Lock()
	f.opts = opts
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.Report{
		Symbol: symbol,
		Status: analysis.StatusPartial,
		Errors: map[analysis.Step]analysis.StepError{
			analysis.StepOverview: {Code: "SYMBOL_NOT_FOUND", Message: "symbol not found"},
		},
	}, nil
}

func TestAnalysisHandler_Run(t *testing.T) {
	a := &fakeAnalyzer{}
	handler := NewAnalysisHandler(a, nil)

	req := httptest.NewRequest("POST", "/api/v1/analysis/AAPL?summarize=true", nil)
	req.SetPathValue("symbol", "AAPL")
	w := httptest.NewRecorder()

	handler.Run(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !a.opts.Summarize {
		t.Error("expected summarize option to be passed through")
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	if data["status"] != "partial" {
		t.Errorf("expected partial status, got %v", data["status"])
	}
	if _, ok := data["errors"].(map[string]any)["overview"]; !ok {
		t.Errorf("expected overview error in report, got %v", data["errors"])
	}
}

func TestAnalysisHandler_NoData(t *testing.T) {
	handler := NewAnalysisHandler(&fakeAnalyzer{err: core.WrapError(core.ErrNoData, nil)}, nil)

	req := httptest.NewRequest("POST", "/api/v1/analysis/ZZZZ", nil)
	req.SetPathValue("symbol", "ZZZZ")
	w := httptest.NewRecorder()

	handler.Run(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// waitJob polls the job endpoint until the job finishes.
func waitJob(t *testing.T, handler *AnalysisHandler, id string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest("GET", "/api/v1/analysis/jobs/"+id, nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.Job(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp response.SuccessResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		data := resp.Data.(map[string]any)
		if s := data["status"]; s == string(job.StatusComplete) || s == string(job.StatusFailed) {
			return data
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

func startJob(t *testing.T, handler *AnalysisHandler, symbol string) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/analysis/"+symbol+"?async=true", nil)
	req.SetPathValue("symbol", symbol)
	w := httptest.NewRecorder()
	handler.Run(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	id, _ := resp.Data.(map[string]any)["job_id"].(string)
	if id == "" {
		t.Fatal("expected job id")
	}
	return id
}

func TestAnalysisHandler_AsyncJob(t *testing.T) {
	handler := NewAnalysisHandler(&fakeAnalyzer{}, job.NewStore(10, time.Hour))

	data := waitJob(t, handler, startJob(t, handler, "AAPL"))
	if data["status"] != "complete" || data["symbol"] != "AAPL" {
		t.Errorf("unexpected job %v", data)
	}
	result := data["result"].(map[string]any)
	if result["status"] != "partial" {
		t.Errorf("expected partial report, got %v", result["status"])
	}
}

func TestAnalysisHandler_AsyncJobFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: core.Describe(core.ErrNoData, "", "", "ZZZZ")}
	handler := NewAnalysisHandler(analyzer, job.NewStore(10, time.Hour))

	data := waitJob(t, handler, startJob(t, handler, "ZZZZ"))
	if data["status"] != "failed" {
		t.Fatalf("expected failed job, got %v", data["status"])
	}
	if code := data["error"].(map[string]any)["code"]; code != "NO_DATA" {
		t.Errorf("expected NO_DATA, got %v", code)
	}
}

func TestAnalysisHandler_UnknownJob(t *testing.T) {
	handler := NewAnalysisHandler(&fakeAnalyzer{}, job.NewStore(10, time.Hour))

	req := httptest.NewRequest("GET", "/api/v1/analysis/jobs/nope", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	handler.Job(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
