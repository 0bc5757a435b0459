package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/finscope/internal/analysis"
	"github.com/newthinker/finscope/internal/api/job"
	"github.com/newthinker/finscope/internal/api/response"
	"github.com/newthinker/finscope/internal/core"
)

// analysisJobTimeout bounds a background run, summary included.
const analysisJobTimeout = 2 * time.Minute

// Analyzer defines the workflow needed by the analysis endpoint.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, opts analysis.Options) (*analysis.Report, error)
}

// AnalysisHandler handles analysis workflow requests.
type AnalysisHandler struct {
	analyzer Analyzer
	jobs     *job.Store
}

// NewAnalysisHandler creates a new analysis handler. jobs may be nil, which
// disables background runs.
func NewAnalysisHandler(analyzer Analyzer, jobs *job.Store) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, jobs: jobs}
}

// Run handles POST /api/v1/analysis/{symbol}?summarize=true&async=true.
// A partial report is still a 200; the report lists the missing sections.
// With async the run moves to the background and a job is returned.
func (h *AnalysisHandler) Run(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summarize, _ := strconv.ParseBool(q.Get("summarize"))
	async, _ := strconv.ParseBool(q.Get("async"))
	opts := analysis.Options{Summarize: summarize}
	symbol := r.PathValue("symbol")

	if async && h.jobs != nil {
		h.start(w, r, symbol, opts)
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), symbol, opts)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

func (h *AnalysisHandler) start(w http.ResponseWriter, r *http.Request, symbol string, opts analysis.Options) {
	j := h.jobs.Create("analysis", symbol)

	// the run outlives the request but keeps its values
	ctx := context.WithoutCancel(r.Context())
	go h.runJob(ctx, j.ID, symbol, opts)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

func (h *AnalysisHandler) runJob(ctx context.Context, jobID, symbol string, opts analysis.Options) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(ctx, analysisJobTimeout)
	defer cancel()
	report, err := h.analyzer.Analyze(ctx, symbol, opts)

	if err != nil {
		e, ok := core.AsError(err)
		if !ok {
			e = core.WrapError(core.ErrNoData, err)
		}
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = e
		})
		return
	}

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = report
	})
}

// Job handles GET /api/v1/analysis/jobs/{id}
func (h *AnalysisHandler) Job(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		response.Fail(w, core.ErrJobNotFound)
		return
	}
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":     j.ID,
		"symbol":     j.Symbol,
		"status":     j.Status,
		"created_at": j.CreatedAt,
		"updated_at": j.UpdatedAt,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Error(),
		}
	}
	response.JSON(w, http.StatusOK, resp)
}
