package server

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/mintesnot-teshome/llm-verify/internal/analysis"
	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

// RunnerService is what the API needs from the benchmark runner. Tests
// provide a fake.
type RunnerService interface {
	RunBenchmark(ctx context.Context, req BenchmarkRequest) (RunMeta, int, error)
	RunSuite(ctx context.Context, config probe.ModelConfig, suite string) (string, []probe.Record, error)
}

type API struct {
	auth     *Auth
	store    Store
	runner   RunnerService
	analyzer *analysis.Analyzer
	obs      *Observability
}

func NewAPI(auth *Auth, store Store, runner RunnerService, analyzer *analysis.Analyzer, obs *Observability) *API {
	return &API{
		auth:     auth,
		store:    store,
		runner:   runner,
		analyzer: analyzer,
		obs:      obs,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealthz)

	mux.HandleFunc("POST /api/v1/auth/login", a.auth.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", a.auth.HandleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", a.auth.HandleMe)

	mux.Handle("POST /api/v1/benchmarks", a.auth.RequireAdmin(http.HandlerFunc(a.handleCreateBenchmark)))
	mux.Handle("GET /api/v1/benchmarks", a.auth.Require(http.HandlerFunc(a.handleListBenchmarks)))
	mux.Handle("GET /api/v1/benchmarks/{id}", a.auth.Require(http.HandlerFunc(a.handleGetBenchmark)))

	mux.Handle("GET /api/v1/results/{run_id}", a.auth.Require(http.HandlerFunc(a.handleGetResults)))
	mux.Handle("GET /api/v1/results/{run_id}/fingerprint", a.auth.Require(http.HandlerFunc(a.handleGetFingerprint)))
	mux.Handle("POST /api/v1/results/compare", a.auth.Require(http.HandlerFunc(a.handleCompareRuns)))

	mux.Handle("POST /api/v1/analysis/deep", a.auth.RequireAdmin(http.HandlerFunc(a.handleDeepAnalysis)))

	wrapped := otelhttp.NewHandler(mux, "verify-api-http")
	return withCORS(wrapped)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": nowRFC3339(),
	})
}

func (a *API) handleCreateBenchmark(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("verify-api").Start(r.Context(), "benchmarks.create")
	defer span.End()
	var req BenchmarkRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if probe.Suite(req.PromptSuite) == nil {
		writeError(w, http.StatusBadRequest, "unknown prompt suite")
		return
	}
	if len(req.ModelConfigs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one model config required")
		return
	}
	principal, _ := PrincipalFromContext(ctx)
	req.CreatedBy = principal.Username

	meta, count, err := a.runner.RunBenchmark(ctx, req)
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"run":          meta,
		"result_count": count,
	})
}

func (a *API) handleListBenchmarks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"runs": a.store.ListRuns(parseLimit(r, 100)),
	})
}

func (a *API) handleGetBenchmark(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing run id")
		return
	}
	meta, ok := a.store.GetRun(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (a *API) handleGetResults(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		writeError(w, http.StatusBadRequest, "missing run id")
		return
	}
	if _, ok := a.store.GetRun(runID); !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	modelName := strings.TrimSpace(r.URL.Query().Get("model_name"))
	var records []probe.Record
	if modelName != "" {
		records = a.store.ListRecordsByModel(runID, modelName)
	} else {
		records = a.store.ListRecords(runID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  runID,
		"results": records,
	})
}

func (a *API) handleGetFingerprint(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		writeError(w, http.StatusBadRequest, "missing run id")
		return
	}
	if _, ok := a.store.GetRun(runID); !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	modelName := strings.TrimSpace(r.URL.Query().Get("model_name"))
	var records []probe.Record
	if modelName != "" {
		records = a.store.ListRecordsByModel(runID, modelName)
	} else {
		records = a.store.ListRecords(runID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":      runID,
		"fingerprint": analysis.GenerateFingerprint(records),
	})
}

func (a *API) handleCompareRuns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BaselineRunID string `json:"baseline_run_id"`
		SuspectRunID  string `json:"suspect_run_id"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.BaselineRunID = strings.TrimSpace(req.BaselineRunID)
	req.SuspectRunID = strings.TrimSpace(req.SuspectRunID)
	if req.BaselineRunID == "" || req.SuspectRunID == "" {
		writeError(w, http.StatusBadRequest, "baseline_run_id and suspect_run_id required")
		return
	}
	if _, ok := a.store.GetRun(req.BaselineRunID); !ok {
		writeError(w, http.StatusNotFound, "baseline run not found")
		return
	}
	if _, ok := a.store.GetRun(req.SuspectRunID); !ok {
		writeError(w, http.StatusNotFound, "suspect run not found")
		return
	}
	score := analysis.CompareRuns(req.BaselineRunID, req.SuspectRunID,
		a.store.ListRecords(req.BaselineRunID), a.store.ListRecords(req.SuspectRunID))
	writeJSON(w, http.StatusOK, score)
}

func (a *API) handleDeepAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("verify-api").Start(r.Context(), "analysis.deep")
	defer span.End()
	var req analysis.Request
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if len(req.ModelConfigs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one model config required")
		return
	}
	report, err := a.analyzer.Analyze(ctx, req)
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	for _, flag := range report.RedFlags {
		a.obs.MarkRedFlag(ctx, string(flag.Severity))
	}
	writeJSON(w, http.StatusOK, report)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
