package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	"github.com/yungbote/disaforms-backend/internal/data/repos/testutil"
	"github.com/yungbote/disaforms-backend/internal/forms"
	httpH "github.com/yungbote/disaforms-backend/internal/http/handlers"
	"github.com/yungbote/disaforms-backend/internal/observability"
	"github.com/yungbote/disaforms-backend/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	cat, err := forms.LoadCatalogue(log, "")
	if err != nil {
		t.Fatalf("LoadCatalogue: %v", err)
	}
	set := repos.NewSet(db, log)
	metrics := observability.New()
	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewObservabilityHooks(metrics)}
	recAgg := aggregates.NewRecordAggregate(aggregates.RecordAggregateDeps{Base: base, Repos: set})
	colAgg := aggregates.NewColumnAggregate(aggregates.ColumnAggregateDeps{Base: base, Columns: set.Columns})
	cpAgg := aggregates.NewCheckpointAggregate(aggregates.CheckpointAggregateDeps{Base: base, Checkpoints: set.Checkpoints})
	ncrAgg := aggregates.NewNCRAggregate(aggregates.NCRAggregateDeps{Base: base, Repos: set})

	return NewRouter(RouterConfig{
		Log:            log,
		Metrics:        metrics,
		FormHandler:    httpH.NewFormHandler(cat, services.NewColumnService(log, cat, set.Columns, colAgg), services.NewCheckpointService(log, cat, set.Checkpoints, cpAgg)),
		RecordHandler:  httpH.NewRecordHandler(services.NewRecordService(log, cat, set, recAgg)),
		SignoffHandler: httpH.NewSignoffHandler(services.NewSignoffService(log, cat, set, recAgg), services.NewNCRService(log, cat, set, ncrAgg)),
		ReportHandler:  httpH.NewReportHandler(services.NewReportService(log, cat, set, metrics, services.ReportConfig{Company: "Sakthi Auto"})),
		UserHandler:    httpH.NewUserHandler(services.NewUserService(log, set.Users)),
		HealthHandler:  httpH.NewHealthHandler(db),
	})
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)
	if rec := do(t, r, http.MethodGet, "/healthcheck", nil); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d %q", rec.Code, rec.Body.String())
	}
	rec := do(t, r, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "disaforms_api_requests_total") {
		t.Fatalf("metrics: got=%d", rec.Code)
	}
}

func TestFormsCatalogueAndUnknownForm(t *testing.T) {
	r := newTestRouter(t)
	var list struct {
		Forms []any `json:"forms"`
	}
	rec := do(t, r, http.MethodGet, "/api/forms", nil)
	decode(t, rec, &list)
	if len(list.Forms) != 7 {
		t.Fatalf("forms: want=7 got=%d", len(list.Forms))
	}

	rec = do(t, r, http.MethodGet, "/api/forms/nope/custom-columns", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown form: want=404 got=%d", rec.Code)
	}
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decode(t, rec, &env)
	if env.Error.Code != "not_found" {
		t.Fatalf("error code: want=not_found got=%q", env.Error.Code)
	}
}

func TestCustomColumnLifecycle(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/api/forms/unpoured-mould/custom-columns", map[string]string{"label": "Ladle Delay"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: want=201 got=%d %s", rec.Code, rec.Body.String())
	}
	var added struct {
		Column struct {
			ID    uint   `json:"id"`
			Label string `json:"label"`
		} `json:"column"`
	}
	decode(t, rec, &added)

	if rec := do(t, r, http.MethodPost, "/api/forms/unpoured-mould/custom-columns", map[string]string{"label": "  "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank label: want=400 got=%d", rec.Code)
	}
	if rec := do(t, r, http.MethodPut, "/api/forms/unpoured-mould/custom-columns/abc", map[string]string{"label": "x"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: want=400 got=%d", rec.Code)
	}
	if rec := do(t, r, http.MethodDelete, "/api/forms/unpoured-mould/custom-columns/"+itoa(added.Column.ID), nil); rec.Code != http.StatusOK {
		t.Fatalf("remove: want=200 got=%d", rec.Code)
	}
	var cols struct {
		Columns []any `json:"columns"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/forms/unpoured-mould/custom-columns", nil), &cols)
	if len(cols.Columns) != 0 {
		t.Fatalf("columns after remove: want=0 got=%d", len(cols.Columns))
	}
}

func TestSaveSignAndReport(t *testing.T) {
	r := newTestRouter(t)
	if rec := do(t, r, http.MethodPost, "/api/users", map[string]string{"username": "meena", "password": "pw", "role": "hod"}); rec.Code != http.StatusCreated {
		t.Fatalf("create user: want=201 got=%d %s", rec.Code, rec.Body.String())
	}

	save := map[string]any{
		"date":        "2024-05-01",
		"machine":     "DISA-I",
		"rows":        []map[string]any{{"rowKey": "1", "fields": map[string]any{"isDone": true}}, {"rowKey": "2"}},
		"assignments": map[string]string{"HOD": "meena"},
	}
	rec := do(t, r, http.MethodPost, "/api/forms/disa-checklist/save", save)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: want=200 got=%d %s", rec.Code, rec.Body.String())
	}

	var pending struct {
		Pending []services.PendingItem `json:"pending"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/forms/disa-checklist/pending/hod/meena", nil), &pending)
	if len(pending.Pending) != 1 || len(pending.Pending[0].RecordIDs) != 2 {
		t.Fatalf("pending: got=%+v", pending.Pending)
	}

	rec = do(t, r, http.MethodPost, "/api/forms/disa-checklist/sign", map[string]any{"date": "2024-05-01", "machine": "DISA-I", "role": "HOD", "signature": "sig"})
	if rec.Code != http.StatusOK {
		t.Fatalf("sign: want=200 got=%d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, r, http.MethodPost, "/api/forms/disa-checklist/sign", map[string]any{"date": "2024-05-01", "machine": "DISA-I", "role": "HOD"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty signature: want=400 got=%d", rec.Code)
	}

	rec = do(t, r, http.MethodGet, "/api/forms/disa-checklist/report?fromDate=2024-05-01&toDate=2024-05-31", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("report: got=%d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "disa-checklist_2024-05-01_2024-05-31.pdf") {
		t.Fatalf("content disposition: got=%q", cd)
	}
	if rec := do(t, r, http.MethodGet, "/api/forms/disa-checklist/report?fromDate=2024-05-31&toDate=2024-05-01", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted range: want=400 got=%d", rec.Code)
	}

	var bulk struct {
		Groups []struct {
			Rows []any `json:"rows"`
		} `json:"groups"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/forms/disa-checklist/bulk-data?fromDate=2024-05-01&toDate=2024-05-31", nil), &bulk)
	if len(bulk.Groups) != 1 || len(bulk.Groups[0].Rows) != 2 {
		t.Fatalf("bulk: got=%+v", bulk.Groups)
	}
}

func TestUserConflictAndDelete(t *testing.T) {
	r := newTestRouter(t)
	body := map[string]string{"username": "ravi", "password": "pw", "role": "supervisor"}
	if rec := do(t, r, http.MethodPost, "/api/users", body); rec.Code != http.StatusCreated {
		t.Fatalf("create: want=201 got=%d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/api/users", body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: want=409 got=%d", rec.Code)
	}
	var byRole struct {
		Usernames []string `json:"usernames"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/users/by-role/supervisor", nil), &byRole)
	if len(byRole.Usernames) != 1 || byRole.Usernames[0] != "ravi" {
		t.Fatalf("by role: got=%v", byRole.Usernames)
	}
	if rec := do(t, r, http.MethodDelete, "/api/users/999", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing: want=404 got=%d", rec.Code)
	}
}

func itoa(n uint) string {
	b, _ := json.Marshal(n)
	return string(b)
}
