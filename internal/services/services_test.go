package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/data/repos"
	"github.com/yungbote/disaforms-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/observability"
)

type fixture struct {
	repos       repos.Set
	cat         *forms.Catalogue
	records     RecordService
	signoff     SignoffService
	checkpoints CheckpointService
	reports     ReportService
	users       UserService
	metrics     *observability.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	cat, err := forms.LoadCatalogue(log, "")
	if err != nil {
		t.Fatalf("LoadCatalogue: %v", err)
	}
	set := repos.NewSet(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log}
	recAgg := aggregates.NewRecordAggregate(aggregates.RecordAggregateDeps{Base: base, Repos: set})
	cpAgg := aggregates.NewCheckpointAggregate(aggregates.CheckpointAggregateDeps{Base: base, Checkpoints: set.Checkpoints})
	metrics := observability.New()
	return &fixture{
		repos:       set,
		cat:         cat,
		records:     NewRecordService(log, cat, set, recAgg),
		signoff:     NewSignoffService(log, cat, set, recAgg),
		checkpoints: NewCheckpointService(log, cat, set.Checkpoints, cpAgg),
		reports:     NewReportService(log, cat, set, metrics, ReportConfig{Company: "Sakthi Auto"}),
		users:       NewUserService(log, set.Users),
		metrics:     metrics,
	}
}

func TestDetailsListsEveryActiveCheckpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.checkpoints.SeedAll(ctx); err != nil {
		t.Fatalf("SeedAll: %v", err)
	}
	if _, err := f.users.Create(ctx, UserInput{Username: "meena", Password: "pw", Role: "HOD"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	active, _ := f.checkpoints.List(ctx, "disa-checklist")
	if len(active) == 0 {
		t.Fatalf("seeded checkpoints: want >0")
	}

	_, err := f.records.Save(ctx, "disa-checklist", SaveRequest{
		Date:    "2024-05-01",
		Machine: "DISA-I",
		Rows:    []RowRequest{{CheckpointID: active[1].ID, Fields: map[string]any{"isDone": "true", "readingValue": 6}}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	d, err := f.records.Details(ctx, DetailsQuery{FormType: "disa-checklist", Date: "2024-05-01", Machine: "DISA-I"})
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(d.Rows) != len(active) {
		t.Fatalf("rows: want=%d got=%d", len(active), len(d.Rows))
	}
	if d.Rows[0].RecordID != 0 || d.Rows[0].Fields["isDone"] != false || d.Rows[0].Fields["readingValue"] != "" {
		t.Fatalf("blank row: got=%+v", d.Rows[0])
	}
	if d.Rows[1].RecordID == 0 || d.Rows[1].Fields["isDone"] != true || d.Rows[1].Fields["readingValue"] != "6" {
		t.Fatalf("stored row: got=%+v", d.Rows[1])
	}
	if d.Rows[1].Label != active[1].Description {
		t.Fatalf("label: want=%q got=%q", active[1].Description, d.Rows[1].Label)
	}
	if opts := d.Options["hod"]; len(opts) != 1 || opts[0] != "meena" {
		t.Fatalf("hod options: want=[meena] got=%v", opts)
	}

	if _, err := f.records.Details(ctx, DetailsQuery{FormType: "disa-checklist", Date: "2024-05-01"}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("missing machine: want validation got=%v", err)
	}
	if _, err := f.records.Details(ctx, DetailsQuery{FormType: "nope", Date: "2024-05-01", Machine: "DISA-I"}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown form: want not_found got=%v", err)
	}
}

func TestSaveRejectsBadCustomKey(t *testing.T) {
	f := newFixture(t)
	_, err := f.records.Save(context.Background(), "unpoured-mould", SaveRequest{
		Date:    "2024-05-01",
		Machine: "DISA-I",
		Rows:    []RowRequest{{Shift: 1, Custom: map[string]any{"abc": 1}}},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("bad custom key: want validation got=%v", err)
	}
}

func TestPendingBroadcastDayGroupsRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.records.Save(ctx, "disa-checklist", SaveRequest{
		Date:        "2024-05-01",
		Machine:     "DISA-I",
		Rows:        []RowRequest{{RowKey: "1"}, {RowKey: "2"}},
		Assignments: map[string]string{"HOD": "meena"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	items, err := f.signoff.Pending(ctx, "disa-checklist", "hod", "meena")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(items) != 1 || len(items[0].RecordIDs) != 2 {
		t.Fatalf("pending: want one item with 2 records got=%+v", items)
	}
	if _, err := f.signoff.Sign(ctx, "disa-checklist", SignRequest{RecordID: items[0].RecordID, Role: "hod", Signature: "data:image/png;base64,AAAA"}); err != nil {
		t.Fatalf("sign: %v", err)
	}
	items, _ = f.signoff.Pending(ctx, "disa-checklist", "hod", "meena")
	if len(items) != 0 {
		t.Fatalf("pending after sign: want=0 got=%d", len(items))
	}
	if _, err := f.signoff.Pending(ctx, "disa-checklist", "plant-head", "x"); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown role: want validation got=%v", err)
	}
}

func TestPendingHonoursStrictOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.records.Save(ctx, "four-m-change", SaveRequest{
		Date:    "2024-05-01",
		Machine: "DISA-I",
		Shift:   1,
		Rows: []RowRequest{
			{Fields: map[string]any{"partName": "Hub", "inchargeSign": "ravi", "assignedHOD": "meena"}},
			{Fields: map[string]any{"partName": "Bracket", "inchargeSign": "ravi", "assignedHOD": "meena"}},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(res.RecordIDs) != 2 {
		t.Fatalf("records: want=2 got=%d", len(res.RecordIDs))
	}

	sup, _ := f.signoff.Pending(ctx, "four-m-change", "Supervisor", "ravi")
	if len(sup) != 2 || sup[0].Fields["partName"] == nil {
		t.Fatalf("supervisor queue: want 2 rows with fields got=%+v", sup)
	}
	hod, _ := f.signoff.Pending(ctx, "four-m-change", "HOD", "meena")
	if len(hod) != 0 {
		t.Fatalf("hod queue before supervisor: want=0 got=%d", len(hod))
	}

	if _, err := f.signoff.Sign(ctx, "four-m-change", SignRequest{RecordID: res.RecordIDs[0], Role: "Supervisor", Signature: "sig", SignerName: "ravi"}); err != nil {
		t.Fatalf("supervisor sign: %v", err)
	}
	hod, _ = f.signoff.Pending(ctx, "four-m-change", "HOD", "meena")
	if len(hod) != 1 || hod[0].RecordID != res.RecordIDs[0] {
		t.Fatalf("hod queue: want=[%d] got=%+v", res.RecordIDs[0], hod)
	}
}

func TestBulkTotalsAndEmptyReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.records.Save(ctx, "unpoured-mould", SaveRequest{
		Date:    "2024-05-01",
		Machine: "DISA-I",
		Rows: []RowRequest{
			{Shift: 1, Fields: map[string]any{"patternChange": 2}},
			{Shift: 2, Fields: map[string]any{"patternChange": "abc"}},
			{Shift: 3, Fields: map[string]any{"patternChange": "5"}},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	groups, err := f.reports.Bulk(ctx, RangeQuery{FormType: "unpoured-mould", From: "2024-05-01", To: "2024-05-01"})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(groups) != 1 || groups[0].GrandTotal != 7 || groups[0].FieldTotals["patternChange"] != 7 {
		t.Fatalf("bulk totals: got=%+v", groups)
	}

	out, err := f.reports.Render(ctx, RangeQuery{FormType: "unpoured-mould", From: "2024-06-01", To: "2024-06-30"}, "pdf")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Pages != 1 || out.ContentType != "application/pdf" || !bytes.HasPrefix(out.Body, []byte("%PDF")) {
		t.Fatalf("empty report: pages=%d type=%s", out.Pages, out.ContentType)
	}

	if _, err := f.reports.Render(ctx, RangeQuery{FormType: "unpoured-mould", From: "2024-06-01", To: "2024-06-30"}, "docx"); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown format: want validation got=%v", err)
	}
	if _, err := f.reports.Bulk(ctx, RangeQuery{FormType: "unpoured-mould", From: "2024-06-30", To: "2024-06-01"}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("inverted range: want validation got=%v", err)
	}
}

func TestRenderXLSXWithSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.records.Save(ctx, "disa-checklist", SaveRequest{
		Date:       "2024-05-01",
		Machine:    "DISA-I",
		Rows:       []RowRequest{{RowKey: "1", Fields: map[string]any{"isDone": true}}},
		Signatures: map[string]string{"Operator": "data:image/png;base64,AAAA"},
		SignerName: "arun",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := f.reports.Render(ctx, RangeQuery{FormType: "disa-checklist", From: "2024-05-01", To: "2024-05-31"}, "xlsx")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Pages != 1 || !bytes.HasPrefix(out.Body, []byte("PK")) {
		t.Fatalf("xlsx: pages=%d", out.Pages)
	}
	m, err := f.metrics.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for k, v := range m {
		if bytes.Contains([]byte(k), []byte("report_signature_failures_total")) && v == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("signature failure metric: want=1 got=%v", m)
	}
}

func TestLastValueAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.records.LastValue(ctx, "setting-adjustment", "mouldCountNo")
	if err != nil || v != 0 {
		t.Fatalf("last value on empty form: want=0 got=%v err=%v", v, err)
	}
	res, err := f.records.Save(ctx, "setting-adjustment", SaveRequest{
		Date: "2024-05-02",
		Rows: []RowRequest{{Fields: map[string]any{"mouldCountNo": "12040", "noOfMoulds": "40"}}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	v, err = f.records.LastValue(ctx, "setting-adjustment", "mouldCountNo")
	if err != nil || v != "12040" {
		t.Fatalf("last value: want=12040 got=%v err=%v", v, err)
	}
	if _, err := f.records.Save(ctx, "setting-adjustment", SaveRequest{
		Date: "2024-04-30",
		Rows: []RowRequest{{Fields: map[string]any{"mouldCountNo": "12100", "noOfMoulds": "10"}}},
	}); err != nil {
		t.Fatalf("back-dated save: %v", err)
	}
	v, err = f.records.LastValue(ctx, "setting-adjustment", "mouldCountNo")
	if err != nil || v != "12100" {
		t.Fatalf("last value after back-dated save: want=12100 got=%v err=%v", v, err)
	}
	if _, err := f.records.LastValue(ctx, "setting-adjustment", "remarks"); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("untracked field: want validation got=%v", err)
	}

	list, err := f.records.List(ctx, RangeQuery{FormType: "setting-adjustment", From: "2024-05-01", To: "2024-05-31"})
	if err != nil || len(list) != 1 || list[0].Fields["noOfMoulds"] != 40 {
		t.Fatalf("list: got=%+v err=%v", list, err)
	}
	if err := f.records.Delete(ctx, "setting-adjustment", res.RecordIDs[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.records.Delete(ctx, "disa-checklist", 1); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("delete on form without admin delete: want validation got=%v", err)
	}
}

func TestUserDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.users.Create(ctx, UserInput{Username: "zara", Password: "secret", Role: "Supervisor"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Role != "supervisor" || u.Password == "secret" || !CheckPassword(u, "secret") {
		t.Fatalf("stored user: role=%s hashed=%v", u.Role, u.Password != "secret")
	}
	if _, err := f.users.Create(ctx, UserInput{Username: "zara", Password: "x", Role: "operator"}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("duplicate: want conflict got=%v", err)
	}
	if _, err := f.users.Create(ctx, UserInput{Username: "kiran", Password: "x", Role: "plant-head"}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("bad role: want validation got=%v", err)
	}
	_, _ = f.users.Create(ctx, UserInput{Username: "arun", Password: "x", Role: "supervisor"})
	names, _ := f.users.ListByRole(ctx, "SUPERVISOR")
	if len(names) != 2 || names[0] != "arun" || names[1] != "zara" {
		t.Fatalf("by role: want=[arun zara] got=%v", names)
	}
	updated, err := f.users.Update(ctx, u.ID, UserInput{Role: "hod"})
	if err != nil || updated.Role != "hod" {
		t.Fatalf("update: got=%v err=%v", updated, err)
	}
	if err := f.users.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.users.Delete(ctx, u.ID); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("delete twice: want not_found got=%v", err)
	}
}
