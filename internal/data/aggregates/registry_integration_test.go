package aggregates_test

import (
	"context"
	"testing"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	formrepo "github.com/yungbote/disaforms-backend/internal/data/repos/forms"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
)

func TestColumnRegistryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const form = "unpoured-mould"

	if _, err := f.columns.Add(ctx, form, "   "); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank label: want validation got=%v", err)
	}
	a, _ := f.columns.Add(ctx, form, "Ladle Delay")
	b, _ := f.columns.Add(ctx, form, "Crane Delay")
	c, _ := f.columns.Add(ctx, form, "Misc")
	if a.DisplayOrder != 1 || b.DisplayOrder != 2 || c.DisplayOrder != 3 {
		t.Fatalf("display order: want=1,2,3 got=%d,%d,%d", a.DisplayOrder, b.DisplayOrder, c.DisplayOrder)
	}

	if _, err := f.columns.Rename(ctx, form, 999, "x"); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("rename unknown: want not_found got=%v", err)
	}
	if _, err := f.columns.Rename(ctx, form, a.ID, ""); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("rename blank: want validation got=%v", err)
	}
	renamed, err := f.columns.Rename(ctx, form, a.ID, "Ladle Wait")
	if err != nil || renamed.Label != "Ladle Wait" {
		t.Fatalf("rename: got=%v err=%v", renamed, err)
	}

	// A value recorded before removal stays reachable directly.
	_, err = f.records.Save(ctx, aggregates.SaveBatch{
		Schema:  f.schema(t, form),
		Date:    may1,
		Machine: "DISA-I",
		Rows:    []aggregates.RowInput{{Shift: 1, Custom: map[uint]any{b.ID: 4}}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := f.columns.Remove(ctx, form, b.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.columns.Remove(ctx, form, b.ID); err != nil {
		t.Fatalf("remove twice: want nil got=%v", err)
	}
	if err := f.columns.Remove(ctx, "disa-checklist", b.ID); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("remove via other form: want not_found got=%v", err)
	}

	active, err := f.repos.Columns.ListActive(dbc(), form)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 || active[0].ID != a.ID || active[1].ID != c.ID {
		t.Fatalf("active after remove: want=[%d %d] got=%v", a.ID, c.ID, columnIDs(active))
	}
	hist, _ := f.repos.CustomValues.ListByColumn(dbc(), b.ID)
	if len(hist) != 1 || hist[0].Value != "4" {
		t.Fatalf("historical value: want one row value=4 got=%+v", hist)
	}

	d, _ := f.columns.Add(ctx, form, "After Delete")
	if d.DisplayOrder != 4 {
		t.Fatalf("order after delete: want=4 got=%d", d.DisplayOrder)
	}
}

func TestCheckpointSeedAndReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agg := aggregates.NewCheckpointAggregate(aggregates.CheckpointAggregateDeps{Base: f.base, Checkpoints: f.repos.Checkpoints})
	s := f.schema(t, "disa-checklist")

	n, err := agg.Seed(ctx, s)
	if err != nil || n != len(s.Checkpoints) {
		t.Fatalf("seed: want=%d got=%d err=%v", len(s.Checkpoints), n, err)
	}
	if again, err := agg.Seed(ctx, s); err != nil || again != 0 {
		t.Fatalf("reseed: want=0 got=%d err=%v", again, err)
	}

	seeded, _ := f.repos.Checkpoints.ListActive(dbc(), s.Type)
	out, err := agg.Replace(ctx, s.Type, []aggregates.CheckpointInput{
		{ID: seeded[2].ID, Description: "Clean plates", Method: "Visual"},
		{Description: "Check ejector pins", Method: "Visual"},
		{ID: seeded[0].ID, Description: seeded[0].Description, Method: seeded[0].Method},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("replace: want 3 active got=%d", len(out))
	}
	if out[0].ID != seeded[2].ID || out[0].SlNo != 1 || out[0].Description != "Clean plates" {
		t.Fatalf("first: got=%+v", out[0])
	}
	if out[1].Description != "Check ejector pins" || out[2].ID != seeded[0].ID || out[2].SlNo != 3 {
		t.Fatalf("order: got=%+v %+v", out[1], out[2])
	}
	kept, _ := f.repos.Checkpoints.GetByIDs(dbc(), []uint{seeded[1].ID})
	if len(kept) != 1 || !kept[0].IsDeleted {
		t.Fatalf("omitted checkpoint: want soft deleted got=%+v", kept)
	}

	_, err = agg.Replace(ctx, s.Type, []aggregates.CheckpointInput{{ID: 777, Description: "x"}})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown id: want not_found got=%v", err)
	}
	_, err = agg.Replace(ctx, s.Type, []aggregates.CheckpointInput{{Description: " "}})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank description: want validation got=%v", err)
	}
}

func TestNCRLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agg := aggregates.NewNCRAggregate(aggregates.NCRAggregateDeps{Base: f.base, Repos: f.repos})
	s := f.schema(t, "disa-checklist")

	if _, err := f.records.Save(ctx, aggregates.SaveBatch{
		Schema:  s,
		Date:    may1,
		Machine: "DISA-I",
		Rows:    []aggregates.RowInput{{RowKey: "3", Fields: map[string]any{"isDone": true}}},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := agg.Create(ctx, aggregates.NCRInput{Schema: f.schema(t, "dmm-settings"), CheckpointID: 3, Date: may1, Machine: "DISA-I"}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("ncr on form without ncr: want validation got=%v", err)
	}

	ncr, err := agg.Create(ctx, aggregates.NCRInput{
		Schema:       s,
		CheckpointID: 3,
		Date:         may1,
		Machine:      "DISA-I",
		Details:      "Pattern plate not cleaned",
		AssignedTo:   "meena",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ncr.Status != types.NCRStatusPending {
		t.Fatalf("status: want=Pending got=%s", ncr.Status)
	}
	rec, _ := f.repos.Records.FindByIdentity(dbc(), formrepo.Identity{FormType: s.Type, Date: may1, Machine: "DISA-I", RowKey: "3"}, false)
	if rec == nil || rec.Fields["isDone"] != false {
		t.Fatalf("checkpoint row: want isDone=false got=%v", rec)
	}

	if _, err := agg.Create(ctx, aggregates.NCRInput{Schema: s, CheckpointID: 4, Date: may1, Machine: "DISA-II", Details: "Nozzle worn"}); err != nil {
		t.Fatalf("create on unsaved day: %v", err)
	}
	unsaved, _ := f.repos.Records.ListInScope(dbc(), formrepo.Scope{FormType: s.Type, Date: may1, Machine: "DISA-II"})
	if len(unsaved) != 1 || unsaved[0].RowKey != "4" || unsaved[0].Fields["isDone"] != false {
		t.Fatalf("unsaved day: want one not-done row for checkpoint 4 got=%v", unsaved)
	}
	slots, _ := f.repos.Slots.ListByRecordIDs(dbc(), []uint{unsaved[0].ID})
	if len(slots) != len(s.Chain) {
		t.Fatalf("unsaved day slots: want=%d got=%d", len(s.Chain), len(slots))
	}
	hodQueue, _ := f.repos.Records.ListPending(dbc(), formrepo.PendingQuery{FormType: s.Type, Role: "HOD"})
	found := false
	for _, r := range hodQueue {
		found = found || r.ID == unsaved[0].ID
	}
	if !found {
		t.Fatalf("unsaved day: want row in HOD queue")
	}

	pending, _ := f.repos.NCRs.ListPending(dbc(), s.Type, "meena")
	if len(pending) != 1 {
		t.Fatalf("pending: want=1 got=%d", len(pending))
	}

	if _, err := agg.Complete(ctx, s, ncr.ID, ""); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank signature: want validation got=%v", err)
	}
	done, err := agg.Complete(ctx, s, ncr.ID, "data:image/png;base64,AAAA")
	if err != nil || done.Status != types.NCRStatusCompleted {
		t.Fatalf("complete: got=%v err=%v", done, err)
	}
	if _, err := agg.Complete(ctx, s, ncr.ID, "sig"); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("second complete: want conflict got=%v", err)
	}
	if _, err := agg.Complete(ctx, s, 4040, "sig"); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown ncr: want not_found got=%v", err)
	}
	pending, _ = f.repos.NCRs.ListPending(dbc(), s.Type, "meena")
	if len(pending) != 0 {
		t.Fatalf("pending after complete: want=0 got=%d", len(pending))
	}
}

func columnIDs(cols []*types.CustomColumn) []uint {
	out := make([]uint, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.ID)
	}
	return out
}
