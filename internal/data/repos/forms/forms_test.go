package forms

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/disaforms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	domforms "github.com/yungbote/disaforms-backend/internal/domain/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
)

func TestCustomColumnRepo_OrderingAndSoftDelete(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCustomColumnRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	cols := []*types.CustomColumn{
		{FormType: "f", Label: "b", DisplayOrder: 2},
		{FormType: "f", Label: "a", DisplayOrder: 1},
		{FormType: "f", Label: "c", DisplayOrder: 2},
		{FormType: "other", Label: "x", DisplayOrder: 9},
	}
	for _, c := range cols {
		if err := repo.Create(dbc, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	got, err := repo.ListActive(dbc, "f")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 3 || got[0].Label != "a" || got[1].Label != "b" || got[2].Label != "c" {
		t.Fatalf("ListActive order: got=%v", labels(got))
	}

	if err := repo.MarkDeleted(dbc, got[2].ID); err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}
	max, err := repo.MaxDisplayOrder(dbc, "f")
	if err != nil || max != 2 {
		t.Fatalf("MaxDisplayOrder: want=2 got=%d err=%v", max, err)
	}
	empty, err := repo.MaxDisplayOrder(dbc, "none")
	if err != nil || empty != 0 {
		t.Fatalf("MaxDisplayOrder empty: want=0 got=%d err=%v", empty, err)
	}
	got, _ = repo.ListActive(dbc, "f")
	if len(got) != 2 {
		t.Fatalf("ListActive after delete: want=2 got=%d", len(got))
	}
}

func TestCustomValueRepo_UpsertBothKeys(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCustomValueRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	recID := uint(7)
	for _, v := range []string{"1", "2"} {
		if err := repo.Upsert(dbc, &types.CustomValue{FormType: "f", RecordID: &recID, ColumnID: 3, Value: v}); err != nil {
			t.Fatalf("Upsert record-keyed: %v", err)
		}
	}
	byRec, err := repo.ListByRecordIDs(dbc, []uint{recID})
	if err != nil || len(byRec) != 1 || byRec[0].Value != "2" {
		t.Fatalf("record-keyed: want one row value 2 got=%v err=%v", byRec, err)
	}

	day := domforms.Day(time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC))
	for _, v := range []string{"4", "9"} {
		row := &types.CustomValue{FormType: "f", RecordDate: IdentityDate(day), Machine: "DISA-I", Shift: 2, ColumnID: 3, Value: v}
		if err := repo.Upsert(dbc, row); err != nil {
			t.Fatalf("Upsert identity-keyed: %v", err)
		}
	}
	shift := 2
	byIdentity, err := repo.ListByIdentityScope(dbc, Scope{FormType: "f", Date: day, Machine: "DISA-I", Shift: &shift})
	if err != nil || len(byIdentity) != 1 || byIdentity[0].Value != "9" {
		t.Fatalf("identity-keyed: want one row value 9 got=%v err=%v", byIdentity, err)
	}
}

func TestRecordRepo_PendingJoin(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	records := NewRecordRepo(db, log)
	slots := NewSlotRepo(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, db)}

	day := domforms.Day(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	a := &types.Record{FormType: "f", RecordDate: day, Machine: "DISA-I", RowKey: "1"}
	b := &types.Record{FormType: "f", RecordDate: day, Machine: "DISA-I", RowKey: "2"}
	for _, r := range []*types.Record{a, b} {
		if err := records.Create(dbc, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := slots.CreateMany(dbc, []*types.RecordSlot{{RecordID: r.ID, Role: "HOD", Assignee: "arun"}}); err != nil {
			t.Fatalf("CreateMany: %v", err)
		}
	}
	if _, err := slots.SetSignature(dbc, []uint{a.ID}, "HOD", "sig", "arun", time.Now()); err != nil {
		t.Fatalf("SetSignature: %v", err)
	}
	pending, err := records.ListPending(dbc, PendingQuery{FormType: "f", Role: "HOD", Assignee: "arun"})
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("ListPending: want=[%d] got=%v", b.ID, pending)
	}
	other, _ := records.ListPending(dbc, PendingQuery{FormType: "f", Role: "HOD", Assignee: "zara"})
	if len(other) != 0 {
		t.Fatalf("ListPending other person: want none got=%d", len(other))
	}
}

func labels(cols []*types.CustomColumn) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Label)
	}
	return out
}
