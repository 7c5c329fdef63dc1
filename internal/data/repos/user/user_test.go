package user

import (
	"context"
	"testing"

	"github.com/yungbote/disaforms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	for _, u := range []*types.User{
		{Username: "zara", Password: "x", Role: "hod"},
		{Username: "arun", Password: "x", Role: "HOD"},
		{Username: "meena", Password: "x", Role: "operator"},
	} {
		if err := repo.Create(dbc, u); err != nil {
			t.Fatalf("Create %s: %v", u.Username, err)
		}
	}

	hods, err := repo.ListUsernamesByRole(dbc, "hod")
	if err != nil {
		t.Fatalf("ListUsernamesByRole: %v", err)
	}
	if len(hods) != 2 || hods[0] != "arun" || hods[1] != "zara" {
		t.Fatalf("ListUsernamesByRole: want=[arun zara] got=%v", hods)
	}

	got, err := repo.GetByUsername(dbc, "meena")
	if err != nil || got == nil {
		t.Fatalf("GetByUsername: got=%v err=%v", got, err)
	}
	if err := repo.Update(dbc, got.ID, map[string]interface{}{"role": "supervisor"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	sups, _ := repo.ListUsernamesByRole(dbc, "supervisor")
	if len(sups) != 1 || sups[0] != "meena" {
		t.Fatalf("after update: want=[meena] got=%v", sups)
	}

	deleted, err := repo.Delete(dbc, got.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete: deleted=%v err=%v", deleted, err)
	}
	missing, err := repo.GetByID(dbc, got.ID)
	if err != nil || missing != nil {
		t.Fatalf("GetByID after delete: want nil got=%v err=%v", missing, err)
	}
}
