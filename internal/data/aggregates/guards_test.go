package aggregates

import (
	"testing"

	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
)

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "x"); err != nil {
		t.Fatalf("ok: want nil got=%v", err)
	}
	err := MapError("op", RequireCASSuccess(false, "ncr is not pending"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("failed cas: want conflict got=%v", err)
	}
}

func TestRequireStatusAllowed(t *testing.T) {
	if err := RequireStatusAllowed("pending", "Pending"); err != nil {
		t.Fatalf("case-insensitive match: %v", err)
	}
	if err := MapError("op", RequireStatusAllowed("Completed", "Pending")); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("disallowed: want conflict got=%v", err)
	}
	if err := MapError("op", RequireStatusAllowed("Pending")); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("empty allowed: want validation got=%v", err)
	}
}
