package aggregates

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{"validation", ValidationError("label is required"), domainagg.CodeValidation},
		{"not found", NotFoundError("column 3"), domainagg.CodeNotFound},
		{"conflict", ConflictError("ncr already completed"), domainagg.CodeConflict},
		{"gorm not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), domainagg.CodeNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, domainagg.CodeTransaction},
		{"plain storage", errors.New("connection refused"), domainagg.CodeTransaction},
		{"domain passthrough", domainagg.NewError(domainagg.CodeRender, "report", "bad", nil), domainagg.CodeRender},
	}
	for _, tc := range cases {
		got := domainagg.CodeOf(MapError("op", tc.err))
		if got != tc.want {
			t.Fatalf("%s: want=%s got=%s", tc.name, tc.want, got)
		}
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil: want nil")
	}
}

func TestMapErrorKeepsMessage(t *testing.T) {
	err := MapError("columns.add", ValidationError("label is required"))
	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) {
		t.Fatalf("want *domainagg.Error got=%T", err)
	}
	if aggErr.Message != "label is required" {
		t.Fatalf("message: want=%q got=%q", "label is required", aggErr.Message)
	}
}
