package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
)

func TestExecuteWriteObservesSuccessStatus(t *testing.T) {
	hooks := &spyHooks{}
	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.success", func(_ dbctx.Context) error { return nil })
	if err != nil {
		t.Fatalf("executeWrite success: %v", err)
	}
	if len(hooks.Operations) != 1 || hooks.Operations[0].Status != "success" {
		t.Fatalf("operations: want one success got=%+v", hooks.Operations)
	}
	if len(hooks.Rollbacks) != 0 {
		t.Fatalf("rollbacks: want none got=%+v", hooks.Rollbacks)
	}
}

func TestExecuteWriteValidationStatus(t *testing.T) {
	hooks := &spyHooks{}
	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.validation", func(_ dbctx.Context) error {
		return ValidationError("machine is required")
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("code: want=validation got=%v", err)
	}
	if hooks.Operations[0].Status != string(domainagg.CodeValidation) {
		t.Fatalf("status: want=validation got=%s", hooks.Operations[0].Status)
	}
	if len(hooks.Rollbacks) != 1 {
		t.Fatalf("rollbacks: want=1 got=%d", len(hooks.Rollbacks))
	}
}

func TestExecuteWriteConflictCounter(t *testing.T) {
	hooks := &spyHooks{}
	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.conflict", func(_ dbctx.Context) error {
		return ConflictError("already completed")
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("code: want=conflict got=%v", err)
	}
	if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "aggregate.test.conflict" {
		t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
	}
}

func TestExecuteWriteStorageFailureIsTransaction(t *testing.T) {
	hooks := &spyHooks{}
	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.storage", func(_ dbctx.Context) error {
		return errors.New("disk I/O error")
	})
	if !domainagg.IsCode(err, domainagg.CodeTransaction) {
		t.Fatalf("code: want=transaction got=%v", err)
	}
	if hooks.Operations[0].Status != string(domainagg.CodeTransaction) {
		t.Fatalf("status: want=transaction got=%s", hooks.Operations[0].Status)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(NotFoundError("x")); got != string(domainagg.CodeNotFound) {
		t.Fatalf("not found status: got=%s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domainagg.CodeTransaction) {
		t.Fatalf("deadline status: got=%s", got)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Rollbacks  []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) { h.Conflicts = append(h.Conflicts, name) }

func (h *spyHooks) IncRollback(name string) { h.Rollbacks = append(h.Rollbacks, name) }
