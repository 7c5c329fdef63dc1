package aggregates

import (
	"testing"

	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
)

func TestContractsOwnDisjointWriteSets(t *testing.T) {
	all := []domainagg.Aggregate{
		NewRecordAggregate(RecordAggregateDeps{}),
		NewColumnAggregate(ColumnAggregateDeps{}),
		NewCheckpointAggregate(CheckpointAggregateDeps{}),
		NewNCRAggregate(NCRAggregateDeps{}),
	}
	names := map[string]bool{}
	for _, a := range all {
		c := a.Contract()
		if !c.RequiresAggregateOwnedTx() {
			t.Fatalf("%s: want aggregate owned tx", c.Name)
		}
		if names[c.Name] {
			t.Fatalf("duplicate contract name %q", c.Name)
		}
		names[c.Name] = true
		if len(c.Tables) == 0 {
			t.Fatalf("%s: want owned tables", c.Name)
		}
	}
	if !all[0].Contract().Owns("record_slots") || all[1].Contract().Owns("record_slots") {
		t.Fatalf("record_slots: want owned by records only")
	}
}
