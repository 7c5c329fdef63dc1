package aggregates

// WriteTxOwnership names who opens the transaction around a write.
type WriteTxOwnership string

const (
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// Contract describes the tables an aggregate writes and the transaction
// policy it enforces.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	Tables           []string
	Notes            string
}

// Aggregate is the marker every write boundary implements.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Owns reports whether table is written by this aggregate.
func (c Contract) Owns(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}
