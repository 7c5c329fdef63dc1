package services

import (
	"strconv"

	"github.com/yungbote/disaforms-backend/internal/data/repos"
	formrepo "github.com/yungbote/disaforms-backend/internal/data/repos/forms"
	types "github.com/yungbote/disaforms-backend/internal/domain"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/platform/dbctx"
	"github.com/yungbote/disaforms-backend/internal/report"
)

// loadRange reads everything the assembler needs for a date range. Reads
// are sequential and not wrapped in a transaction.
func loadRange(dbc dbctx.Context, r repos.Set, s *forms.Schema, rng formrepo.Range) (report.Input, error) {
	in := report.Input{Schema: s}
	var err error
	if in.Records, err = r.Records.ListRange(dbc, rng); err != nil {
		return in, err
	}
	ids := recordIDs(in.Records)
	if in.Slots, err = r.Slots.ListByRecordIDs(dbc, ids); err != nil {
		return in, err
	}
	if s.EAVKey == forms.EAVKeyIdentity {
		in.Values, err = r.CustomValues.ListByIdentityRange(dbc, rng)
	} else {
		in.Values, err = r.CustomValues.ListByRecordIDs(dbc, ids)
	}
	if err != nil {
		return in, err
	}
	if in.Columns, err = r.Columns.ListActive(dbc, s.Type); err != nil {
		return in, err
	}
	if s.NCR {
		if in.NCRs, err = r.NCRs.ListRange(dbc, rng); err != nil {
			return in, err
		}
	}
	if in.Checkpoints, err = referencedCheckpoints(dbc, r, s, in.Records); err != nil {
		return in, err
	}
	return in, nil
}

// loadScope is loadRange for one date and machine, optionally one shift.
func loadScope(dbc dbctx.Context, r repos.Set, s *forms.Schema, scope formrepo.Scope) (report.Input, error) {
	in := report.Input{Schema: s}
	var err error
	if in.Records, err = r.Records.ListInScope(dbc, scope); err != nil {
		return in, err
	}
	ids := recordIDs(in.Records)
	if in.Slots, err = r.Slots.ListByRecordIDs(dbc, ids); err != nil {
		return in, err
	}
	if s.EAVKey == forms.EAVKeyIdentity {
		in.Values, err = r.CustomValues.ListByIdentityScope(dbc, scope)
	} else {
		in.Values, err = r.CustomValues.ListByRecordIDs(dbc, ids)
	}
	if err != nil {
		return in, err
	}
	if in.Columns, err = r.Columns.ListActive(dbc, s.Type); err != nil {
		return in, err
	}
	if s.NCR {
		whole := scope
		whole.Shift = nil
		if in.NCRs, err = r.NCRs.ListInScope(dbc, whole); err != nil {
			return in, err
		}
	}
	if in.Checkpoints, err = referencedCheckpoints(dbc, r, s, in.Records); err != nil {
		return in, err
	}
	return in, nil
}

// referencedCheckpoints returns the checkpoints named by records, soft
// deleted ones included, so historical rows keep their labels.
func referencedCheckpoints(dbc dbctx.Context, r repos.Set, s *forms.Schema, records []*types.Record) ([]*types.Checkpoint, error) {
	if s.RowKey != forms.RowKeyCheckpoint || len(records) == 0 {
		return nil, nil
	}
	seen := map[uint]bool{}
	var ids []uint
	for _, rec := range records {
		id, err := strconv.ParseUint(rec.RowKey, 10, 64)
		if err != nil || seen[uint(id)] {
			continue
		}
		seen[uint(id)] = true
		ids = append(ids, uint(id))
	}
	return r.Checkpoints.GetByIDs(dbc, ids)
}
