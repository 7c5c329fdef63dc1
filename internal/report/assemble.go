package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	types "github.com/yungbote/disaforms-backend/internal/domain"
	domforms "github.com/yungbote/disaforms-backend/internal/domain/forms"
	"github.com/yungbote/disaforms-backend/internal/forms"
)

// Input is everything read from storage for one form and date range.
type Input struct {
	Schema      *forms.Schema
	Columns     []*types.CustomColumn
	Records     []*types.Record
	Slots       []*types.RecordSlot
	Values      []*types.CustomValue
	NCRs        []*types.NonConformanceReport
	Checkpoints []*types.Checkpoint
}

type SlotState struct {
	Role       string     `json:"role"`
	Label      string     `json:"label"`
	Assignee   string     `json:"assignee,omitempty"`
	Signature  string     `json:"signature,omitempty"`
	SignerName string     `json:"signerName,omitempty"`
	SignedAt   *time.Time `json:"signedAt,omitempty"`
}

func (s SlotState) Signed() bool { return s.SignedAt != nil }

// MergedRow is one record with its custom values laid out in registry order.
type MergedRow struct {
	RecordID uint           `json:"recordId"`
	Shift    int            `json:"shift,omitempty"`
	RowKey   string         `json:"rowKey,omitempty"`
	RowIndex int            `json:"rowIndex"`
	Label    string         `json:"label,omitempty"`
	Method   string         `json:"method,omitempty"`
	Fields   map[string]any `json:"fields"`
	Custom   []string       `json:"custom"`
	Slots    []SlotState    `json:"slots"`
	Total    int            `json:"total"`
}

// Signoff is the signature state shared by every row of a broadcast scope.
// Shift is zero for day-wide scopes.
type Signoff struct {
	Shift int         `json:"shift,omitempty"`
	Slots []SlotState `json:"slots"`
}

type Group struct {
	Date         string                        `json:"date"`
	Machine      string                        `json:"machine"`
	Shifts       []int                         `json:"shifts,omitempty"`
	Rows         []MergedRow                   `json:"rows"`
	FieldTotals  map[string]int                `json:"fieldTotals,omitempty"`
	CustomTotals []int                         `json:"customTotals,omitempty"`
	GrandTotal   int                           `json:"grandTotal"`
	Signoffs     []Signoff                     `json:"signoffs,omitempty"`
	NCRs         []*types.NonConformanceReport `json:"ncrs,omitempty"`
}

// Assemble groups records by date and machine, ordered, and merges custom
// values by column id. Columns missing from storage render as empty
// strings; values of columns absent from in.Columns are dropped.
func Assemble(in Input) []Group {
	s := in.Schema
	colIndex := make(map[uint]int, len(in.Columns))
	for i, c := range in.Columns {
		colIndex[c.ID] = i
	}

	byRecord := map[uint]map[uint]string{}
	byIdentity := map[string]map[uint]string{}
	for _, v := range in.Values {
		if v.RecordID != nil {
			m := byRecord[*v.RecordID]
			if m == nil {
				m = map[uint]string{}
				byRecord[*v.RecordID] = m
			}
			m[v.ColumnID] = v.Value
			continue
		}
		if v.RecordDate == nil {
			continue
		}
		key := identityKey(domforms.FormatDay(*v.RecordDate), v.Machine, v.Shift)
		m := byIdentity[key]
		if m == nil {
			m = map[uint]string{}
			byIdentity[key] = m
		}
		m[v.ColumnID] = v.Value
	}

	slotsByRecord := map[uint][]*types.RecordSlot{}
	for _, sl := range in.Slots {
		slotsByRecord[sl.RecordID] = append(slotsByRecord[sl.RecordID], sl)
	}
	checkpoints := map[string]*types.Checkpoint{}
	for _, cp := range in.Checkpoints {
		checkpoints[strconv.FormatUint(uint64(cp.ID), 10)] = cp
	}

	records := append([]*types.Record(nil), in.Records...)
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		da, db := time.Time(a.RecordDate), time.Time(b.RecordDate)
		if !da.Equal(db) {
			return da.Before(db)
		}
		if a.Machine != b.Machine {
			return a.Machine < b.Machine
		}
		if a.Shift != b.Shift {
			return a.Shift < b.Shift
		}
		if a.RowIndex != b.RowIndex {
			return a.RowIndex < b.RowIndex
		}
		return a.ID < b.ID
	})

	var groups []Group
	index := map[string]int{}
	for _, rec := range records {
		date := domforms.FormatDay(rec.RecordDate)
		gk := date + "\x00" + rec.Machine
		gi, ok := index[gk]
		if !ok {
			groups = append(groups, Group{Date: date, Machine: rec.Machine})
			gi = len(groups) - 1
			index[gk] = gi
		}
		g := &groups[gi]

		row := MergedRow{
			RecordID: rec.ID,
			Shift:    rec.Shift,
			RowKey:   rec.RowKey,
			RowIndex: rec.RowIndex,
			Fields:   s.ReadFields(rec.Fields),
			Custom:   make([]string, len(in.Columns)),
			Slots:    slotStates(s, slotsByRecord[rec.ID]),
		}
		if cp := checkpoints[rec.RowKey]; cp != nil && s.RowKey == forms.RowKeyCheckpoint {
			row.Label, row.Method = cp.Description, cp.Method
		}
		values := byRecord[rec.ID]
		if s.EAVKey == forms.EAVKeyIdentity {
			values = byIdentity[identityKey(date, rec.Machine, rec.Shift)]
		}
		for colID, v := range values {
			if i, ok := colIndex[colID]; ok {
				row.Custom[i] = v
			}
		}
		g.Rows = append(g.Rows, row)
	}

	ncrs := map[string][]*types.NonConformanceReport{}
	for _, n := range in.NCRs {
		gk := domforms.FormatDay(n.ReportDate) + "\x00" + n.Machine
		ncrs[gk] = append(ncrs[gk], n)
	}
	for gk, gi := range index {
		g := &groups[gi]
		g.NCRs = ncrs[gk]
		g.Shifts = distinctShifts(g.Rows)
		g.Signoffs = signoffs(s, g.Rows)
		if s.Totals {
			computeTotals(s, g, len(in.Columns))
		}
	}
	return groups
}

// BlankRow is the view of a row that has no stored record yet: every field
// at its zero value and every slot open.
func BlankRow(s *forms.Schema, ncols int) MergedRow {
	return MergedRow{
		Fields: s.ReadFields(nil),
		Custom: make([]string, ncols),
		Slots:  slotStates(s, nil),
	}
}

func identityKey(date, machine string, shift int) string {
	return date + "\x00" + machine + "\x00" + strconv.Itoa(shift)
}

func slotStates(s *forms.Schema, stored []*types.RecordSlot) []SlotState {
	out := make([]SlotState, 0, len(s.Chain))
	for _, slot := range s.Chain {
		st := SlotState{Role: slot.Role, Label: slot.Label}
		for _, sl := range stored {
			if strings.EqualFold(sl.Role, slot.Role) {
				st.Assignee = sl.Assignee
				st.Signature = sl.Signature
				st.SignerName = sl.SignerName
				st.SignedAt = sl.SignedAt
			}
		}
		out = append(out, st)
	}
	return out
}

func distinctShifts(rows []MergedRow) []int {
	var out []int
	seen := map[int]bool{}
	for _, r := range rows {
		if r.Shift == 0 || seen[r.Shift] {
			continue
		}
		seen[r.Shift] = true
		out = append(out, r.Shift)
	}
	return out
}

// signoffs takes the first row of each broadcast scope as the scope's state.
func signoffs(s *forms.Schema, rows []MergedRow) []Signoff {
	switch s.Broadcast {
	case forms.ScopeDay:
		if len(rows) == 0 {
			return nil
		}
		return []Signoff{{Slots: rows[0].Slots}}
	case forms.ScopeShift:
		var out []Signoff
		seen := map[int]bool{}
		for _, r := range rows {
			if seen[r.Shift] {
				continue
			}
			seen[r.Shift] = true
			out = append(out, Signoff{Shift: r.Shift, Slots: r.Slots})
		}
		return out
	default:
		return nil
	}
}

// computeTotals sums numeric fields and, for numeric custom values, custom
// columns. Totals are never stored.
func computeTotals(s *forms.Schema, g *Group, ncols int) {
	numeric := s.NumericFields()
	g.FieldTotals = make(map[string]int, len(numeric))
	g.CustomTotals = make([]int, ncols)
	g.GrandTotal = 0
	for i := range g.Rows {
		row := &g.Rows[i]
		row.Total = 0
		for _, f := range numeric {
			n := forms.ParseIntOrZero(row.Fields[f.Key])
			row.Total += n
			g.FieldTotals[f.Key] += n
		}
		if s.EAVNumeric {
			for c, v := range row.Custom {
				n := forms.ParseIntOrZero(v)
				row.Total += n
				g.CustomTotals[c] += n
			}
		}
		g.GrandTotal += row.Total
	}
}
