package report

import (
	"fmt"
	"strconv"
	"strings"

	types "github.com/yungbote/disaforms-backend/internal/domain"
	domforms "github.com/yungbote/disaforms-backend/internal/domain/forms"
	"github.com/yungbote/disaforms-backend/internal/forms"
)

const NoDataMessage = "No data found for the selected date range."

type PageKind string

const (
	PageData  PageKind = "data"
	PageNCR   PageKind = "ncr"
	PageEmpty PageKind = "empty"
)

type HeaderCell struct {
	Text    string
	RowSpan int
	ColSpan int
}

type CellRef struct {
	Row int
	Col int
}

type KV struct {
	Key   string
	Value string
}

// SignatureBox is drawn below the table for signatures that cover a whole
// day or shift.
type SignatureBox struct {
	Label string
	Name  string
	Image string
}

// Page is the renderer-neutral description of one report page. Body rows
// that overflow a physical page are continued by the renderer with the
// header repeated.
type Page struct {
	Kind       PageKind
	Company    string
	Title      string
	Subtitle   string
	Meta       []KV
	Header     [][]HeaderCell
	Widths     []float64
	Body       [][]string
	Images     map[CellRef]string
	BoldRows   map[int]bool
	Signatures []SignatureBox
	Legend     string
	Footer     string
}

func (p *Page) Columns() int { return len(p.Widths) }

type Options struct {
	Company string
	From    string
	To      string
}

// BuildPages lays out one data page per group plus one NCR page for groups
// that carry NCRs. No groups yields a single placeholder page.
func BuildPages(s *forms.Schema, columns []*types.CustomColumn, groups []Group, checkpoints []*types.Checkpoint, opt Options) []Page {
	if len(groups) == 0 {
		return []Page{emptyPage(s, opt)}
	}
	cpLabel := map[uint]string{}
	for _, cp := range checkpoints {
		cpLabel[cp.ID] = cp.Description
	}
	var out []Page
	for _, g := range groups {
		out = append(out, dataPage(s, columns, g, opt))
		if len(g.NCRs) > 0 {
			out = append(out, ncrPage(s, g, cpLabel, opt))
		}
	}
	return out
}

func emptyPage(s *forms.Schema, opt Options) Page {
	return Page{
		Kind:     PageEmpty,
		Company:  opt.Company,
		Title:    s.Title,
		Subtitle: s.Subtitle,
		Meta:     rangeMeta(opt),
		Header:   [][]HeaderCell{{{Text: s.Title, RowSpan: 1, ColSpan: 1}}},
		Widths:   []float64{1},
		Body:     [][]string{{NoDataMessage}},
		Footer:   s.Footer,
	}
}

func rangeMeta(opt Options) []KV {
	var meta []KV
	if opt.From != "" || opt.To != "" {
		meta = append(meta, KV{Key: "Period", Value: strings.TrimSpace(opt.From + " to " + opt.To)})
	}
	return meta
}

// column is one leaf column of a data page.
type column struct {
	group string
	label string
	width float64
	cell  func(r MergedRow, i int) string
	slot  int
}

func dataColumns(s *forms.Schema, customCols []*types.CustomColumn) []column {
	cols := []column{{label: "S.No", width: 10, slot: -1, cell: func(_ MergedRow, i int) string { return strconv.Itoa(i + 1) }}}
	if s.HasShift() {
		cols = append(cols, column{label: "Shift", width: 10, slot: -1, cell: func(r MergedRow, _ int) string { return strconv.Itoa(r.Shift) }})
	}
	if s.RowKey == forms.RowKeyCheckpoint {
		cols = append(cols,
			column{label: "Check Point", width: 50, slot: -1, cell: func(r MergedRow, _ int) string { return r.Label }},
			column{label: "Method", width: 18, slot: -1, cell: func(r MergedRow, _ int) string { return r.Method }},
		)
	}
	if s.Standalone() {
		cols = append(cols, column{label: "Date", width: 20, slot: -1, cell: func(r MergedRow, _ int) string { return "" }})
	}
	for _, f := range s.Fields {
		f := f
		w := f.Width
		if w <= 0 {
			w = 14
		}
		cols = append(cols, column{group: f.Group, label: f.Label, width: w, slot: -1, cell: func(r MergedRow, _ int) string {
			return FormatValue(f, r.Fields[f.Key])
		}})
	}
	for i, c := range customCols {
		i := i
		cols = append(cols, column{group: "Additional", label: c.Label, width: 16, slot: -1, cell: func(r MergedRow, _ int) string {
			if i < len(r.Custom) {
				return r.Custom[i]
			}
			return ""
		}})
	}
	if s.Totals {
		cols = append(cols, column{label: "Total", width: 12, slot: -1, cell: func(r MergedRow, _ int) string { return strconv.Itoa(r.Total) }})
	}
	if s.Broadcast == forms.ScopeNone {
		for i, slot := range s.Chain {
			cols = append(cols, column{label: slot.Label, width: 24, slot: i, cell: func(r MergedRow, _ int) string { return "" }})
		}
	}
	return cols
}

// headerRows builds one header row, or two when any column is grouped.
// Adjacent columns with the same group share a spanning cell.
func headerRows(cols []column) [][]HeaderCell {
	grouped := false
	for _, c := range cols {
		if c.group != "" {
			grouped = true
			break
		}
	}
	if !grouped {
		row := make([]HeaderCell, 0, len(cols))
		for _, c := range cols {
			row = append(row, HeaderCell{Text: c.label, RowSpan: 1, ColSpan: 1})
		}
		return [][]HeaderCell{row}
	}
	var top, bottom []HeaderCell
	for i := 0; i < len(cols); {
		c := cols[i]
		if c.group == "" {
			top = append(top, HeaderCell{Text: c.label, RowSpan: 2, ColSpan: 1})
			i++
			continue
		}
		j := i
		for j < len(cols) && cols[j].group == c.group {
			bottom = append(bottom, HeaderCell{Text: cols[j].label, RowSpan: 1, ColSpan: 1})
			j++
		}
		top = append(top, HeaderCell{Text: c.group, RowSpan: 1, ColSpan: j - i})
		i = j
	}
	return [][]HeaderCell{top, bottom}
}

func dataPage(s *forms.Schema, customCols []*types.CustomColumn, g Group, opt Options) Page {
	cols := dataColumns(s, customCols)
	p := Page{
		Kind:     PageData,
		Company:  opt.Company,
		Title:    s.Title,
		Subtitle: s.Subtitle,
		Header:   headerRows(cols),
		Images:   map[CellRef]string{},
		BoldRows: map[int]bool{},
		Legend:   s.Legend,
		Footer:   s.Footer,
	}
	if !s.Standalone() {
		p.Meta = append(p.Meta, KV{Key: "Date", Value: g.Date}, KV{Key: "Machine", Value: g.Machine})
	} else {
		p.Meta = rangeMeta(opt)
	}
	p.Meta = append(p.Meta, shiftMeta(s, g)...)
	for _, c := range cols {
		p.Widths = append(p.Widths, c.width)
	}

	for i, r := range g.Rows {
		line := make([]string, len(cols))
		for c, col := range cols {
			line[c] = col.cell(r, i)
			if s.Standalone() && col.label == "Date" {
				line[c] = g.Date
			}
			if col.slot >= 0 && col.slot < len(r.Slots) {
				st := r.Slots[col.slot]
				if st.Signature != "" {
					p.Images[CellRef{Row: len(p.Body), Col: c}] = st.Signature
				} else if st.Assignee != "" {
					line[c] = "Pending: " + st.Assignee
				}
			}
		}
		p.Body = append(p.Body, line)
	}

	if s.Totals {
		line := make([]string, len(cols))
		line[0] = "TOTAL"
		ci := 0
		for c, col := range cols {
			switch {
			case col.label == "Total" && col.group == "":
				line[c] = strconv.Itoa(g.GrandTotal)
			case col.group == "Additional":
				if ci < len(g.CustomTotals) {
					line[c] = strconv.Itoa(g.CustomTotals[ci])
				}
				ci++
			default:
				for _, f := range s.NumericFields() {
					if f.Label == col.label && f.Group == col.group {
						line[c] = strconv.Itoa(g.FieldTotals[f.Key])
					}
				}
			}
		}
		p.BoldRows[len(p.Body)] = true
		p.Body = append(p.Body, line)
	}

	for _, so := range g.Signoffs {
		for _, st := range so.Slots {
			label := st.Label
			if so.Shift != 0 {
				label = fmt.Sprintf("%s (Shift %d)", st.Label, so.Shift)
			}
			name := st.SignerName
			if name == "" && !st.Signed() {
				name = st.Assignee
			}
			p.Signatures = append(p.Signatures, SignatureBox{Label: label, Name: name, Image: st.Signature})
		}
	}
	return p
}

// shiftMeta renders per-shift scalars once per shift instead of per row.
func shiftMeta(s *forms.Schema, g Group) []KV {
	if len(s.ShiftMeta) == 0 {
		return nil
	}
	var out []KV
	seen := map[int]bool{}
	for _, r := range g.Rows {
		if seen[r.Shift] {
			continue
		}
		seen[r.Shift] = true
		parts := make([]string, 0, len(s.ShiftMeta))
		for _, f := range s.ShiftMeta {
			v := FormatValue(f, r.Fields[f.Key])
			if v == "" {
				continue
			}
			parts = append(parts, f.Label+": "+v)
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, KV{Key: fmt.Sprintf("Shift %d", r.Shift), Value: strings.Join(parts, ", ")})
	}
	return out
}

func ncrPage(s *forms.Schema, g Group, cpLabel map[uint]string, opt Options) Page {
	labels := []string{"S.No", "Date", "Check Point", "Non-Conformity", "Correction", "Root Cause", "Corrective Action", "Target Date", "Responsibility", "Status", "Sign"}
	widths := []float64{10, 20, 34, 36, 28, 28, 32, 20, 22, 18, 24}
	header := make([]HeaderCell, 0, len(labels))
	for _, l := range labels {
		header = append(header, HeaderCell{Text: l, RowSpan: 1, ColSpan: 1})
	}
	p := Page{
		Kind:     PageNCR,
		Company:  opt.Company,
		Title:    "NON-CONFORMANCE REPORTS",
		Subtitle: s.Title,
		Meta:     []KV{{Key: "Date", Value: g.Date}, {Key: "Machine", Value: g.Machine}},
		Header:   [][]HeaderCell{header},
		Widths:   widths,
		Images:   map[CellRef]string{},
		Footer:   s.Footer,
	}
	for i, n := range g.NCRs {
		cp := cpLabel[n.CheckpointID]
		if cp == "" {
			cp = "#" + strconv.FormatUint(uint64(n.CheckpointID), 10)
		}
		p.Body = append(p.Body, []string{
			strconv.Itoa(i + 1),
			domforms.FormatDay(n.ReportDate),
			cp,
			n.Details,
			n.Correction,
			n.RootCause,
			n.CorrectiveAction,
			n.TargetDate,
			n.Responsibility,
			n.Status,
			"",
		})
		if n.Signature != "" {
			p.Images[CellRef{Row: i, Col: len(labels) - 1}] = n.Signature
		}
	}
	return p
}

// FormatValue renders a coerced field value as cell text.
func FormatValue(f forms.Field, v any) string {
	switch f.Kind {
	case forms.KindBool:
		if forms.Truthy(v) {
			return "Y"
		}
		return "N"
	case forms.KindNumber:
		return strconv.Itoa(forms.ParseIntOrZero(v))
	default:
		return forms.TextOrEmpty(v)
	}
}
