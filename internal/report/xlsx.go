package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxStyles struct {
	title  int
	header int
	cell   int
	bold   int
	meta   int
}

// RenderXLSX writes one worksheet per page. Sheet layout mirrors the PDF:
// title rows, meta line, merged header grid, body, then signature boxes.
func RenderXLSX(w io.Writer, pages []Page, sigs *SignatureSet) (RenderStats, error) {
	var stats RenderStats
	f := excelize.NewFile()
	defer f.Close()

	st, err := newXLSXStyles(f)
	if err != nil {
		return stats, err
	}
	used := map[string]bool{}
	for i := range pages {
		name := sheetName(i, &pages[i], used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return stats, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return stats, fmt.Errorf("new sheet: %w", err)
		}
		fails, err := writeSheet(f, name, &pages[i], st, sigs)
		if err != nil {
			return stats, err
		}
		stats.SignatureFailures += fails
		stats.Pages++
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return stats, fmt.Errorf("write xlsx: %w", err)
	}
	return stats, nil
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	var st xlsxStyles
	var err error
	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}, Alignment: center}); err != nil {
		return st, fmt.Errorf("title style: %w", err)
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 9},
		Border:    border,
		Alignment: center,
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E1E1E1"}, Pattern: 1},
	}); err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	if st.cell, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 9}, Border: border, Alignment: center}); err != nil {
		return st, fmt.Errorf("cell style: %w", err)
	}
	if st.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 9}, Border: border, Alignment: center}); err != nil {
		return st, fmt.Errorf("bold style: %w", err)
	}
	if st.meta, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 9}}); err != nil {
		return st, fmt.Errorf("meta style: %w", err)
	}
	return st, nil
}

// sheetName builds a unique worksheet name within the 31 character limit.
func sheetName(i int, p *Page, used map[string]bool) string {
	label := string(p.Kind)
	for _, kv := range p.Meta {
		if kv.Key == "Date" {
			label = kv.Value
		}
		if kv.Key == "Machine" && kv.Value != "" {
			label += " " + kv.Value
		}
	}
	if p.Kind == PageNCR {
		label = "NCR " + label
	}
	label = strings.NewReplacer(":", "", "\\", "", "/", "-", "?", "", "*", "", "[", "", "]", "").Replace(label)
	name := fmt.Sprintf("%d %s", i+1, label)
	if len(name) > 31 {
		name = name[:31]
	}
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%d-%d", i+1, n)
	}
	used[name] = true
	return name
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeSheet(f *excelize.File, sheet string, p *Page, st xlsxStyles, sigs *SignatureSet) (int, error) {
	ncols := max(1, len(p.Widths))
	fails := 0
	row := 1

	title := func(text string) error {
		if text == "" {
			return nil
		}
		if err := f.SetCellValue(sheet, cellName(1, row), text); err != nil {
			return err
		}
		if ncols > 1 {
			if err := f.MergeCell(sheet, cellName(1, row), cellName(ncols, row)); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(sheet, cellName(1, row), cellName(ncols, row), st.title); err != nil {
			return err
		}
		row++
		return nil
	}
	for _, t := range []string{p.Company, p.Title, p.Subtitle} {
		if err := title(t); err != nil {
			return fails, fmt.Errorf("title: %w", err)
		}
	}
	if len(p.Meta) > 0 {
		parts := make([]string, 0, len(p.Meta))
		for _, kv := range p.Meta {
			parts = append(parts, kv.Key+": "+kv.Value)
		}
		if err := f.SetCellValue(sheet, cellName(1, row), strings.Join(parts, "    ")); err != nil {
			return fails, err
		}
		_ = f.SetCellStyle(sheet, cellName(1, row), cellName(1, row), st.meta)
		row++
	}
	row++

	for c, w := range p.Widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheet, col, col, w*0.6); err != nil {
			return fails, err
		}
	}

	headerTop := row
	taken := make([][]bool, len(p.Header))
	for i := range taken {
		taken[i] = make([]bool, ncols)
	}
	for ri, hr := range p.Header {
		col := 0
		for _, cell := range hr {
			for col < ncols && taken[ri][col] {
				col++
			}
			if col >= ncols {
				break
			}
			span := max(1, cell.ColSpan)
			rspan := max(1, cell.RowSpan)
			for c := col; c < col+span && c < ncols; c++ {
				for rr := ri; rr < ri+rspan && rr < len(taken); rr++ {
					taken[rr][c] = true
				}
			}
			tl := cellName(col+1, headerTop+ri)
			br := cellName(min(col+span, ncols), headerTop+ri+rspan-1)
			if err := f.SetCellValue(sheet, tl, cell.Text); err != nil {
				return fails, err
			}
			if tl != br {
				if err := f.MergeCell(sheet, tl, br); err != nil {
					return fails, fmt.Errorf("merge header: %w", err)
				}
			}
			if err := f.SetCellStyle(sheet, tl, br, st.header); err != nil {
				return fails, err
			}
			col += span
		}
	}
	row = headerTop + len(p.Header)

	for ri, line := range p.Body {
		style := st.cell
		if p.BoldRows[ri] {
			style = st.bold
		}
		if p.Kind == PageEmpty && ncols == 1 {
			_ = f.SetColWidth(sheet, "A", "A", 80)
		}
		for c := 0; c < ncols; c++ {
			ref := cellName(c+1, row)
			if uri, ok := p.Images[CellRef{Row: ri, Col: c}]; ok {
				if !addPicture(f, sheet, ref, uri, sigs) {
					fails++
					_ = f.SetCellValue(sheet, ref, "Invalid Sig")
				}
				_ = f.SetRowHeight(sheet, row, 36)
			} else if c < len(line) {
				if err := f.SetCellValue(sheet, ref, line[c]); err != nil {
					return fails, err
				}
			}
		}
		if err := f.SetCellStyle(sheet, cellName(1, row), cellName(ncols, row), style); err != nil {
			return fails, err
		}
		row++
	}

	if len(p.Signatures) > 0 {
		row++
		for i, sb := range p.Signatures {
			col := 1 + (i%4)*max(1, ncols/4)
			if i > 0 && i%4 == 0 {
				row += 4
			}
			_ = f.SetCellValue(sheet, cellName(col, row), sb.Label)
			if sb.Image != "" {
				if !addPicture(f, sheet, cellName(col, row+1), sb.Image, sigs) {
					fails++
					_ = f.SetCellValue(sheet, cellName(col, row+1), "Invalid Sig")
				}
				_ = f.SetRowHeight(sheet, row+1, 36)
			}
			_ = f.SetCellValue(sheet, cellName(col, row+2), sb.Name)
		}
		row += 4
	}

	footer := strings.TrimSpace(p.Legend + "    " + p.Footer)
	if footer != "" {
		_ = f.SetCellValue(sheet, cellName(1, row+1), footer)
		_ = f.SetCellStyle(sheet, cellName(1, row+1), cellName(1, row+1), st.meta)
	}
	return fails, nil
}

func addPicture(f *excelize.File, sheet, ref, uri string, sigs *SignatureSet) bool {
	raw, ok := sigs.Get(uri)
	if !ok {
		return false
	}
	err := f.AddPictureFromBytes(sheet, ref, &excelize.Picture{
		Extension: ".png",
		File:      raw,
		Format:    &excelize.GraphicOptions{AutoFit: true, LockAspectRatio: true},
	})
	return err == nil
}
