package devices

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"promo-data/internal/domain"
)

const (
	ResultsSheet = "Results"
	SummarySheet = "Summary"
	ReviewSheet  = "Unmapped Devices"
	NewSheet     = "New Devices"

	searchTermHeader = "Search_Term"
)

// ExportBatch 批量搜索结果：Results（搜索词 + 目录原始列）和 Summary 两个 sheet
func ExportBatch(res *BatchResult, header []string) ([]byte, error) {
	rowsHeader := append([]string{searchTermHeader}, header...)
	rows := make([][]string, 0, len(res.Rows))
	for _, m := range res.Rows {
		row := make([]string, 0, len(rowsHeader))
		row = append(row, m.Alias)
		for _, h := range header {
			row = append(row, m.Device.Row[h])
		}
		rows = append(rows, row)
	}
	summary := make([][]string, 0, len(res.Summary))
	for _, s := range res.Summary {
		summary = append(summary, []string{s.Alias, s.Status, fmt.Sprint(s.DevicesFound)})
	}
	return writeWorkbook([]sheetData{
		{name: ResultsSheet, header: rowsHeader, rows: rows},
		{name: SummarySheet, header: []string{searchTermHeader, "Status", "Devices_Found"}, rows: summary},
	})
}

// ExportReview 新设备检测的复核清单：无法映射的设备 + 本次所有新设备行
func ExportReview(header []string, unmapped, added []domain.CanonicalDevice) ([]byte, error) {
	return writeWorkbook([]sheetData{
		{name: ReviewSheet, header: header, rows: deviceRows(header, unmapped)},
		{name: NewSheet, header: header, rows: deviceRows(header, added)},
	})
}

func deviceRows(header []string, devs []domain.CanonicalDevice) [][]string {
	rows := make([][]string, 0, len(devs))
	for _, d := range devs {
		row := make([]string, len(header))
		for i, h := range header {
			row[i] = d.Row[h]
		}
		rows = append(rows, row)
	}
	return rows
}

type sheetData struct {
	name   string
	header []string
	rows   [][]string
}

func writeWorkbook(sheets []sheetData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}

		if err := setRow(f, s.name, 1, s.header); err != nil {
			return nil, err
		}
		if len(s.header) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(s.header), 1)
			if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
				return nil, fmt.Errorf("failed to set header style: %w", err)
			}
			lastCol, _ := excelize.ColumnNumberToName(len(s.header))
			if err := f.SetColWidth(s.name, "A", lastCol, 22); err != nil {
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
		for r, row := range s.rows {
			if err := setRow(f, s.name, r+2, row); err != nil {
				return nil, err
			}
		}
		// 冻结表头
		if err := f.SetPanes(s.name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return nil, fmt.Errorf("failed to freeze header: %w", err)
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, vals []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(vals))
	for i, v := range vals {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
