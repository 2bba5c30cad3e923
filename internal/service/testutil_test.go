package service

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"promo-data/internal/devices"
)

// writeXLSX 第一个 sheet 从 startRow 开始写入各行
func writeXLSX(t *testing.T, path string, startRow int, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", startRow+i), &cells))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

// writeCatalog 表头在第 8 行，与真实目录一致
func writeCatalog(t *testing.T, dir string, rows ...[]string) string {
	t.Helper()
	all := append([][]string{{"Model(External)", "SKU Type", "Handset Brand", "SKU"}}, rows...)
	return writeXLSX(t, filepath.Join(dir, "catalog.xlsx"), devices.DefaultHeaderRow, all)
}

func defaultCatalogRows() [][]string {
	return [][]string{
		{"APL IPHONE 15 128GB", "A-STOCK", "T-MOBILE", "SKU1"},
		{"APL IPHONE 15 256GB", "A-STOCK", "T-MOBILE", "SKU2"},
		{"SAM S928U GALAXY S24 ULTRA 256GB", "WARRANTY", "SPRINT", "SKU3"},
		{"NOK 3310 CLASSIC", "A-STOCK", "UNIVERSAL", "SKU4"},
	}
}
