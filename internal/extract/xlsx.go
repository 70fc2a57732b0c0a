package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSX extracts spreadsheet content as tab-separated rows, sheet by sheet.
type XLSX struct{}

// Extract implements Extractor.
func (XLSX) Extract(_ context.Context, path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{Method: "xlsx-cells", Note: fmt.Sprintf("unreadable workbook: %v", err)}, nil
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(sheet)
		b.WriteByte('\n')
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return Result{Text: clampText(b.String()), Method: "xlsx-cells"}, nil
}
