package reporter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"rto-receipt-reconciler/internal/matcher"
	"rto-receipt-reconciler/internal/models"
	"rto-receipt-reconciler/internal/store"
	"rto-receipt-reconciler/pkg/errors"
)

// SummarySheet is the sheet name of the receipt summary workbook.
const SummarySheet = "Summary"

// WorkbookStyle formats a written sheet: one font size for every cell,
// columns sized to their longest value, and an optional highlight rule on
// one column.
type WorkbookStyle struct {
	FontSize       float64
	MinColumnWidth float64

	// HighlightColumn gets a red fill for cells containing HighlightText,
	// matched case-insensitively. Empty disables the rule.
	HighlightColumn string
	HighlightText   string
}

// DefaultWorkbookStyle returns the plain style used for summaries and logs.
func DefaultWorkbookStyle() *WorkbookStyle {
	return &WorkbookStyle{
		FontSize:       9,
		MinColumnWidth: 12,
	}
}

// ReconciliationWorkbookStyle highlights transactions missing from the portal.
func ReconciliationWorkbookStyle() *WorkbookStyle {
	style := DefaultWorkbookStyle()
	style.HighlightColumn = matcher.ColumnReceiptStatus
	style.HighlightText = strings.ToLower(matcher.StatusMissing.String())
	return style
}

// Style implements store.Styler
func (ws *WorkbookStyle) Style(f *excelize.File, sheet string, t *store.Table) error {
	if len(t.Columns) == 0 {
		return nil
	}

	lastCell, err := excelize.CoordinatesToCellName(len(t.Columns), t.Len()+1)
	if err != nil {
		return err
	}
	fontStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: ws.FontSize}})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.CodeUnexpectedError, "create font style")
	}
	if err := f.SetCellStyle(sheet, "A1", lastCell, fontStyle); err != nil {
		return err
	}

	for i, col := range t.Columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, ws.columnWidth(t, col)); err != nil {
			return err
		}
	}

	return ws.highlight(f, sheet, t)
}

func (ws *WorkbookStyle) columnWidth(t *store.Table, col string) float64 {
	longest := utf8.RuneCountInString(col)
	for _, row := range t.Rows {
		if n := utf8.RuneCountInString(row[col]); n > longest {
			longest = n
		}
	}

	width := float64(longest + 2)
	if width < ws.MinColumnWidth {
		return ws.MinColumnWidth
	}
	return width
}

func (ws *WorkbookStyle) highlight(f *excelize.File, sheet string, t *store.Table) error {
	if ws.HighlightColumn == "" || t.Len() == 0 {
		return nil
	}

	index := -1
	for i, col := range t.Columns {
		if col == ws.HighlightColumn {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	letter, err := excelize.ColumnNumberToName(index + 1)
	if err != nil {
		return err
	}

	format, err := f.NewConditionalStyle(&excelize.Style{
		Font: &excelize.Font{Color: "9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.CodeUnexpectedError, "create highlight style")
	}

	rangeRef := fmt.Sprintf("%s2:%s%d", letter, letter, t.Len()+1)
	return f.SetConditionalFormat(sheet, rangeRef, []excelize.ConditionalFormatOptions{{
		Type:     "formula",
		Criteria: fmt.Sprintf(`ISNUMBER(SEARCH("%s",%s2))`, ws.HighlightText, letter),
		Format:   &format,
	}})
}

// ReportStore returns the store used to write the reconciliation report at
// path. Workbooks get the highlighted style; other formats are written plain.
func ReportStore(path string) (store.Store, error) {
	return styledStore(path, "", ReconciliationWorkbookStyle(), nil)
}

// SummaryStore returns the store used to write the receipt summary at path.
func SummaryStore(path string) (store.Store, error) {
	return styledStore(path, SummarySheet, DefaultWorkbookStyle(), []string{models.FieldAmount})
}

func styledStore(path, sheet string, style *WorkbookStyle, numeric []string) (store.Store, error) {
	if strings.ToLower(filepath.Ext(path)) != ".xlsx" {
		return store.ForPath(path)
	}
	return &store.XLSXStore{
		Sheet:          sheet,
		NumericColumns: numeric,
		Styler:         style,
	}, nil
}

// WriteTable writes t to path with s, reporting failures as file errors.
func WriteTable(ctx context.Context, s store.Writer, path string, t *store.Table) error {
	if err := s.Write(ctx, path, t); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	return nil
}
