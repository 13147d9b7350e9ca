package billing

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Bills"

var exportHeader = []string{
	"Bill ID", "Patient", "Amount", "Status", "Description", "Due Date", "Paid Date", "Created",
}

var exportWidths = []float64{38, 28, 12, 10, 40, 12, 20, 20}

// Export writes all bills as an XLSX workbook with a totals row.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	bills, err := s.ListAll(ctx)
	if err != nil {
		return err
	}
	plain := make([]*Bill, len(bills))
	for i, b := range bills {
		plain[i] = &b.Bill
	}
	return writeWorkbook(w, bills, Summarize(plain, s.Today()))
}

func writeWorkbook(w io.Writer, bills []*AdminBill, totals Totals) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(exportSheet)
	if err != nil {
		return fmt.Errorf("find sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	if err := setRow(f, 1, toAny(exportHeader)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	for i, width := range exportWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	row := 2
	for _, b := range bills {
		values := []any{
			b.ID.String(),
			b.PatientName,
			b.Amount.Float(),
			string(b.Status),
			deref(b.Description),
			deref(b.DueDate),
			"",
			b.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		if b.PaidDate != nil {
			values[6] = b.PaidDate.UTC().Format("2006-01-02 15:04")
		}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	row++
	summary := [][]any{
		{"Total revenue", "", totals.TotalRevenue.Float()},
		{"Paid", "", totals.PaidTotal.Float()},
		{"Pending", "", totals.PendingTotal.Float()},
		{"Overdue", "", totals.OverdueTotal.Float()},
	}
	firstSummary := row
	for _, values := range summary {
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}
	if err := f.SetCellStyle(exportSheet, "C2", fmt.Sprintf("C%d", row-1), moneyStyle); err != nil {
		return fmt.Errorf("set money style: %w", err)
	}
	boldFirst, _ := excelize.CoordinatesToCellName(1, firstSummary)
	boldLast, _ := excelize.CoordinatesToCellName(1, row-1)
	if err := f.SetCellStyle(exportSheet, boldFirst, boldLast, headerStyle); err != nil {
		return fmt.Errorf("set summary style: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
