package billing

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExport(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	pid := repo.addPatient("Jane Roe")
	b, _ := svc.Create(ctx, admin(), CreateRequest{PatientID: pid.String(), Amount: 25000, Description: strPtr("Consultation")})
	_, _ = svc.Create(ctx, admin(), CreateRequest{PatientID: pid.String(), Amount: 1050})
	if _, err := svc.MarkPaid(ctx, admin(), b.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) < 7 {
		t.Fatalf("expected header, 2 bills, blank and 4 summary rows, got %d rows", len(rows))
	}
	if rows[0][0] != "Bill ID" || rows[0][1] != "Patient" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "Jane Roe" {
		t.Errorf("expected patient name, got %v", rows[1])
	}

	total, err := f.GetCellValue(exportSheet, "A5")
	if err != nil || total != "Total revenue" {
		t.Errorf("expected totals label in A5, got %q (%v)", total, err)
	}
	if names := f.GetSheetList(); len(names) != 1 || names[0] != exportSheet {
		t.Errorf("expected only the %s sheet, got %v", exportSheet, names)
	}
}
