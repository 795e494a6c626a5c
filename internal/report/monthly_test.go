package report

import (
	"bytes"
	"math"
	"reflect"
	"testing"

	"classledger/internal/domain/models"
	"classledger/internal/ledger"
)

func reportSnapshot() ledger.Snapshot {
	return ledger.Snapshot{
		Students: []models.Student{
			{ID: "S1", Name: "Amy"},
			{ID: "S2", Name: "Ben"},
		},
		Sessions: []models.ClassSession{
			{ID: "a", StudentID: "S1", Date: "2024-03-05", Duration: 1.5},
			{ID: "b", StudentID: "S1", Date: "2024-03-12", Duration: 2.0},
			{ID: "c", StudentID: "S2", Date: "2024-03-08", Duration: 1.0},
			{ID: "d", StudentID: "gone", Date: "2024-03-20", Duration: 0.5},
			{ID: "e", StudentID: "S2", Date: "2024-02-01", Duration: 3.0},
		},
	}
}

func TestBuildMonthly(t *testing.T) {
	rep := BuildMonthly(reportSnapshot(), "2024-03")

	if rep.Month != "2024-03" {
		t.Errorf("Month = %q, want 2024-03", rep.Month)
	}

	want := []Row{
		{StudentID: "S1", StudentName: "Amy", Hours: 3.5},
		{StudentID: "S2", StudentName: "Ben", Hours: 1.0},
		{StudentID: "gone", StudentName: ledger.UnknownStudentName, Hours: 0.5},
	}
	if !reflect.DeepEqual(rep.Rows, want) {
		t.Errorf("Rows = %v, want %v", rep.Rows, want)
	}

	// Orphaned sessions stay in the total so it matches the raw ledger
	if math.Abs(rep.TotalHours-5.0) > 1e-9 {
		t.Errorf("TotalHours = %v, want 5.0", rep.TotalHours)
	}
}

func TestBuildMonthlyEmptyMonth(t *testing.T) {
	rep := BuildMonthly(reportSnapshot(), "2020-01")

	if len(rep.Rows) != 0 {
		t.Errorf("Rows = %v, want empty", rep.Rows)
	}
	if rep.TotalHours != 0 {
		t.Errorf("TotalHours = %v, want 0", rep.TotalHours)
	}
}

func TestWriteMonthlyXLSX(t *testing.T) {
	rep := BuildMonthly(reportSnapshot(), "2024-03")

	var buf bytes.Buffer
	if err := WriteMonthlyXLSX(rep, &buf); err != nil {
		t.Fatalf("WriteMonthlyXLSX() error = %v", err)
	}

	// xlsx is a zip archive; checking the magic bytes is enough here
	out := buf.Bytes()
	if len(out) < 4 || out[0] != 'P' || out[1] != 'K' {
		t.Errorf("output does not look like an xlsx archive (%d bytes)", len(out))
	}
}
