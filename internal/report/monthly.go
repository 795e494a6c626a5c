package report

import (
	"classledger/internal/ledger"
)

// Row is one student's summed hours for the reported month.
type Row struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Hours       float64 `json:"hours"`
}

// MonthlyReport aggregates one month of sessions per student.
type MonthlyReport struct {
	Month      string  `json:"month"`
	Rows       []Row   `json:"rows"`
	TotalHours float64 `json:"total_hours"`
}

// BuildMonthly derives the per-student monthly report from a ledger
// snapshot. Orphaned sessions keep their row under "Unknown Student"
// rather than being dropped, so totals always match the raw ledger.
func BuildMonthly(snap ledger.Snapshot, month string) MonthlyReport {
	totals := ledger.MonthlyTotalsByStudent(snap.Sessions, month)

	out := MonthlyReport{Month: month, Rows: make([]Row, 0, len(totals))}
	for _, t := range totals {
		out.Rows = append(out.Rows, Row{
			StudentID:   t.StudentID,
			StudentName: ledger.StudentName(snap.Students, t.StudentID),
			Hours:       t.Hours,
		})
		out.TotalHours += t.Hours
	}
	return out
}
