package ledger

import (
	"sort"

	"classledger/internal/domain/models"
)

// AllStudents is the FilterByStudent wildcard that matches every session.
const AllStudents = "ALL"

// UnknownStudentName is the display fallback for sessions whose student
// record no longer exists (orphans left by an interrupted cascade delete).
const UnknownStudentName = "Unknown Student"

// The view functions below derive read-only views from a session snapshot.
// None of them mutate or retain their input, and the same input always
// produces the same output.

// FilterByFolder returns the sessions tagged with the given folder.
// Legacy sessions with no folder tag match the default folder only.
func FilterByFolder(sessions []models.ClassSession, folder string) []models.ClassSession {
	var out []models.ClassSession
	for i := range sessions {
		if sessions[i].EffectiveFolder() == folder {
			out = append(out, sessions[i])
		}
	}
	return out
}

// FilterByStudent returns the sessions for one student,
// or all sessions when studentID is AllStudents.
func FilterByStudent(sessions []models.ClassSession, studentID string) []models.ClassSession {
	if studentID == AllStudents {
		out := make([]models.ClassSession, len(sessions))
		copy(out, sessions)
		return out
	}
	var out []models.ClassSession
	for i := range sessions {
		if sessions[i].StudentID == studentID {
			out = append(out, sessions[i])
		}
	}
	return out
}

// FilterByMonth returns the sessions whose date falls in the given
// YYYY-MM month.
func FilterByMonth(sessions []models.ClassSession, yyyyMM string) []models.ClassSession {
	var out []models.ClassSession
	for i := range sessions {
		if sessionMonth(&sessions[i]) == yyyyMM {
			out = append(out, sessions[i])
		}
	}
	return out
}

// AvailableMonths returns the distinct YYYY-MM months present, most recent
// first. Drives the default month selection in history views.
func AvailableMonths(sessions []models.ClassSession) []string {
	seen := make(map[string]struct{})
	var months []string
	for i := range sessions {
		m := sessionMonth(&sessions[i])
		if m == "" {
			continue
		}
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			months = append(months, m)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// TotalHours sums the duration of the given (already filtered) sessions.
func TotalHours(sessions []models.ClassSession) float64 {
	var total float64
	for i := range sessions {
		total += sessions[i].Duration
	}
	return total
}

// SortByDate returns the sessions ordered by calendar date.
// The sort is stable, so sessions sharing a date keep their relative order.
func SortByDate(sessions []models.ClassSession, descending bool) []models.ClassSession {
	out := make([]models.ClassSession, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Date > out[j].Date
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// SortByInsertionTime returns the sessions ordered by creation timestamp.
// Diverges from date order when sessions are logged retroactively.
func SortByInsertionTime(sessions []models.ClassSession, descending bool) []models.ClassSession {
	out := make([]models.ClassSession, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// StudentHours is one row of a per-student aggregation.
type StudentHours struct {
	StudentID string  `json:"student_id"`
	Hours     float64 `json:"hours"`
}

// MonthlyTotalsByStudent sums hours per student for one YYYY-MM month,
// sorted descending by hours. Students tie-break by ID so the order is
// deterministic.
func MonthlyTotalsByStudent(sessions []models.ClassSession, yyyyMM string) []StudentHours {
	totals := make(map[string]float64)
	for i := range sessions {
		s := &sessions[i]
		if sessionMonth(s) != yyyyMM {
			continue
		}
		totals[s.StudentID] += s.Duration
	}

	out := make([]StudentHours, 0, len(totals))
	for id, hours := range totals {
		out = append(out, StudentHours{StudentID: id, Hours: hours})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

// StudentName resolves a student ID to a display name, falling back to
// UnknownStudentName for orphaned references.
func StudentName(students []models.Student, studentID string) string {
	for i := range students {
		if students[i].ID == studentID {
			return students[i].Name
		}
	}
	return UnknownStudentName
}

func sessionMonth(s *models.ClassSession) string {
	if len(s.Date) < 7 {
		return ""
	}
	return s.Date[:7]
}
