package models

import (
	"time"
)

// DefaultFolder is the folder assumed for legacy sessions written before
// folders existed. Such records carry an empty folder tag on the wire.
const DefaultFolder = "1"

// ClassSession is one logged class for one student.
//
// Date is a plain YYYY-MM-DD calendar string, never a timestamp: storing a
// timezone-bearing instant shifts the visible day depending on where the
// record is read back.
type ClassSession struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Folder    string    `json:"folder,omitempty" db:"folder"`
	Date      string    `json:"date" db:"date"`
	Duration  float64   `json:"duration" db:"duration"`
	Note      string    `json:"note,omitempty" db:"note"`
	PackageNo *int      `json:"package_no,omitempty" db:"package_no"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EffectiveFolder resolves the legacy empty folder tag to the default folder.
func (s *ClassSession) EffectiveFolder() string {
	if s.Folder == "" {
		return DefaultFolder
	}
	return s.Folder
}

// EffectivePackageNo resolves a missing package number to package 1.
// Legacy records predate package tracking and belong to the first package.
func (s *ClassSession) EffectivePackageNo() int {
	if s.PackageNo == nil {
		return 1
	}
	return *s.PackageNo
}

type LogSessionRequest struct {
	Folder    string  `json:"folder"`
	StudentID string  `json:"student_id"`
	Date      string  `json:"date"`
	Duration  float64 `json:"duration"`
	Note      string  `json:"note,omitempty"`
}

// UpdateSessionRequest is a partial-field merge: only non-nil fields are
// applied to the existing record.
type UpdateSessionRequest struct {
	Folder    *string  `json:"folder,omitempty"`
	StudentID *string  `json:"student_id,omitempty"`
	Date      *string  `json:"date,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
	Note      *string  `json:"note,omitempty"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}
