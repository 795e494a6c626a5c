package ledger

import (
	"classledger/internal/domain/models"
	"classledger/internal/folders"
)

// NextPackageNumber decides which package the next logged session belongs to
// for a given student and folder. Returns nil when the folder is not
// package-tracked (no package number applies).
//
// Existing records are never renumbered: the function only answers for the
// next insertion. Legacy sessions lacking a folder count as the default
// folder, and legacy sessions lacking a package number count as package 1.
//
// The result is computed against the sessions passed in. Two callers racing
// on a stale snapshot can both receive the same number and overfill a
// package by one; see Coordinator.LogSession.
func NextPackageNumber(reg *folders.Registry, sessions []models.ClassSession, folder, studentID string) *int {
	if !reg.IsPackageTracked(folder) {
		return nil
	}

	maxPkg := 0
	countInMax := 0
	for i := range sessions {
		s := &sessions[i]
		if s.StudentID != studentID || s.EffectiveFolder() != folder {
			continue
		}
		pn := s.EffectivePackageNo()
		switch {
		case pn > maxPkg:
			maxPkg = pn
			countInMax = 1
		case pn == maxPkg:
			countInMax++
		}
	}

	// No history for this student and folder: start package 1
	if maxPkg == 0 {
		n := 1
		return &n
	}

	// Current package is full: the next session opens a new one
	if countInMax >= reg.PackageSize(folder) {
		n := maxPkg + 1
		return &n
	}

	n := maxPkg
	return &n
}
