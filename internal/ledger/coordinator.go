package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"classledger/internal/domain"
	"classledger/internal/domain/models"
	"classledger/internal/folders"
)

// Coordinator sequences the numbering engine and the entity store for
// mutations, and guarantees bulk operations are atomic from the caller's
// perspective. It holds no per-request state; all ledger state lives in
// the per-identity entity stores.
type Coordinator struct {
	stores *Manager
	reg    *folders.Registry
	logger *slog.Logger
}

// NewCoordinator creates a mutation coordinator.
func NewCoordinator(stores *Manager, reg *folders.Registry, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		stores: stores,
		reg:    reg,
		logger: logger,
	}
}

// LogSession computes the package number against the store's current
// snapshot immediately before inserting, then persists the session.
//
// Known limitation: the number is computed client-side against an
// eventually-consistent snapshot. Two concurrent LogSession calls for the
// same student and folder can both read the same history and claim the
// same package slot, leaving one package with eleven members instead of
// opening a new one. Fixing this requires an authoritative per-student
// counter maintained transactionally by the backing store.
func (c *Coordinator) LogSession(ctx context.Context, identity string, req models.LogSessionRequest) (*models.ClassSession, error) {
	if req.Folder != "" && !c.reg.IsKnown(req.Folder) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown folder %q", req.Folder)}
	}

	store, err := c.stores.Acquire(ctx, identity)
	if err != nil {
		return nil, err
	}

	folder := req.Folder
	if folder == "" {
		folder = models.DefaultFolder
	}
	packageNo := NextPackageNumber(c.reg, store.Sessions(), folder, req.StudentID)

	session, err := store.AddSession(ctx, req, packageNo)
	if err != nil {
		return nil, err
	}

	c.logger.Info("session logged",
		"identity", identity,
		"student_id", session.StudentID,
		"folder", session.EffectiveFolder(),
		"date", session.Date,
		"package_no", session.PackageNo,
	)
	return session, nil
}

// EditSession merges the provided fields into an existing session.
//
// The package number is deliberately not recomputed when the folder or
// student changes: renumbering an existing record could reorder or gap the
// package sequence built on top of it. Moving a session between packages
// is an explicit, separate decision left to the caller.
func (c *Coordinator) EditSession(ctx context.Context, identity, id string, req models.UpdateSessionRequest) (*models.ClassSession, error) {
	if req.Folder != nil && *req.Folder != "" && !c.reg.IsKnown(*req.Folder) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown folder %q", *req.Folder)}
	}

	store, err := c.stores.Acquire(ctx, identity)
	if err != nil {
		return nil, err
	}
	return store.UpdateSession(ctx, id, req)
}

// DeleteSession removes one session.
func (c *Coordinator) DeleteSession(ctx context.Context, identity, id string) error {
	store, err := c.stores.Acquire(ctx, identity)
	if err != nil {
		return err
	}
	return store.DeleteSession(ctx, id)
}

// BulkDeleteSessions removes the named sessions atomically: after it
// returns, either all of them are gone from subsequent reads or none are.
// An empty list is a no-op, not an error.
func (c *Coordinator) BulkDeleteSessions(ctx context.Context, identity string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	store, err := c.stores.Acquire(ctx, identity)
	if err != nil {
		return err
	}
	if err := store.DeleteSessions(ctx, ids); err != nil {
		return err
	}

	c.logger.Info("sessions bulk-deleted", "identity", identity, "count", len(ids))
	return nil
}

// AddStudent creates a new student.
func (c *Coordinator) AddStudent(ctx context.Context, identity string, req models.CreateStudentRequest) (*models.Student, error) {
	store, err := c.stores.Acquire(ctx, identity)
	if err != nil {
		return nil, err
	}
	return store.AddStudent(ctx, req)
}

// DeleteStudent removes a student and then sweeps the student's sessions.
// The two deletes are independent operations, not one transaction: a crash
// between them leaves orphaned sessions referencing a missing student.
// Readers tolerate such orphans (they render as "Unknown Student"), and
// re-running the delete sweeps any leftovers.
func (c *Coordinator) DeleteStudent(ctx context.Context, identity, id string) error {
	store, err := c.stores.Acquire(ctx, identity)
	if err != nil {
		return err
	}

	if err := store.DeleteStudent(ctx, id); err != nil {
		return err
	}
	if err := store.DeleteSessionsByStudent(ctx, id); err != nil {
		return fmt.Errorf("cascade sweep for student %s: %w", id, err)
	}

	c.logger.Info("student deleted", "identity", identity, "student_id", id)
	return nil
}
