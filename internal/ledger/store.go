package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"classledger/internal/config"
	"classledger/internal/domain"
	"classledger/internal/domain/models"
	"classledger/internal/domain/repositories"
)

// dateLayout is the only accepted calendar date format
const dateLayout = "2006-01-02"

// Snapshot is a full copy of both collections at one point in time.
// Subscribers always receive whole snapshots, never diffs; the latest
// delivered snapshot is authoritative and any earlier one is stale.
type Snapshot struct {
	Students []models.Student      `json:"students"`
	Sessions []models.ClassSession `json:"sessions"`
}

// EntityStore owns the in-memory Student and ClassSession collections for
// one signed-in identity. It is an explicit lifecycle object: Open binds it
// to an identity and starts the live change feed, Close tears the feed down
// and clears all locally held state.
//
// Every successful mutation reloads the affected collection and broadcasts
// a fresh snapshot to all subscribers, so a mutator never has to patch its
// own local view. A failed mutation leaves the in-memory state exactly as
// it was.
type EntityStore struct {
	studentRepo repositories.StudentRepository
	sessionRepo repositories.SessionRepository
	txManager   repositories.TransactionManager
	feed        repositories.ChangeFeed
	logger      *slog.Logger

	mu       sync.RWMutex
	identity string
	snap     Snapshot
	subs     map[int]chan Snapshot
	nextSub  int
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewEntityStore creates a closed entity store. Call Open before use.
func NewEntityStore(
	studentRepo repositories.StudentRepository,
	sessionRepo repositories.SessionRepository,
	txManager repositories.TransactionManager,
	feed repositories.ChangeFeed,
	logger *slog.Logger,
) *EntityStore {
	return &EntityStore{
		studentRepo: studentRepo,
		sessionRepo: sessionRepo,
		txManager:   txManager,
		feed:        feed,
		logger:      logger,
	}
}

// Open binds the store to an identity, loads both collections and starts
// consuming the live change feed. An already-open store is closed first, so
// an identity change never mutates a feed in place.
func (s *EntityStore) Open(ctx context.Context, identity string) error {
	if identity == "" {
		return &domain.UnauthorizedError{Message: "no signed-in identity"}
	}
	s.Close()

	students, err := s.studentRepo.ListByUser(ctx, identity)
	if err != nil {
		return wrapStoreErr("load students", err)
	}
	sessions, err := s.sessionRepo.ListByUser(ctx, identity)
	if err != nil {
		return wrapStoreErr("load sessions", err)
	}

	// The feed must outlive the opening request
	feedCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	events, err := s.feed.Listen(feedCtx)
	if err != nil {
		cancel()
		return wrapStoreErr("open change feed", err)
	}

	done := make(chan struct{})

	s.mu.Lock()
	s.identity = identity
	s.snap = Snapshot{Students: students, Sessions: sessions}
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.consumeFeed(feedCtx, identity, events, done)

	s.logger.Info("entity store opened",
		"identity", identity,
		"students", len(students),
		"sessions", len(sessions),
	)
	return nil
}

// Close stops the change feed, drops all subscribers and clears the local
// collections. Safe to call on a closed store.
func (s *EntityStore) Close() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	subs := s.subs
	s.cancel = nil
	s.done = nil
	s.subs = nil
	s.identity = ""
	s.snap = Snapshot{}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	for _, ch := range subs {
		close(ch)
	}
}

// Identity returns the identity the store is scoped to, or "" when closed.
func (s *EntityStore) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Students returns a copy of the current student collection.
func (s *EntityStore) Students() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Student, len(s.snap.Students))
	copy(out, s.snap.Students)
	return out
}

// Sessions returns a copy of the current session collection.
func (s *EntityStore) Sessions() []models.ClassSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ClassSession, len(s.snap.Sessions))
	copy(out, s.snap.Sessions)
	return out
}

// Snapshot returns a copy of both collections.
func (s *EntityStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.snap)
}

// Subscribe registers a live subscriber. The returned channel immediately
// carries the current snapshot and then a fresh snapshot after every
// change. A slow subscriber only ever misses intermediate snapshots, never
// the latest one. The returned func unsubscribes and closes the channel.
func (s *EntityStore) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]chan Snapshot)
	}
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch
	ch <- copySnapshot(s.snap)
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		sub, ok := s.subs[id]
		if ok {
			delete(s.subs, id)
		}
		s.mu.Unlock()
		if ok {
			close(sub)
		}
	}
	return ch, unsubscribe
}

// AddStudent validates and persists a new student.
func (s *EntityStore) AddStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	identity, err := s.requireIdentity()
	if err != nil {
		return nil, err
	}

	err = validation.ValidateStruct(&req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxStudentNameLength),
		),
		validation.Field(&req.Note, validation.Length(0, config.MaxNoteLength)),
	)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid student: %v", err)}
	}

	student := &models.Student{
		UserID: identity,
		Name:   req.Name,
		Note:   req.Note,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, wrapStoreErr("add student", err)
	}

	s.afterMutation(ctx, identity, repositories.CollectionStudents)
	return student, nil
}

// DeleteStudent removes a single student record. It does NOT sweep the
// student's sessions; Coordinator.DeleteStudent issues the cascade as a
// second, independent operation.
func (s *EntityStore) DeleteStudent(ctx context.Context, id string) error {
	identity, err := s.requireIdentity()
	if err != nil {
		return err
	}

	if err := s.studentRepo.Delete(ctx, id, identity); err != nil {
		return wrapStoreErr("delete student", err)
	}

	s.afterMutation(ctx, identity, repositories.CollectionStudents)
	return nil
}

// AddSession validates and persists a new class session. packageNo is
// written only when provided; callers pass nil for folders that are not
// package-tracked.
func (s *EntityStore) AddSession(ctx context.Context, req models.LogSessionRequest, packageNo *int) (*models.ClassSession, error) {
	identity, err := s.requireIdentity()
	if err != nil {
		return nil, err
	}

	err = validation.ValidateStruct(&req,
		validation.Field(&req.StudentID, validation.Required),
		validation.Field(&req.Date, validation.Required, validation.Date(dateLayout)),
		validation.Field(&req.Duration, validation.Min(0.0).Exclusive()),
		validation.Field(&req.Note, validation.Length(0, config.MaxNoteLength)),
	)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid session: %v", err)}
	}
	if !s.studentExists(req.StudentID) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("student %s does not exist", req.StudentID)}
	}
	if packageNo != nil && *packageNo < 1 {
		return nil, &domain.ValidationError{Message: "package number must be positive"}
	}

	session := &models.ClassSession{
		UserID:    identity,
		StudentID: req.StudentID,
		Folder:    req.Folder,
		Date:      req.Date,
		Duration:  req.Duration,
		Note:      req.Note,
		PackageNo: packageNo,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, wrapStoreErr("add session", err)
	}

	s.afterMutation(ctx, identity, repositories.CollectionSessions)
	return session, nil
}

// UpdateSession merges the provided fields into an existing session and
// stamps UpdatedAt. The package number is intentionally left untouched even
// when the folder or student changes; see Coordinator.EditSession.
func (s *EntityStore) UpdateSession(ctx context.Context, id string, req models.UpdateSessionRequest) (*models.ClassSession, error) {
	identity, err := s.requireIdentity()
	if err != nil {
		return nil, err
	}

	existing, err := s.sessionRepo.GetByID(ctx, id, identity)
	if err != nil {
		return nil, wrapStoreErr("get session", err)
	}

	if req.Folder != nil {
		existing.Folder = *req.Folder
	}
	if req.StudentID != nil {
		if !s.studentExists(*req.StudentID) {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("student %s does not exist", *req.StudentID)}
		}
		existing.StudentID = *req.StudentID
	}
	if req.Date != nil {
		existing.Date = *req.Date
	}
	if req.Duration != nil {
		existing.Duration = *req.Duration
	}
	if req.Note != nil {
		existing.Note = *req.Note
	}

	err = validation.ValidateStruct(existing,
		validation.Field(&existing.Date, validation.Required, validation.Date(dateLayout)),
		validation.Field(&existing.Duration, validation.Min(0.0).Exclusive()),
		validation.Field(&existing.Note, validation.Length(0, config.MaxNoteLength)),
	)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid session: %v", err)}
	}

	if err := s.sessionRepo.Update(ctx, existing); err != nil {
		return nil, wrapStoreErr("update session", err)
	}

	s.afterMutation(ctx, identity, repositories.CollectionSessions)
	return existing, nil
}

// DeleteSession removes a single session.
func (s *EntityStore) DeleteSession(ctx context.Context, id string) error {
	identity, err := s.requireIdentity()
	if err != nil {
		return err
	}

	if err := s.sessionRepo.Delete(ctx, id, identity); err != nil {
		return wrapStoreErr("delete session", err)
	}

	s.afterMutation(ctx, identity, repositories.CollectionSessions)
	return nil
}

// DeleteSessions removes the named sessions as one atomic batch. If the
// commit fails, no session has been removed and a BatchError is returned.
// An empty list is a no-op.
func (s *EntityStore) DeleteSessions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	identity, err := s.requireIdentity()
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.sessionRepo.DeleteMany(ctx, ids, identity)
	})
	if err != nil {
		return &domain.BatchError{
			Message: fmt.Sprintf("bulk delete of %d sessions failed: %v", len(ids), err),
			IDs:     ids,
		}
	}

	s.afterMutation(ctx, identity, repositories.CollectionSessions)
	return nil
}

// DeleteSessionsByStudent removes every session referencing a student.
// This is the sweep half of the student-delete cascade.
func (s *EntityStore) DeleteSessionsByStudent(ctx context.Context, studentID string) error {
	identity, err := s.requireIdentity()
	if err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteByStudent(ctx, studentID, identity); err != nil {
		return wrapStoreErr("delete student sessions", err)
	}

	s.afterMutation(ctx, identity, repositories.CollectionSessions)
	return nil
}

func (s *EntityStore) requireIdentity() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == "" {
		return "", &domain.UnauthorizedError{Message: "entity store is not open"}
	}
	return s.identity, nil
}

func (s *EntityStore) studentExists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.snap.Students {
		if s.snap.Students[i].ID == id {
			return true
		}
	}
	return false
}

// afterMutation reloads the affected collection, broadcasts the new
// snapshot and publishes a change event for out-of-process listeners.
// Reload failures are logged, not returned: the mutation itself already
// committed and the feed will eventually re-deliver.
func (s *EntityStore) afterMutation(ctx context.Context, identity, collection string) {
	if err := s.reloadCollection(ctx, identity, collection); err != nil {
		s.logger.Error("snapshot refresh failed",
			"identity", identity,
			"collection", collection,
			"error", err,
		)
	}
	change := repositories.Change{UserID: identity, Collection: collection}
	if err := s.feed.Notify(ctx, change); err != nil {
		s.logger.Warn("change notify failed",
			"identity", identity,
			"collection", collection,
			"error", err,
		)
	}
}

// reloadCollection refreshes one collection from the backing store and
// broadcasts the resulting snapshot to all subscribers.
func (s *EntityStore) reloadCollection(ctx context.Context, identity, collection string) error {
	switch collection {
	case repositories.CollectionStudents:
		students, err := s.studentRepo.ListByUser(ctx, identity)
		if err != nil {
			return fmt.Errorf("reload students: %w", err)
		}
		s.mu.Lock()
		if s.identity != identity {
			s.mu.Unlock()
			return nil // store was re-scoped while reloading
		}
		s.snap.Students = students
		s.broadcastLocked()
		s.mu.Unlock()
	case repositories.CollectionSessions:
		sessions, err := s.sessionRepo.ListByUser(ctx, identity)
		if err != nil {
			return fmt.Errorf("reload sessions: %w", err)
		}
		s.mu.Lock()
		if s.identity != identity {
			s.mu.Unlock()
			return nil
		}
		s.snap.Sessions = sessions
		s.broadcastLocked()
		s.mu.Unlock()
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}
	return nil
}

// broadcastLocked pushes the current snapshot to every subscriber.
// Caller must hold s.mu. Each subscriber channel keeps only the most
// recent snapshot: a stale buffered snapshot is replaced, never queued
// behind.
func (s *EntityStore) broadcastLocked() {
	snap := copySnapshot(s.snap)
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// consumeFeed applies change events for this store's identity until the
// feed context is cancelled.
func (s *EntityStore) consumeFeed(ctx context.Context, identity string, events <-chan repositories.Change, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.UserID != identity {
				continue
			}
			if err := s.reloadCollection(ctx, identity, ev.Collection); err != nil {
				s.logger.Error("feed reload failed",
					"identity", identity,
					"collection", ev.Collection,
					"error", err,
				)
			}
		}
	}
}

func copySnapshot(snap Snapshot) Snapshot {
	out := Snapshot{
		Students: make([]models.Student, len(snap.Students)),
		Sessions: make([]models.ClassSession, len(snap.Sessions)),
	}
	copy(out.Students, snap.Students)
	copy(out.Sessions, snap.Sessions)
	return out
}

// wrapStoreErr passes typed domain errors through and wraps anything else
// as a StoreError.
func wrapStoreErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrUnauthorized) {
		return err
	}
	return &domain.StoreError{Message: fmt.Sprintf("%s: %v", op, err)}
}
