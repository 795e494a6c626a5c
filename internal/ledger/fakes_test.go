package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"classledger/internal/domain"
	"classledger/internal/domain/models"
	"classledger/internal/domain/repositories"
)

// In-memory repository fakes shared by the store and coordinator tests.

type fakeStudentRepo struct {
	mu       sync.Mutex
	nextID   int
	students []models.Student
}

func (r *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	student.ID = fmt.Sprintf("st-%d", r.nextID)
	student.CreatedAt = time.Now()
	r.students = append(r.students, *student)
	return nil
}

func (r *fakeStudentRepo) GetByID(ctx context.Context, id, userID string) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.students {
		if r.students[i].ID == id && r.students[i].UserID == userID {
			st := r.students[i]
			return &st, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("student %s not found", id)}
}

func (r *fakeStudentRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.students {
		if r.students[i].ID == id && r.students[i].UserID == userID {
			r.students = append(r.students[:i], r.students[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("student %s not found", id)}
}

func (r *fakeStudentRepo) ListByUser(ctx context.Context, userID string) ([]models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Student
	for i := range r.students {
		if r.students[i].UserID == userID {
			out = append(out, r.students[i])
		}
	}
	return out, nil
}

type fakeSessionRepo struct {
	mu            sync.Mutex
	nextID        int
	sessions      []models.ClassSession
	deleteManyErr error
}

// seed inserts a session directly, bypassing Create's ID assignment.
func (r *fakeSessionRepo) seed(s models.ClassSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *models.ClassSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	session.ID = fmt.Sprintf("se-%d", r.nextID)
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	r.sessions = append(r.sessions, *session)
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id, userID string) (*models.ClassSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sessions {
		if r.sessions[i].ID == id && r.sessions[i].UserID == userID {
			s := r.sessions[i]
			return &s, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("session %s not found", id)}
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *models.ClassSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sessions {
		if r.sessions[i].ID == session.ID && r.sessions[i].UserID == session.UserID {
			session.UpdatedAt = time.Now()
			r.sessions[i] = *session
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("session %s not found", session.ID)}
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sessions {
		if r.sessions[i].ID == id && r.sessions[i].UserID == userID {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("session %s not found", id)}
}

func (r *fakeSessionRepo) DeleteMany(ctx context.Context, ids []string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteManyErr != nil {
		return r.deleteManyErr
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := r.sessions[:0]
	for i := range r.sessions {
		if _, ok := drop[r.sessions[i].ID]; ok && r.sessions[i].UserID == userID {
			continue
		}
		kept = append(kept, r.sessions[i])
	}
	r.sessions = kept
	return nil
}

func (r *fakeSessionRepo) DeleteByStudent(ctx context.Context, studentID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.sessions[:0]
	for i := range r.sessions {
		if r.sessions[i].StudentID == studentID && r.sessions[i].UserID == userID {
			continue
		}
		kept = append(kept, r.sessions[i])
	}
	r.sessions = kept
	return nil
}

func (r *fakeSessionRepo) ListByUser(ctx context.Context, userID string) ([]models.ClassSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ClassSession
	for i := range r.sessions {
		if r.sessions[i].UserID == userID {
			out = append(out, r.sessions[i])
		}
	}
	return out, nil
}

// fakeFeed records notifications and hands out a channel that tests can
// push into to simulate out-of-process changes.
type fakeFeed struct {
	mu       sync.Mutex
	ch       chan repositories.Change
	notified []repositories.Change
}

func (f *fakeFeed) Listen(ctx context.Context) (<-chan repositories.Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch = make(chan repositories.Change, 16)
	return f.ch, nil
}

func (f *fakeFeed) Notify(ctx context.Context, change repositories.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, change)
	return nil
}

func (f *fakeFeed) notifications() []repositories.Change {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repositories.Change, len(f.notified))
	copy(out, f.notified)
	return out
}

// fakeTxManager runs the function directly. The atomicity guarantee under
// test comes from DeleteMany failing as a whole, not from a real database.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	studentRepo *fakeStudentRepo
	sessionRepo *fakeSessionRepo
	feed        *fakeFeed
	store       *EntityStore
}

func newTestEnv() *testEnv {
	env := &testEnv{
		studentRepo: &fakeStudentRepo{},
		sessionRepo: &fakeSessionRepo{},
		feed:        &fakeFeed{},
	}
	env.store = NewEntityStore(env.studentRepo, env.sessionRepo, fakeTxManager{}, env.feed, testLogger())
	return env
}
