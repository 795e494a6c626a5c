package ledger

import (
	"context"
	"errors"
	"testing"

	"classledger/internal/domain"
	"classledger/internal/domain/models"
	"classledger/internal/domain/repositories"
)

const testIdentity = "user-1"

func openTestStore(t *testing.T, env *testEnv) {
	t.Helper()
	if err := env.store.Open(context.Background(), testIdentity); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(env.store.Close)
}

func addTestStudent(t *testing.T, env *testEnv, name string) *models.Student {
	t.Helper()
	student, err := env.store.AddStudent(context.Background(), models.CreateStudentRequest{Name: name})
	if err != nil {
		t.Fatalf("AddStudent(%q) error = %v", name, err)
	}
	return student
}

func addTestSession(t *testing.T, env *testEnv, studentID, folder, date string, packageNo *int) *models.ClassSession {
	t.Helper()
	session, err := env.store.AddSession(context.Background(), models.LogSessionRequest{
		StudentID: studentID,
		Folder:    folder,
		Date:      date,
		Duration:  1.5,
	}, packageNo)
	if err != nil {
		t.Fatalf("AddSession() error = %v", err)
	}
	return session
}

func TestStoreOpenLoadsExistingRecords(t *testing.T) {
	env := newTestEnv()
	env.sessionRepo.seed(models.ClassSession{ID: "pre", UserID: testIdentity, StudentID: "S1", Date: "2024-01-01", Duration: 1})

	openTestStore(t, env)

	if got := env.store.Identity(); got != testIdentity {
		t.Errorf("Identity() = %q, want %q", got, testIdentity)
	}
	if got := env.store.Sessions(); len(got) != 1 || got[0].ID != "pre" {
		t.Errorf("Sessions() = %v, want the seeded record", got)
	}
}

func TestStoreMutationsRequireOpen(t *testing.T) {
	env := newTestEnv()

	_, err := env.store.AddStudent(context.Background(), models.CreateStudentRequest{Name: "Amy"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("AddStudent on closed store: error = %v, want ErrUnauthorized", err)
	}
}

func TestStoreAddStudentRoundTrip(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	student := addTestStudent(t, env, "Amy")
	if student.ID == "" {
		t.Fatal("AddStudent did not assign an ID")
	}
	if student.UserID != testIdentity {
		t.Errorf("student.UserID = %q, want %q", student.UserID, testIdentity)
	}

	students := env.store.Students()
	if len(students) != 1 || students[0].ID != student.ID {
		t.Errorf("Students() = %v, want the new student", students)
	}
}

func TestStoreAddSessionRoundTrip(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)
	student := addTestStudent(t, env, "Amy")

	req := models.LogSessionRequest{
		StudentID: student.ID,
		Folder:    "2",
		Date:      "2024-03-05",
		Duration:  1.5,
		Note:      "algebra review",
	}
	created, err := env.store.AddSession(context.Background(), req, intPtr(1))
	if err != nil {
		t.Fatalf("AddSession() error = %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Error("AddSession did not fill server-assigned fields")
	}

	// The next snapshot read carries the record with the input fields intact
	sessions := env.store.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("Sessions() has %d records, want 1", len(sessions))
	}
	got := sessions[0]
	if got.StudentID != req.StudentID || got.Folder != req.Folder ||
		got.Date != req.Date || got.Duration != req.Duration || got.Note != req.Note {
		t.Errorf("snapshot record = %+v, want the logged input", got)
	}
	if got.PackageNo == nil || *got.PackageNo != 1 {
		t.Errorf("PackageNo = %v, want 1", fmtPtr(got.PackageNo))
	}
}

func TestStoreAddStudentValidation(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	_, err := env.store.AddStudent(context.Background(), models.CreateStudentRequest{Name: ""})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("AddStudent with empty name: error = %v, want ErrValidation", err)
	}
}

func TestStoreAddSessionValidation(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)
	student := addTestStudent(t, env, "Amy")

	tests := []struct {
		name string
		req  models.LogSessionRequest
		pkg  *int
	}{
		{
			name: "missing student",
			req:  models.LogSessionRequest{Date: "2024-03-01", Duration: 1},
		},
		{
			name: "unknown student",
			req:  models.LogSessionRequest{StudentID: "nope", Date: "2024-03-01", Duration: 1},
		},
		{
			name: "bad date",
			req:  models.LogSessionRequest{StudentID: student.ID, Date: "03/01/2024", Duration: 1},
		},
		{
			name: "zero duration",
			req:  models.LogSessionRequest{StudentID: student.ID, Date: "2024-03-01"},
		},
		{
			name: "non-positive package number",
			req:  models.LogSessionRequest{StudentID: student.ID, Date: "2024-03-01", Duration: 1},
			pkg:  intPtr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.store.AddSession(context.Background(), tt.req, tt.pkg)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("AddSession() error = %v, want ErrValidation", err)
			}
		})
	}

	if got := env.store.Sessions(); len(got) != 0 {
		t.Errorf("rejected sessions leaked into the snapshot: %v", got)
	}
}

func TestStoreUpdateSessionMergesFields(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)
	student := addTestStudent(t, env, "Amy")
	session := addTestSession(t, env, student.ID, "3", "2024-03-01", intPtr(1))

	newDate := "2024-03-02"
	newNote := "rescheduled"
	updated, err := env.store.UpdateSession(context.Background(), session.ID, models.UpdateSessionRequest{
		Date: &newDate,
		Note: &newNote,
	})
	if err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}

	if updated.Date != newDate || updated.Note != newNote {
		t.Errorf("UpdateSession() = %+v, want merged date and note", updated)
	}
	// Untouched fields survive the merge, including the package number
	if updated.Duration != session.Duration {
		t.Errorf("Duration changed: %v -> %v", session.Duration, updated.Duration)
	}
	if updated.PackageNo == nil || *updated.PackageNo != 1 {
		t.Errorf("PackageNo = %v, want 1", fmtPtr(updated.PackageNo))
	}
}

func TestStoreUpdateMissingSession(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	_, err := env.store.UpdateSession(context.Background(), "gone", models.UpdateSessionRequest{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateSession(gone) error = %v, want ErrNotFound", err)
	}
}

func TestStoreBulkDeleteAllOrNothing(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)
	student := addTestStudent(t, env, "Amy")

	var ids []string
	for _, date := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		ids = append(ids, addTestSession(t, env, student.ID, "1", date, nil).ID)
	}

	env.sessionRepo.deleteManyErr = errors.New("connection reset")
	err := env.store.DeleteSessions(context.Background(), ids)
	if !errors.Is(err, domain.ErrBatch) {
		t.Fatalf("DeleteSessions() error = %v, want ErrBatch", err)
	}
	var batchErr *domain.BatchError
	if !errors.As(err, &batchErr) || len(batchErr.IDs) != 3 {
		t.Fatalf("BatchError.IDs = %v, want the 3 requested IDs", err)
	}
	if got := env.store.Sessions(); len(got) != 3 {
		t.Fatalf("failed batch removed records: %d sessions left, want 3", len(got))
	}

	// Retry after the store recovers removes everything
	env.sessionRepo.deleteManyErr = nil
	if err := env.store.DeleteSessions(context.Background(), ids); err != nil {
		t.Fatalf("DeleteSessions() retry error = %v", err)
	}
	if got := env.store.Sessions(); len(got) != 0 {
		t.Errorf("Sessions() after retry = %v, want empty", got)
	}
}

func TestStoreBulkDeleteEmptyIsNoOp(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	if err := env.store.DeleteSessions(context.Background(), nil); err != nil {
		t.Errorf("DeleteSessions(nil) error = %v, want nil", err)
	}
	if got := env.feed.notifications(); len(got) != 0 {
		t.Errorf("empty bulk delete published %d change events, want 0", len(got))
	}
}

func TestStoreSubscribeDeliversSnapshots(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	snapshots, unsubscribe := env.store.Subscribe()
	defer unsubscribe()

	initial := <-snapshots
	if len(initial.Students) != 0 || len(initial.Sessions) != 0 {
		t.Fatalf("initial snapshot = %+v, want empty", initial)
	}

	student := addTestStudent(t, env, "Amy")
	next := <-snapshots
	if len(next.Students) != 1 || next.Students[0].ID != student.ID {
		t.Errorf("snapshot after AddStudent = %+v, want the new student", next)
	}
}

func TestStoreSubscribeLatestWins(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	snapshots, unsubscribe := env.store.Subscribe()
	defer unsubscribe()

	// Two mutations land before the subscriber reads anything. The single
	// buffered slot must hold the newest snapshot, not the oldest.
	student := addTestStudent(t, env, "Amy")
	addTestSession(t, env, student.ID, "1", "2024-03-01", nil)

	snap := <-snapshots
	if len(snap.Students) != 1 || len(snap.Sessions) != 1 {
		t.Errorf("snapshot = %d students / %d sessions, want 1 / 1", len(snap.Students), len(snap.Sessions))
	}
}

func TestStoreReopenClearsPreviousScope(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)
	addTestStudent(t, env, "Amy")

	if err := env.store.Open(context.Background(), "user-2"); err != nil {
		t.Fatalf("Open(user-2) error = %v", err)
	}

	if got := env.store.Identity(); got != "user-2" {
		t.Errorf("Identity() = %q, want user-2", got)
	}
	if got := env.store.Students(); len(got) != 0 {
		t.Errorf("Students() after re-scope = %v, want empty", got)
	}
}

func TestStoreCloseEndsSubscriptions(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	snapshots, unsubscribe := env.store.Subscribe()
	defer unsubscribe()
	<-snapshots

	env.store.Close()

	if _, open := <-snapshots; open {
		t.Error("subscription channel still open after Close")
	}
	if got := env.store.Identity(); got != "" {
		t.Errorf("Identity() after Close = %q, want empty", got)
	}
}

func TestStoreFeedEventReloadsCollection(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	snapshots, unsubscribe := env.store.Subscribe()
	defer unsubscribe()
	<-snapshots

	// Another process wrote a session and published a change event
	env.sessionRepo.seed(models.ClassSession{ID: "remote", UserID: testIdentity, StudentID: "S1", Date: "2024-04-01", Duration: 1})
	env.feed.ch <- repositories.Change{UserID: testIdentity, Collection: repositories.CollectionSessions}

	snap := <-snapshots
	if len(snap.Sessions) != 1 || snap.Sessions[0].ID != "remote" {
		t.Errorf("snapshot after feed event = %+v, want the remote session", snap.Sessions)
	}
}

func TestStoreFeedIgnoresOtherIdentities(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	env.sessionRepo.seed(models.ClassSession{ID: "theirs", UserID: "user-2", StudentID: "S1", Date: "2024-04-01", Duration: 1})
	env.feed.ch <- repositories.Change{UserID: "user-2", Collection: repositories.CollectionSessions}

	// Synchronize past the feed event via a local mutation
	addTestStudent(t, env, "Amy")

	if got := env.store.Sessions(); len(got) != 0 {
		t.Errorf("Sessions() = %v, want empty (other identity's change leaked in)", got)
	}
}

func TestStoreMutationPublishesChange(t *testing.T) {
	env := newTestEnv()
	openTestStore(t, env)

	addTestStudent(t, env, "Amy")

	notes := env.feed.notifications()
	if len(notes) != 1 {
		t.Fatalf("got %d change events, want 1", len(notes))
	}
	want := repositories.Change{UserID: testIdentity, Collection: repositories.CollectionStudents}
	if notes[0] != want {
		t.Errorf("change event = %+v, want %+v", notes[0], want)
	}
}
