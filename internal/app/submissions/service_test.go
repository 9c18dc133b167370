// internal/app/submissions/service_test.go

package submissions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/store/memory"
	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// memBlobs is an in-memory BlobStore with switches for failure injection.
type memBlobs struct {
	mu      sync.Mutex
	files   map[string][]byte
	seq     int
	failPut bool
	failDel bool
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: make(map[string][]byte)}
}

func (m *memBlobs) Store(ctx context.Context, filename, contentType string, size int64, r io.Reader) (models.FileRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return models.FileRef{}, errors.New("blob store unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.FileRef{}, err
	}
	m.seq++
	path := fmt.Sprintf("submissions/%d-%s", m.seq, filename)
	m.files[path] = data
	return models.FileRef{
		Path:        path,
		Name:        filename,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

func (m *memBlobs) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel {
		return errors.New("blob delete unavailable")
	}
	delete(m.files, path)
	return nil
}

func (m *memBlobs) Resolve(ctx context.Context, ref models.FileRef) (string, error) {
	return "/blobs/" + ref.Path, nil
}

func (m *memBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func (m *memBlobs) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func newTestService(t *testing.T) (*Service, *memory.Store, *memBlobs) {
	t.Helper()
	st := memory.New()
	blobs := newMemBlobs()
	return NewService(st.Assignments(), blobs, zap.NewNop()), st, blobs
}

func mustCreateAssignment(t *testing.T, st *memory.Store, teacherID, classID int64) models.Assignment {
	t.Helper()
	a := models.Assignment{
		Title:     "Essay",
		TeacherID: teacherID,
		ClassID:   classID,
		DueDate:   time.Now().Add(72 * time.Hour),
	}
	if err := st.Assignments().Create(context.Background(), &a); err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return a
}

func studentPrincipal(id int64, classIDs ...int64) *authz.Principal {
	return &authz.Principal{ID: id, Name: fmt.Sprintf("Student %d", id), Role: models.RoleStudent, ClassIDs: classIDs}
}

func upload(name, body string) Upload {
	return Upload{Filename: name, ContentType: "text/plain", Size: int64(len(body)), Content: strings.NewReader(body)}
}

func TestSubmitStoresFileAndRecord(t *testing.T) {
	svc, st, blobs := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)

	sub, err := svc.Submit(ctx, a.ID, upload("essay.txt", "my essay"), studentPrincipal(5, 10))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.StudentID != 5 {
		t.Errorf("submission student id = %d, want 5", sub.StudentID)
	}
	if sub.File.Name != "essay.txt" || sub.File.Size != int64(len("my essay")) {
		t.Errorf("file ref = %+v", sub.File)
	}
	if !blobs.has(sub.File.Path) {
		t.Error("stored blob missing")
	}
	got, _ := st.Assignments().GetByID(ctx, a.ID)
	if len(got.Submissions) != 1 {
		t.Fatalf("submissions recorded = %d, want 1", len(got.Submissions))
	}
}

func TestResubmitReplacesFile(t *testing.T) {
	svc, st, blobs := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)
	p := studentPrincipal(5, 10)

	first, err := svc.Submit(ctx, a.ID, upload("v1.txt", "draft"), p)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.Submit(ctx, a.ID, upload("v2.txt", "final"), p)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if blobs.has(first.File.Path) {
		t.Error("replaced file still stored")
	}
	if !blobs.has(second.File.Path) {
		t.Error("current file missing")
	}
	got, _ := st.Assignments().GetByID(ctx, a.ID)
	if got.Submissions[5].File.Name != "v2.txt" {
		t.Errorf("current submission file = %q, want v2.txt", got.Submissions[5].File.Name)
	}
	if len(got.Submissions) != 1 {
		t.Errorf("submission count = %d after resubmit, want 1", len(got.Submissions))
	}
}

func TestSubmitGuards(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)

	if _, err := svc.Submit(ctx, a.ID, upload("x", "y"), nil); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("anonymous submit: got %v, want unauthenticated", err)
	}
	teacher := &authz.Principal{ID: 1, Role: models.RoleTeacher, ClassIDs: []int64{10}}
	if _, err := svc.Submit(ctx, a.ID, upload("x", "y"), teacher); !apperr.IsForbidden(err) {
		t.Errorf("teacher submit: got %v, want forbidden", err)
	}
	if _, err := svc.Submit(ctx, a.ID, upload("x", "y"), studentPrincipal(5, 99)); !apperr.IsForbidden(err) {
		t.Errorf("unenrolled student submit: got %v, want forbidden", err)
	}
	if _, err := svc.Submit(ctx, 404, upload("x", "y"), studentPrincipal(5, 10)); !apperr.IsNotFound(err) {
		t.Errorf("missing assignment submit: got %v, want not found", err)
	}
	if _, err := svc.Submit(ctx, a.ID, Upload{}, studentPrincipal(5, 10)); !apperr.IsValidation(err) {
		t.Errorf("empty upload: got %v, want validation error", err)
	}
}

func TestSubmitStorageFailureKeepsPrevious(t *testing.T) {
	svc, st, blobs := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)
	p := studentPrincipal(5, 10)

	first, err := svc.Submit(ctx, a.ID, upload("v1.txt", "draft"), p)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	blobs.failPut = true
	if _, err := svc.Submit(ctx, a.ID, upload("v2.txt", "final"), p); !apperr.IsStorage(err) {
		t.Fatalf("submit with dead blob store: got %v, want storage error", err)
	}

	// The previous submission is untouched: record and file both remain.
	got, _ := st.Assignments().GetByID(ctx, a.ID)
	if got.Submissions[5].File.Path != first.File.Path {
		t.Error("record changed despite storage failure")
	}
	if !blobs.has(first.File.Path) {
		t.Error("previous file lost despite storage failure")
	}
}

func TestResubmitSurvivesFailedCleanup(t *testing.T) {
	svc, st, blobs := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)
	p := studentPrincipal(5, 10)

	if _, err := svc.Submit(ctx, a.ID, upload("v1.txt", "draft"), p); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Deleting the old blob fails, but the resubmission itself succeeds.
	blobs.failDel = true
	second, err := svc.Submit(ctx, a.ID, upload("v2.txt", "final"), p)
	if err != nil {
		t.Fatalf("resubmit with failing delete: %v", err)
	}
	got, _ := st.Assignments().GetByID(ctx, a.ID)
	if got.Submissions[5].File.Path != second.File.Path {
		t.Error("record does not point at the new file")
	}
}

func TestConcurrentResubmitsLeaveOneCurrent(t *testing.T) {
	svc, st, blobs := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)
	p := studentPrincipal(5, 10)

	const n = 6
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("v%d.txt", i)
			if _, err := svc.Submit(ctx, a.ID, upload(name, "body"), p); err != nil {
				t.Errorf("submit %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := st.Assignments().GetByID(ctx, a.ID)
	if len(got.Submissions) != 1 {
		t.Fatalf("submission count = %d, want 1", len(got.Submissions))
	}
	// Exactly the current file remains stored; every replaced one was
	// cleaned up.
	if blobs.count() != 1 {
		t.Errorf("stored blobs = %d after %d racing resubmits, want 1", blobs.count(), n)
	}
	if !blobs.has(got.Submissions[5].File.Path) {
		t.Error("the recorded file is not the stored one")
	}
}

func TestListSubmissions(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)

	for _, id := range []int64{7, 3, 5} {
		if _, err := svc.Submit(ctx, a.ID, upload("f.txt", "x"), studentPrincipal(id, 10)); err != nil {
			t.Fatalf("submit %d: %v", id, err)
		}
	}

	teacher := &authz.Principal{ID: 1, Role: models.RoleTeacher}
	subs, err := svc.List(ctx, a.ID, teacher)
	if err != nil {
		t.Fatalf("list as teacher: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("listed %d submissions, want 3", len(subs))
	}
	for i, want := range []int64{3, 5, 7} {
		if subs[i].StudentID != want {
			t.Errorf("subs[%d].StudentID = %d, want %d", i, subs[i].StudentID, want)
		}
	}

	admin := &authz.Principal{ID: 99, Role: models.RoleAdmin}
	if _, err := svc.List(ctx, a.ID, admin); err != nil {
		t.Errorf("list as admin: %v", err)
	}
	otherTeacher := &authz.Principal{ID: 2, Role: models.RoleTeacher}
	if _, err := svc.List(ctx, a.ID, otherTeacher); !apperr.IsForbidden(err) {
		t.Errorf("list as other teacher: got %v, want forbidden", err)
	}
	if _, err := svc.List(ctx, a.ID, studentPrincipal(3, 10)); !apperr.IsForbidden(err) {
		t.Errorf("list as student: got %v, want forbidden", err)
	}
}

func TestFileURL(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)

	sub, err := svc.Submit(ctx, a.ID, upload("essay.txt", "body"), studentPrincipal(5, 10))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	teacher := &authz.Principal{ID: 1, Role: models.RoleTeacher}
	loc, ref, err := svc.FileURL(ctx, a.ID, 5, teacher)
	if err != nil {
		t.Fatalf("file url as teacher: %v", err)
	}
	if loc != "/blobs/"+sub.File.Path || ref.Name != "essay.txt" {
		t.Errorf("loc=%q ref=%+v", loc, ref)
	}

	// The submitting student may fetch their own file, nobody else's.
	if _, _, err := svc.FileURL(ctx, a.ID, 5, studentPrincipal(5, 10)); err != nil {
		t.Errorf("own file as student: %v", err)
	}
	if _, _, err := svc.FileURL(ctx, a.ID, 5, studentPrincipal(6, 10)); !apperr.IsForbidden(err) {
		t.Errorf("peer file as student: got %v, want forbidden", err)
	}
	if _, _, err := svc.FileURL(ctx, a.ID, 6, teacher); !apperr.IsNotFound(err) {
		t.Errorf("missing submission: got %v, want not found", err)
	}
}

func TestDeletePurgesFiles(t *testing.T) {
	svc, st, blobs := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)

	for _, id := range []int64{3, 5} {
		if _, err := svc.Submit(ctx, a.ID, upload("f.txt", "x"), studentPrincipal(id, 10)); err != nil {
			t.Fatalf("submit %d: %v", id, err)
		}
	}

	otherTeacher := &authz.Principal{ID: 2, Role: models.RoleTeacher}
	if err := svc.Delete(ctx, a.ID, otherTeacher); !apperr.IsForbidden(err) {
		t.Fatalf("delete as other teacher: got %v, want forbidden", err)
	}

	owner := &authz.Principal{ID: 1, Role: models.RoleTeacher}
	if err := svc.Delete(ctx, a.ID, owner); err != nil {
		t.Fatalf("delete as owner: %v", err)
	}
	if _, err := st.Assignments().GetByID(ctx, a.ID); !apperr.IsNotFound(err) {
		t.Error("assignment record survived deletion")
	}
	if blobs.count() != 0 {
		t.Errorf("stored blobs = %d after purge, want 0", blobs.count())
	}
}

func TestPurgeProceedsPastBlobFailures(t *testing.T) {
	svc, st, blobs := newTestService(t)
	ctx := context.Background()
	a := mustCreateAssignment(t, st, 1, 10)

	if _, err := svc.Submit(ctx, a.ID, upload("f.txt", "x"), studentPrincipal(3, 10)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	blobs.failDel = true
	if err := svc.PurgeOnAssignmentDelete(ctx, a.ID); err != nil {
		t.Fatalf("purge with failing blob delete: %v", err)
	}
	if _, err := st.Assignments().GetByID(ctx, a.ID); !apperr.IsNotFound(err) {
		t.Error("record survived purge despite best-effort file deletion")
	}

	// Purging an already purged assignment is a no-op.
	if err := svc.PurgeOnAssignmentDelete(ctx, a.ID); err != nil {
		t.Errorf("repeat purge: %v", err)
	}
}
