package library

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/store"
)

func sqliteRepo(t *testing.T) store.CourseRepo {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "lib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.CourseRepo()
}

func testCourse(id string, accessed time.Time, lessons int) Course {
	cur := content.Curriculum{PathTitle: "Intro to Superposition", Introduction: "intro"}
	for i := 0; i < lessons; i++ {
		cur.SubLessons = append(cur.SubLessons, content.SubLesson{Title: "L"})
	}
	c := NewCourse("Quantum Physics",
		content.Pillar{ID: 1, Title: "Wave Mechanics", Icon: content.IconScience},
		content.Path{ID: 1, Title: "Intro to Superposition", Difficulty: content.Beginner},
		cur, accessed)
	c.ID = id
	return c
}

func TestLoad_SortsAndRoundTrips(t *testing.T) {
	repo := sqliteRepo(t)
	lib := New(repo, nil)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	require.Empty(t, lib.Load(ctx, "u1"))

	older := testCourse("1", base, 3)
	newer := testCourse("2", base.Add(time.Hour), 3)
	newer.CompletedSubLessons = []int{0, 2}
	newer.SubLessonFeedback = map[int]Feedback{1: Helpful}

	lib.Save(older)
	lib.Save(newer)
	require.NoError(t, lib.Flush(ctx))

	got := lib.Load(ctx, "u1")
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, []int{0, 2}, got[0].CompletedSubLessons)
	assert.Equal(t, Helpful, got[0].SubLessonFeedback[1])
	assert.Equal(t, "Wave Mechanics", got[0].Pillar.Title)
	assert.Equal(t, uint64(1), got[0].Version)
}

func TestSave_IncrementsVersion(t *testing.T) {
	lib := New(sqliteRepo(t), nil)
	lib.Load(context.Background(), "u1")

	c := testCourse("1", time.Now(), 2)
	c = lib.Save(c)
	assert.Equal(t, uint64(1), c.Version)
	c = lib.Save(c)
	assert.Equal(t, uint64(2), c.Version)

	// A stale copy still gets a version above everything queued before it.
	stale := testCourse("1", time.Now(), 2)
	stale = lib.Save(stale)
	assert.Equal(t, uint64(3), stale.Version)
}

func TestSave_WithoutUserIsIgnored(t *testing.T) {
	repo := &fakeRepo{}
	lib := New(repo, nil)

	c := lib.Save(testCourse("1", time.Now(), 1))
	require.NoError(t, lib.Flush(context.Background()))
	assert.Equal(t, uint64(0), c.Version)
	assert.Equal(t, 0, repo.upsertCount())
}

func TestSave_LastWriteWins(t *testing.T) {
	repo := &fakeRepo{block: make(chan struct{}), entered: make(chan struct{}, 8)}
	lib := New(repo, nil)
	lib.Load(context.Background(), "u1")

	c := testCourse("1", time.Now(), 5)
	lib.Save(c)
	<-repo.entered // first write in flight, blocked

	for i := 0; i < 4; i++ {
		c.CompletedSubLessons = append(c.CompletedSubLessons, i)
		c = lib.Save(c)
	}
	close(repo.block)
	require.NoError(t, lib.Flush(context.Background()))

	// First write plus only the newest queued one.
	require.Equal(t, 2, repo.upsertCount())
	last := repo.lastUpsert()
	assert.Equal(t, uint64(5), last.Version)

	var saved Course
	require.NoError(t, json.Unmarshal(last.Data, &saved))
	assert.Equal(t, []int{0, 1, 2, 3}, saved.CompletedSubLessons)
}

func TestSave_FailureIsLoggedOnly(t *testing.T) {
	repo := &fakeRepo{upsertErr: errors.New("network down")}
	lib := New(repo, nil)
	lib.Load(context.Background(), "u1")

	c := lib.Save(testCourse("1", time.Now(), 1))
	require.NoError(t, lib.Flush(context.Background()))
	assert.Equal(t, uint64(1), c.Version)
	assert.Equal(t, 1, repo.upsertCount())
}

func TestSyncProgress(t *testing.T) {
	repo := &fakeRepo{}
	lib := New(repo, nil)
	fixed := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	lib.now = func() time.Time { return fixed }
	lib.Load(context.Background(), "u1")

	prev := testCourse("1", fixed.Add(-time.Hour), 3)

	same, wrote := lib.SyncProgress(prev, prev)
	assert.False(t, wrote)
	assert.Equal(t, prev.LastAccessed, same.LastAccessed)

	next := prev
	next.CompletedSubLessons = []int{1}
	saved, wrote := lib.SyncProgress(prev, next)
	assert.True(t, wrote)
	assert.Equal(t, fixed, saved.LastAccessed)
	assert.Equal(t, uint64(1), saved.Version)

	require.NoError(t, lib.Flush(context.Background()))
	assert.Equal(t, 1, repo.upsertCount())
}

func TestChanged(t *testing.T) {
	base := testCourse("1", time.Now(), 3)

	done := base
	done.CompletedSubLessons = []int{0}

	rated := base
	rated.SubLessonFeedback = map[int]Feedback{0: Helpful}

	flipped := rated
	flipped.SubLessonFeedback = map[int]Feedback{0: Unhelpful}

	withAudio := base
	withAudio.Curriculum.AudioData = "AAAA"

	tests := []struct {
		name       string
		prev, next Course
		want       bool
	}{
		{"identical", base, base, false},
		{"completed", base, done, true},
		{"feedback added", base, rated, true},
		{"feedback flipped", rated, flipped, true},
		{"audio populated", base, withAudio, true},
		{"audio unchanged", withAudio, withAudio, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Changed(tt.prev, tt.next))
		})
	}
}

func TestDelete(t *testing.T) {
	repo := sqliteRepo(t)
	lib := New(repo, nil)
	ctx := context.Background()
	lib.Load(ctx, "u1")

	lib.Save(testCourse("1", time.Now(), 1))
	lib.Save(testCourse("2", time.Now(), 1))
	require.NoError(t, lib.Flush(ctx))

	require.NoError(t, lib.Delete(ctx, "1"))
	got := lib.Load(ctx, "u1")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
	assert.Empty(t, lib.Tombstones())
}

func TestDelete_FailureLeavesTombstone(t *testing.T) {
	repo := &fakeRepo{deleteErr: errors.New("offline")}
	lib := New(repo, nil)
	ctx := context.Background()
	lib.Load(ctx, "u1")

	lib.Save(testCourse("1", time.Now(), 1))
	require.NoError(t, lib.Flush(ctx))

	require.Error(t, lib.Delete(ctx, "1"))
	assert.Equal(t, []string{"1"}, lib.Tombstones())

	// Still offline: the course stays hidden.
	assert.Empty(t, lib.Load(ctx, "u1"))

	// Writes to a tombstoned course are dropped.
	before := repo.upsertCount()
	lib.Save(testCourse("1", time.Now(), 1))
	require.NoError(t, lib.Flush(ctx))
	assert.Equal(t, before, repo.upsertCount())

	// Back online: the next flush completes the delete.
	repo.setDeleteErr(nil)
	require.NoError(t, lib.Flush(ctx))
	assert.Empty(t, lib.Tombstones())
	assert.Empty(t, lib.Load(ctx, "u1"))
}

func TestLoad_FailureYieldsEmpty(t *testing.T) {
	lib := New(&fakeRepo{listErr: errors.New("boom")}, nil)
	got := lib.Load(context.Background(), "u1")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListHelpers(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testCourse("a", base, 1)
	b := testCourse("b", base.Add(time.Hour), 1)
	c := testCourse("c", base.Add(2*time.Hour), 1)

	list := []Course{a, c, b}
	Sort(list)
	assert.Equal(t, []string{"c", "b", "a"}, ids(list))

	list = Prepend(list, a)
	assert.Equal(t, []string{"a", "c", "b"}, ids(list))

	list = Remove(list, "c")
	assert.Equal(t, []string{"a", "b"}, ids(list))

	updated := b
	updated.Subject = "Chess"
	list = Replace(list, updated)
	got, ok := Find(list, "b")
	require.True(t, ok)
	assert.Equal(t, "Chess", got.Subject)

	_, ok = Find(list, "zzz")
	assert.False(t, ok)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(0, 0))
	assert.Equal(t, 25, Progress(1, 4))
	assert.Equal(t, 33, Progress(1, 3))
	assert.Equal(t, 67, Progress(2, 3))
	assert.Equal(t, 100, Progress(3, 3))

	c := testCourse("x", time.Now(), 4)
	c.CompletedSubLessons = []int{0, 1}
	assert.Equal(t, 50, c.ProgressPercent())

	assert.Equal(t, 2, NextSubLesson([]int{0, 1, 3}, 4))
	assert.Equal(t, -1, NextSubLesson([]int{0, 1}, 2))
}

func ids(cs []Course) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

// fakeRepo records calls and can block or fail them.
type fakeRepo struct {
	mu        sync.Mutex
	upserts   []store.CourseDoc
	block     chan struct{}
	entered   chan struct{}
	upsertErr error
	deleteErr error
	listErr   error
	deleted   map[string]bool
}

func (f *fakeRepo) List(_ context.Context, userID string) ([]store.CourseDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	latest := map[string]store.CourseDoc{}
	for _, d := range f.upserts {
		if d.UserID == userID && !f.deleted[d.ID] {
			latest[d.ID] = d
		}
	}
	var out []store.CourseDoc
	for _, d := range latest {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRepo) Upsert(_ context.Context, doc store.CourseDoc) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, doc)
	return f.upsertErr
}

func (f *fakeRepo) Delete(_ context.Context, _, courseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if f.deleted == nil {
		f.deleted = map[string]bool{}
	}
	f.deleted[courseID] = true
	return nil
}

func (f *fakeRepo) setDeleteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteErr = err
}

func (f *fakeRepo) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func (f *fakeRepo) lastUpsert() store.CourseDoc {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts[len(f.upserts)-1]
}
