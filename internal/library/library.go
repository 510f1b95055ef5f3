// Package library keeps a user's saved courses in sync with the document
// store. Writes are queued per course and applied last-write-wins.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/store"
)

// writeTimeout bounds a single remote write.
const writeTimeout = 30 * time.Second

// Library is the persistence side of the course list for one signed-in
// user.
type Library struct {
	repo store.CourseRepo
	log  *zap.Logger
	now  func() time.Time

	mu         sync.Mutex
	userID     string
	versions   map[string]uint64
	pending    map[string]queued
	running    map[string]chan struct{}
	tombstones map[string]struct{}
}

// queued is a pending write, bound to the user who made it.
type queued struct {
	userID string
	course Course
}

// New creates a Library over repo.
func New(repo store.CourseRepo, log *zap.Logger) *Library {
	if log == nil {
		log = zap.NewNop()
	}
	return &Library{
		repo:       repo,
		log:        log.With(zap.String("component", "library")),
		now:        time.Now,
		versions:   map[string]uint64{},
		pending:    map[string]queued{},
		running:    map[string]chan struct{}{},
		tombstones: map[string]struct{}{},
	}
}

// Load lists the user's courses, most recently accessed first. Courses
// whose remote delete is still outstanding are left out. Failures are
// logged and yield an empty list.
func (l *Library) Load(ctx context.Context, userID string) []Course {
	l.mu.Lock()
	if l.userID != userID {
		l.versions = map[string]uint64{}
		l.tombstones = map[string]struct{}{}
	}
	l.userID = userID
	l.mu.Unlock()

	l.retryTombstones(ctx)

	docs, err := l.repo.List(ctx, userID)
	if err != nil {
		l.log.Error("load library failed", zap.String("user_id", userID), zap.Error(err))
		return []Course{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	courses := make([]Course, 0, len(docs))
	for _, d := range docs {
		if _, dead := l.tombstones[d.ID]; dead {
			continue
		}
		var c Course
		if err := json.Unmarshal(d.Data, &c); err != nil {
			l.log.Warn("skipping unreadable course", zap.String("course_id", d.ID), zap.Error(err))
			continue
		}
		c.ID = d.ID
		if d.Version > c.Version {
			c.Version = d.Version
		}
		if c.CompletedSubLessons == nil {
			c.CompletedSubLessons = []int{}
		}
		if c.SubLessonFeedback == nil {
			c.SubLessonFeedback = map[int]Feedback{}
		}
		if c.Version > l.versions[c.ID] {
			l.versions[c.ID] = c.Version
		}
		courses = append(courses, c)
	}
	Sort(courses)
	return courses
}

// Save queues an upsert of c and returns c with its new version. A write
// still waiting in the queue for the same course is replaced.
func (l *Library) Save(c Course) Course {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dead := l.tombstones[c.ID]; dead {
		return c
	}
	if l.userID == "" {
		l.log.Warn("save without a signed-in user", zap.String("course_id", c.ID))
		return c
	}

	v := l.versions[c.ID]
	if c.Version > v {
		v = c.Version
	}
	c.Version = v + 1
	l.versions[c.ID] = c.Version
	l.pending[c.ID] = queued{userID: l.userID, course: c}

	if _, ok := l.running[c.ID]; !ok {
		done := make(chan struct{})
		l.running[c.ID] = done
		go l.drain(c.ID, done)
	}
	return c
}

// SyncProgress saves next when it differs from prev in a way worth
// persisting. LastAccessed is bumped on every write.
func (l *Library) SyncProgress(prev, next Course) (Course, bool) {
	if !Changed(prev, next) {
		return next, false
	}
	next.LastAccessed = l.now()
	return l.Save(next), true
}

// Touch bumps LastAccessed and saves c.
func (l *Library) Touch(c Course) Course {
	c.LastAccessed = l.now()
	return l.Save(c)
}

// drain writes the latest pending copy of one course until none is left.
func (l *Library) drain(id string, done chan struct{}) {
	defer close(done)
	for {
		l.mu.Lock()
		q, ok := l.pending[id]
		if !ok {
			delete(l.running, id)
			l.mu.Unlock()
			return
		}
		delete(l.pending, id)
		l.mu.Unlock()

		if err := l.write(q.userID, q.course); err != nil {
			if errors.Is(err, store.ErrStaleVersion) {
				l.log.Debug("skipping stale course write", zap.String("course_id", id), zap.Error(err))
				continue
			}
			l.log.Error("save course failed", zap.String("course_id", id), zap.Uint64("version", q.course.Version), zap.Error(err))
		}
	}
}

func (l *Library) write(userID string, c Course) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode course: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	return l.repo.Upsert(ctx, store.CourseDoc{
		UserID:       userID,
		ID:           c.ID,
		Subject:      c.Subject,
		Data:         data,
		CreatedAt:    c.CreatedAt,
		LastAccessed: c.LastAccessed,
		Version:      c.Version,
	})
}

// Delete removes a course remotely. Queued writes for it are dropped and
// an in-flight write is waited for first. If the remote delete fails the
// id is kept as a tombstone and retried on the next Load or Flush.
func (l *Library) Delete(ctx context.Context, courseID string) error {
	l.mu.Lock()
	l.tombstones[courseID] = struct{}{}
	delete(l.pending, courseID)
	done := l.running[courseID]
	userID := l.userID
	l.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := l.repo.Delete(ctx, userID, courseID); err != nil {
		l.log.Error("delete course failed, will retry", zap.String("course_id", courseID), zap.Error(err))
		return err
	}

	l.mu.Lock()
	delete(l.tombstones, courseID)
	l.mu.Unlock()
	return nil
}

func (l *Library) retryTombstones(ctx context.Context) {
	l.mu.Lock()
	ids := make([]string, 0, len(l.tombstones))
	for id := range l.tombstones {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	for _, id := range ids {
		_ = l.Delete(ctx, id)
	}
}

// Tombstones returns the ids whose remote delete is still outstanding.
func (l *Library) Tombstones() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.tombstones))
	for id := range l.tombstones {
		ids = append(ids, id)
	}
	return ids
}

// Flush waits for queued writes to finish and retries outstanding deletes.
func (l *Library) Flush(ctx context.Context) error {
	for {
		l.mu.Lock()
		var waits []chan struct{}
		for _, done := range l.running {
			waits = append(waits, done)
		}
		l.mu.Unlock()

		if len(waits) == 0 {
			break
		}
		for _, done := range waits {
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	l.retryTombstones(ctx)
	return nil
}

// Reset forgets the current user. Queued writes still complete.
func (l *Library) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.userID = ""
	l.versions = map[string]uint64{}
	l.tombstones = map[string]struct{}{}
}
