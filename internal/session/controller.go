package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/pathwise/internal/audio"
	"github.com/abhisek/pathwise/internal/auth"
	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/llm"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/tutor"
)

// ErrUnknownItem is returned when an action names a pillar, path or course
// that is not in the current state.
var ErrUnknownItem = errors.New("no such item")

// loadTimeout bounds the library load that follows a sign-in.
const loadTimeout = 30 * time.Second

// Gateway is the content generation surface the controller needs.
type Gateway interface {
	GeneratePillars(ctx context.Context, subject string) ([]content.Pillar, error)
	GenerateLessonPaths(ctx context.Context, subject, pillarTitle string) ([]content.Path, error)
	GenerateCurriculum(ctx context.Context, subject, pillarTitle, pathTitle string) (*content.Curriculum, error)
	GenerateModuleAudio(ctx context.Context, script string) (string, error)
}

// Deps are the controller's collaborators.
type Deps struct {
	Gateway   Gateway
	Chat      llm.Provider
	Auth      auth.Provider
	Library   *library.Library
	Snapshots store.SnapshotRepo
	Tutor     tutor.Config
	Log       *zap.Logger
}

// Controller owns the single AppState. Actions may be called from any
// goroutine; dispatch is serialized.
type Controller struct {
	deps Deps
	log  *zap.Logger
	now  func() time.Time

	mu      sync.Mutex
	state   AppState
	pending *AppState // restored snapshot waiting for its user to sign in
	subs    map[int]func(AppState)
	nextSub int

	// notifyMu keeps subscriber calls in dispatch order.
	notifyMu sync.Mutex

	tutorMu sync.Mutex
	tutor   *tutor.Session

	audio       singleflight.Group
	unsubscribe func()
}

// NewController creates a controller in the default state. Call Start to
// restore the snapshot and follow the auth provider.
func NewController(deps Deps) *Controller {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		deps:  deps,
		log:   log.With(zap.String("component", "session")),
		now:   time.Now,
		state: DefaultState(),
		subs:  map[int]func(AppState){},
	}
}

// Start restores the last snapshot and subscribes to auth changes. A
// snapshot is only applied once its owner is signed in; providers that
// can resume the owner's session do so here.
func (c *Controller) Start(ctx context.Context) error {
	if c.deps.Snapshots != nil {
		restored, ok, err := LoadSnapshot(ctx, c.deps.Snapshots)
		if err != nil {
			c.log.Warn("ignoring unreadable snapshot", zap.Error(err))
		} else if ok && restored.User != nil {
			c.mu.Lock()
			c.pending = &restored
			c.mu.Unlock()

			if r, ok := c.deps.Auth.(auth.Resumer); ok && r.Resume(restored.User) {
				c.log.Debug("resumed session", zap.String("user_id", restored.User.ID))
			}
		}
	}

	if c.deps.Auth != nil {
		c.unsubscribe = c.deps.Auth.OnAuthStateChanged(c.onAuthChanged)
	}
	return nil
}

// Close stops following auth changes and waits for queued library writes.
func (c *Controller) Close(ctx context.Context) error {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	if c.deps.Library != nil {
		return c.deps.Library.Flush(ctx)
	}
	return nil
}

func (c *Controller) onAuthChanged(u *auth.User) {
	cur := c.State()

	if u == nil {
		if cur.User != nil {
			c.log.Info("signed out", zap.String("user_id", cur.User.ID))
			c.resetTutor()
			if c.deps.Library != nil {
				c.deps.Library.Reset()
			}
			c.dispatch(SignedOut{})
		}
		return
	}
	if cur.User != nil && cur.User.ID == u.ID {
		return
	}

	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.resetTutor()
	if pending != nil && pending.User.ID == u.ID {
		c.dispatch(Restored{State: *pending})
	} else {
		if pending != nil {
			c.log.Info("discarding snapshot of another user")
		}
		c.dispatch(Restored{State: DefaultState()})
	}
	c.dispatch(SignedIn{User: u})

	if c.deps.Library != nil {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		courses := c.deps.Library.Load(ctx, u.ID)
		c.dispatch(LibraryLoaded{Courses: courses})
	}
}

// SignIn asks the auth provider for a user. The transition to the
// dashboard happens through the auth listener.
func (c *Controller) SignIn(ctx context.Context) error {
	if c.deps.Auth == nil {
		return errors.New("no auth provider")
	}
	if _, err := c.deps.Auth.SignIn(ctx); err != nil {
		c.log.Error("sign in failed", zap.Error(err))
		return fmt.Errorf("sign in: %w", err)
	}
	return nil
}

// SignOut ends the session and clears all state.
func (c *Controller) SignOut(ctx context.Context) error {
	if c.deps.Auth == nil {
		c.dispatch(SignedOut{})
		return nil
	}
	if err := c.deps.Auth.SignOut(ctx); err != nil {
		c.log.Error("sign out failed", zap.Error(err))
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// StartNewCourse opens the subject input.
func (c *Controller) StartNewCourse() {
	c.dispatch(NewCourseStarted{})
}

// SubmitSubject generates the pillars of subject.
func (c *Controller) SubmitSubject(ctx context.Context, subject string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil
	}

	c.dispatch(LoadingStarted{})
	pillars, err := c.deps.Gateway.GeneratePillars(ctx, subject)
	if err != nil {
		return c.failed("pillars", err)
	}
	c.dispatch(PillarsGenerated{Subject: subject, Pillars: pillars})
	return nil
}

// SelectPillar generates the lesson paths of one of the current pillars.
func (c *Controller) SelectPillar(ctx context.Context, pillarID int) error {
	s := c.State()
	var pillar *content.Pillar
	for i := range s.Pillars {
		if s.Pillars[i].ID == pillarID {
			pillar = &s.Pillars[i]
			break
		}
	}
	if pillar == nil {
		return fmt.Errorf("pillar %d: %w", pillarID, ErrUnknownItem)
	}

	c.dispatch(LoadingStarted{})
	paths, err := c.deps.Gateway.GenerateLessonPaths(ctx, s.Subject, pillar.Title)
	if err != nil {
		return c.failed("paths", err)
	}
	c.dispatch(PathsGenerated{Pillar: *pillar, Paths: paths})
	return nil
}

// SelectPath generates the curriculum, saves it as a new course and opens
// it with a fresh tutor.
func (c *Controller) SelectPath(ctx context.Context, pathID int) error {
	s := c.State()
	if s.SelectedPillar == nil {
		return fmt.Errorf("no pillar selected: %w", ErrUnknownItem)
	}
	var path *content.Path
	for i := range s.Paths {
		if s.Paths[i].ID == pathID {
			path = &s.Paths[i]
			break
		}
	}
	if path == nil {
		return fmt.Errorf("path %d: %w", pathID, ErrUnknownItem)
	}
	pillar := *s.SelectedPillar

	c.dispatch(LoadingStarted{})
	cur, err := c.deps.Gateway.GenerateCurriculum(ctx, s.Subject, pillar.Title, path.Title)
	if err != nil {
		return c.failed("curriculum", err)
	}

	course := library.NewCourse(s.Subject, pillar, *path, *cur, c.now())
	c.newTutor(course, nil)
	c.dispatch(CourseCreated{Course: course, Welcome: tutor.WelcomeMessage(path.Title)})

	if c.deps.Library != nil {
		saved := c.deps.Library.Save(course)
		c.dispatch(CourseSaved{Course: saved})
	}
	return nil
}

// ResumeCourse opens a saved course with its stored progress.
func (c *Controller) ResumeCourse(courseID string) error {
	s := c.State()
	course, ok := library.Find(s.Library, courseID)
	if !ok {
		return fmt.Errorf("course %s: %w", courseID, ErrUnknownItem)
	}

	// Earlier turns only carry over when reopening the course already on
	// screen; the transcript belongs to that course.
	var prior []tutor.Message
	if s.ActiveCourseID == courseID {
		prior = s.ChatHistory
	}
	c.newTutor(course, prior)

	if c.deps.Library != nil {
		course = c.deps.Library.Touch(course)
	} else {
		course.LastAccessed = c.now()
	}
	c.dispatch(CourseResumed{Course: course, Greeting: tutor.WelcomeBackMessage(course.Path.Title)})
	return nil
}

// Back steps back one level, dropping what was generated there.
func (c *Controller) Back() {
	c.dispatch(WentBack{})
}

// GoToDashboard leaves the current step for the dashboard.
func (c *Controller) GoToDashboard() {
	c.dispatch(WentToDashboard{})
}

// ToggleSubLesson flips the completion of sub-lesson i.
func (c *Controller) ToggleSubLesson(i int) {
	c.dispatchProgress(SubLessonToggled{Index: i})
}

// SetFeedback rates sub-lesson i, replacing any earlier rating.
func (c *Controller) SetFeedback(i int, f library.Feedback) {
	c.dispatchProgress(FeedbackSet{Index: i, Feedback: f})
}

// OverviewAudio returns the spoken overview of the current curriculum,
// generating it on first use. Concurrent callers share one synthesis.
func (c *Controller) OverviewAudio(ctx context.Context) (audio.Clip, error) {
	s := c.State()
	if s.Curriculum == nil {
		return audio.Clip{}, errors.New("no curriculum open")
	}
	if s.Curriculum.HasAudio() {
		return audio.DecodeClip(s.Curriculum.AudioData, audio.DefaultFormat())
	}

	courseID := s.ActiveCourseID
	script := content.OverviewScript(s.Curriculum)
	v, err, _ := c.audio.Do(courseID, func() (any, error) {
		return c.deps.Gateway.GenerateModuleAudio(ctx, script)
	})
	if err != nil {
		c.log.Error("audio generation failed", zap.String("course_id", courseID), zap.Error(err))
		c.dispatch(GenerationFailed{Message: userMessage(err)})
		return audio.Clip{}, err
	}

	data := v.(string)
	c.dispatchProgress(AudioGenerated{CourseID: courseID, AudioData: data})
	return audio.DecodeClip(data, audio.DefaultFormat())
}

// SendChat sends text to the tutor and returns the reply. The chat shows
// a thinking placeholder until the reply arrives.
func (c *Controller) SendChat(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	sess := c.currentTutor()
	thinking := tutor.ThinkingMessage()
	c.dispatch(ChatSent{Message: tutor.NewUserMessage(text), Thinking: thinking})

	reply := tutor.Fallback
	if sess != nil {
		reply = sess.Send(ctx, text)
	} else {
		c.log.Warn("chat without an open course")
	}
	c.dispatch(ChatReplied{ThinkingID: thinking.ID, Reply: tutor.NewModelMessage(reply)})
	return reply
}

// DeleteCourse removes a course from the library at once and deletes it
// remotely. A failed remote delete is retried on the next library sync.
func (c *Controller) DeleteCourse(ctx context.Context, courseID string) error {
	c.dispatch(CourseDeleted{ID: courseID})
	if c.deps.Library == nil {
		return nil
	}
	if err := c.deps.Library.Delete(ctx, courseID); err != nil {
		c.log.Warn("remote delete pending", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

// DismissError clears the error and notice banners.
func (c *Controller) DismissError() {
	c.dispatch(ErrorDismissed{})
}

// State returns the current state.
func (c *Controller) State() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe calls fn with every new state. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(AppState)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// dispatch applies ev, writes the snapshot and notifies subscribers. It
// returns the states before and after.
func (c *Controller) dispatch(ev Event) (AppState, AppState) {
	return c.commit(ev, false)
}

// dispatchProgress is dispatch for events that may change the active
// course. The library write is queued while c.mu is held, so saves of
// concurrent edits reach the library in the order they were applied.
func (c *Controller) dispatchProgress(ev Event) {
	c.commit(ev, true)
}

func (c *Controller) commit(ev Event, persist bool) (AppState, AppState) {
	c.mu.Lock()
	prev := c.state
	next := Reduce(prev, ev)
	if persist {
		next = c.syncProgress(prev, next)
	}

	if c.deps.Snapshots != nil {
		if err := saveSnapshot(context.Background(), c.deps.Snapshots, next); err != nil {
			c.log.Error("snapshot write failed", zap.Error(err))
			next = Reduce(next, NoticeRaised{Text: StorageNotice})
		}
	}
	c.state = next

	subs := make([]func(AppState), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.notifyMu.Lock()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	c.notifyMu.Unlock()
	return prev, next
}

// syncProgress persists the active course when progress changed and
// returns next with the saved version applied. Callers hold c.mu.
func (c *Controller) syncProgress(prev, next AppState) AppState {
	if c.deps.Library == nil {
		return next
	}
	before, ok := prev.ActiveCourse()
	if !ok {
		return next
	}
	after, ok := next.ActiveCourse()
	if !ok || after.ID != before.ID {
		return next
	}
	if saved, wrote := c.deps.Library.SyncProgress(before, after); wrote {
		return Reduce(next, CourseSaved{Course: saved})
	}
	return next
}

func (c *Controller) failed(op string, err error) error {
	c.log.Error("generation failed", zap.String("op", op), zap.Error(err))
	c.dispatch(GenerationFailed{Message: userMessage(err)})
	return err
}

func userMessage(err error) string {
	var ge *content.GenerationError
	if errors.As(err, &ge) {
		return ge.Message
	}
	return "Something went wrong. Please try again."
}

func (c *Controller) newTutor(course library.Course, prior []tutor.Message) {
	if c.deps.Chat == nil {
		c.resetTutor()
		return
	}
	cur := course.Curriculum
	sess := tutor.NewSession(c.deps.Chat, tutor.Context{
		Subject:    course.Subject,
		Pillar:     course.Pillar.Title,
		Path:       course.Path.Title,
		Curriculum: &cur,
	}, prior, c.deps.Tutor, c.log)

	c.tutorMu.Lock()
	c.tutor = sess
	c.tutorMu.Unlock()
}

// currentTutor returns the open tutor session, building one for a course
// restored from the snapshot.
func (c *Controller) currentTutor() *tutor.Session {
	c.tutorMu.Lock()
	sess := c.tutor
	c.tutorMu.Unlock()
	if sess != nil {
		return sess
	}

	s := c.State()
	if s.Curriculum == nil || c.deps.Chat == nil {
		return nil
	}
	course, ok := s.ActiveCourse()
	if !ok {
		course = library.Course{Subject: s.Subject, Curriculum: *s.Curriculum}
		if s.SelectedPillar != nil {
			course.Pillar = *s.SelectedPillar
		}
		if s.SelectedPath != nil {
			course.Path = *s.SelectedPath
		}
	}
	c.newTutor(course, s.ChatHistory)

	c.tutorMu.Lock()
	defer c.tutorMu.Unlock()
	return c.tutor
}

func (c *Controller) resetTutor() {
	c.tutorMu.Lock()
	c.tutor = nil
	c.tutorMu.Unlock()
}
