// Package screentest provides a recording screen.Controller for screen
// tests.
package screentest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/pathwise/internal/audio"
	"github.com/abhisek/pathwise/internal/auth"
	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/session"
)

// Controller records every call as "Method arg..." and returns canned
// results. It never changes its state on its own.
type Controller struct {
	mu    sync.Mutex
	calls []string

	St       session.AppState
	Audio    audio.Clip
	AudioErr error
	Reply    string
	SignErr  error
}

var _ screen.Controller = (*Controller)(nil)

func (f *Controller) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Calls returns the recorded calls in order.
func (f *Controller) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Controller) State() session.AppState { return f.St }

func (f *Controller) Start(context.Context) error {
	f.record("Start")
	return nil
}

// Subscribe records the call; the fake never publishes.
func (f *Controller) Subscribe(func(session.AppState)) func() {
	f.record("Subscribe")
	return func() {}
}

func (f *Controller) SignIn(context.Context) error {
	f.record("SignIn")
	return f.SignErr
}

func (f *Controller) SignOut(context.Context) error {
	f.record("SignOut")
	return nil
}

func (f *Controller) StartNewCourse() { f.record("StartNewCourse") }

func (f *Controller) SubmitSubject(_ context.Context, subject string) error {
	f.record("SubmitSubject %s", subject)
	return nil
}

func (f *Controller) SelectPillar(_ context.Context, id int) error {
	f.record("SelectPillar %d", id)
	return nil
}

func (f *Controller) SelectPath(_ context.Context, id int) error {
	f.record("SelectPath %d", id)
	return nil
}

func (f *Controller) ResumeCourse(id string) error {
	f.record("ResumeCourse %s", id)
	return nil
}

func (f *Controller) DeleteCourse(_ context.Context, id string) error {
	f.record("DeleteCourse %s", id)
	return nil
}

func (f *Controller) Back()          { f.record("Back") }
func (f *Controller) GoToDashboard() { f.record("GoToDashboard") }

func (f *Controller) ToggleSubLesson(i int) { f.record("ToggleSubLesson %d", i) }

func (f *Controller) SetFeedback(i int, fb library.Feedback) {
	f.record("SetFeedback %d %s", i, fb)
}

func (f *Controller) OverviewAudio(context.Context) (audio.Clip, error) {
	f.record("OverviewAudio")
	return f.Audio, f.AudioErr
}

func (f *Controller) SendChat(_ context.Context, text string) string {
	f.record("SendChat %s", text)
	return f.Reply
}

func (f *Controller) DismissError() { f.record("DismissError") }

// Curriculum returns a curriculum with n sub-lessons.
func Curriculum(n int) *content.Curriculum {
	c := &content.Curriculum{
		PathTitle:         "Wave Mechanics",
		Introduction:      "Waves, particles and the equations that tie them together.",
		Objectives:        []string{"Read the Schrodinger equation", "Solve the particle in a box"},
		KeyConcepts:       []string{"superposition", "wavefunction"},
		RealWorldUseCases: []string{"Semiconductors"},
		CaseStudy:         content.CaseStudy{Title: "Tunnel diodes", Scenario: "Electrons cross a barrier.", Outcome: "Faster switching."},
		Resources:         []string{"Griffiths, Introduction to Quantum Mechanics"},
	}
	for i := range n {
		c.SubLessons = append(c.SubLessons, content.SubLesson{
			Title:             fmt.Sprintf("Part %d", i+1),
			Content:           "Body of part " + fmt.Sprint(i+1),
			VisualDescription: "a glowing wave packet",
			ActionItem:        "Sketch the wave",
		})
	}
	return c
}

// CourseState returns a signed-in state on the curriculum step of a course
// with n sub-lessons.
func CourseState(n int) session.AppState {
	s := session.DefaultState()
	s.User = &auth.User{ID: "u1", Name: "Ada"}
	s.Step = session.StepCurriculum
	s.Subject = "Quantum Physics"
	s.SelectedPillar = &content.Pillar{ID: 1, Title: "Foundations", Icon: content.IconScience}
	s.SelectedPath = &content.Path{ID: 1, Title: "Wave Mechanics", Difficulty: content.Beginner, EstimatedTime: "3 hours"}
	s.Curriculum = Curriculum(n)

	course := library.NewCourse(s.Subject, *s.SelectedPillar, *s.SelectedPath, *s.Curriculum, time.UnixMilli(1700000000000))
	s.Library = []library.Course{course}
	s.ActiveCourseID = course.ID
	return s
}
