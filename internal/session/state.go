// Package session owns the learner's single application state. Every
// change goes through Reduce; the Controller sequences the side effects
// around it.
package session

import (
	"maps"
	"slices"

	"github.com/abhisek/pathwise/internal/auth"
	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/tutor"
)

// Step is the screen the learner is on.
type Step string

const (
	StepAuth       Step = "AUTH"
	StepDashboard  Step = "DASHBOARD"
	StepInput      Step = "INPUT"
	StepPillars    Step = "PILLARS"
	StepPaths      Step = "PATHS"
	StepCurriculum Step = "CURRICULUM"
)

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	switch s {
	case StepAuth, StepDashboard, StepInput, StepPillars, StepPaths, StepCurriculum:
		return true
	}
	return false
}

// StorageNotice is shown when the local snapshot cannot be written.
const StorageNotice = "Local storage is full or unavailable; progress may not survive a restart."

// AppState is the whole client state. Values are treated as immutable:
// Reduce always builds new slices and maps instead of editing old ones.
type AppState struct {
	Step    Step             `json:"step"`
	User    *auth.User       `json:"user"`
	Library []library.Course `json:"library"`

	ActiveCourseID      string                   `json:"activeCourseId"`
	Subject             string                   `json:"subject"`
	SelectedPillar      *content.Pillar          `json:"selectedPillar"`
	SelectedPath        *content.Path            `json:"selectedPath"`
	Curriculum          *content.Curriculum      `json:"curriculum"`
	CompletedSubLessons []int                    `json:"completedSubLessons"`
	SubLessonFeedback   map[int]library.Feedback `json:"subLessonFeedback"`
	Pillars             []content.Pillar         `json:"pillars"`
	Paths               []content.Path           `json:"paths"`
	ChatHistory         []tutor.Message          `json:"chatHistory"`

	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error"`

	// Notice is a non-blocking banner. It is never persisted.
	Notice string `json:"notice,omitempty"`
}

// DefaultState is the signed-out starting state.
func DefaultState() AppState {
	return AppState{
		Step:                StepAuth,
		Library:             []library.Course{},
		CompletedSubLessons: []int{},
		SubLessonFeedback:   map[int]library.Feedback{},
		Pillars:             []content.Pillar{},
		Paths:               []content.Path{},
		ChatHistory:         []tutor.Message{},
	}
}

// Sanitize returns the persistable form of s: no thinking placeholders,
// not loading, no error or notice.
func Sanitize(s AppState) AppState {
	s.ChatHistory = tutor.WithoutThinking(s.ChatHistory)
	s.IsLoading = false
	s.Error = ""
	s.Notice = ""
	return normalize(s)
}

// normalize fills nil collections and drops progress entries that do not
// point at a sub-lesson of the current curriculum.
func normalize(s AppState) AppState {
	if !s.Step.Valid() {
		s.Step = StepAuth
	}
	if s.User == nil {
		s.Step = StepAuth
	}
	if s.Library == nil {
		s.Library = []library.Course{}
	}
	if s.Pillars == nil {
		s.Pillars = []content.Pillar{}
	}
	if s.Paths == nil {
		s.Paths = []content.Path{}
	}
	if s.ChatHistory == nil {
		s.ChatHistory = []tutor.Message{}
	}

	n := s.subLessonCount()
	completed := make([]int, 0, len(s.CompletedSubLessons))
	for _, i := range s.CompletedSubLessons {
		if i >= 0 && i < n && !slices.Contains(completed, i) {
			completed = append(completed, i)
		}
	}
	slices.Sort(completed)
	s.CompletedSubLessons = completed

	feedback := make(map[int]library.Feedback, len(s.SubLessonFeedback))
	for i, f := range s.SubLessonFeedback {
		if i >= 0 && i < n && f.Valid() {
			feedback[i] = f
		}
	}
	s.SubLessonFeedback = feedback

	if s.Step == StepCurriculum && s.Curriculum == nil {
		s.Step = StepDashboard
	}
	return s
}

func (s AppState) subLessonCount() int {
	if s.Curriculum == nil {
		return 0
	}
	return len(s.Curriculum.SubLessons)
}

// ActiveCourse returns the library entry being studied, if any.
func (s AppState) ActiveCourse() (library.Course, bool) {
	if s.ActiveCourseID == "" {
		return library.Course{}, false
	}
	return library.Find(s.Library, s.ActiveCourseID)
}

// Progress is the rounded completion percentage of the current curriculum.
func (s AppState) Progress() int {
	return library.Progress(len(s.CompletedSubLessons), s.subLessonCount())
}

// IsCompleted reports whether sub-lesson i is marked complete.
func (s AppState) IsCompleted(i int) bool {
	return slices.Contains(s.CompletedSubLessons, i)
}

// Thinking reports whether a tutor reply is pending.
func (s AppState) Thinking() bool {
	for _, m := range s.ChatHistory {
		if m.IsThinking {
			return true
		}
	}
	return false
}

func cloneFeedback(m map[int]library.Feedback) map[int]library.Feedback {
	if m == nil {
		return map[int]library.Feedback{}
	}
	return maps.Clone(m)
}

func cloneInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return slices.Clone(s)
}
