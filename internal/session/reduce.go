package session

import (
	"slices"

	"github.com/abhisek/pathwise/internal/auth"
	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/tutor"
)

// Event is a state transition request handled by Reduce.
type Event interface {
	event()
}

type (
	// Restored replaces the whole state, e.g. with a saved snapshot.
	Restored struct{ State AppState }

	// SignedIn records the authenticated user and leaves AUTH.
	SignedIn struct{ User *auth.User }

	// SignedOut resets everything.
	SignedOut struct{}

	// LibraryLoaded replaces the course list.
	LibraryLoaded struct{ Courses []library.Course }

	// NewCourseStarted opens the subject input.
	NewCourseStarted struct{}

	// LoadingStarted marks a generation call in flight.
	LoadingStarted struct{}

	// GenerationFailed stores the user-facing message and stays put.
	GenerationFailed struct{ Message string }

	PillarsGenerated struct {
		Subject string
		Pillars []content.Pillar
	}

	PathsGenerated struct {
		Pillar content.Pillar
		Paths  []content.Path
	}

	// CourseCreated enters a freshly generated curriculum.
	CourseCreated struct {
		Course  library.Course
		Welcome tutor.Message
	}

	// CourseResumed enters a saved course exactly as stored.
	CourseResumed struct {
		Course   library.Course
		Greeting tutor.Message
	}

	// CourseSaved replaces a library entry after a persisted write.
	CourseSaved struct{ Course library.Course }

	// CourseDeleted drops a course from the library.
	CourseDeleted struct{ ID string }

	WentBack        struct{}
	WentToDashboard struct{}

	SubLessonToggled struct{ Index int }

	FeedbackSet struct {
		Index    int
		Feedback library.Feedback
	}

	// AudioGenerated stores the spoken overview of a course.
	AudioGenerated struct {
		CourseID  string
		AudioData string
	}

	// ChatSent appends the learner's message and a thinking placeholder.
	ChatSent struct {
		Message  tutor.Message
		Thinking tutor.Message
	}

	// ChatReplied swaps the placeholder for the tutor's reply.
	ChatReplied struct {
		ThinkingID string
		Reply      tutor.Message
	}

	ErrorDismissed struct{}

	NoticeRaised struct{ Text string }
)

func (Restored) event()         {}
func (SignedIn) event()         {}
func (SignedOut) event()        {}
func (LibraryLoaded) event()    {}
func (NewCourseStarted) event() {}
func (LoadingStarted) event()   {}
func (GenerationFailed) event() {}
func (PillarsGenerated) event() {}
func (PathsGenerated) event()   {}
func (CourseCreated) event()    {}
func (CourseResumed) event()    {}
func (CourseSaved) event()      {}
func (CourseDeleted) event()    {}
func (WentBack) event()         {}
func (WentToDashboard) event()  {}
func (SubLessonToggled) event() {}
func (FeedbackSet) event()      {}
func (AudioGenerated) event()   {}
func (ChatSent) event()         {}
func (ChatReplied) event()      {}
func (ErrorDismissed) event()   {}
func (NoticeRaised) event()     {}

// Reduce returns the state after ev. It never mutates s.
func Reduce(s AppState, ev Event) AppState {
	switch ev := ev.(type) {
	case Restored:
		return normalize(ev.State)

	case SignedIn:
		if ev.User == nil {
			return s
		}
		u := *ev.User
		s.User = &u
		s.IsLoading = false
		if s.Step == StepAuth {
			s.Step = StepDashboard
		}
		return s

	case SignedOut:
		return DefaultState()

	case LibraryLoaded:
		courses := slices.Clone(ev.Courses)
		if courses == nil {
			courses = []library.Course{}
		}
		library.Sort(courses)
		s.Library = courses
		return s

	case NewCourseStarted:
		if s.Step == StepAuth {
			return s
		}
		s = clearActive(s)
		s.Subject = ""
		s.Pillars = []content.Pillar{}
		s.Paths = []content.Path{}
		s.SelectedPillar = nil
		s.SelectedPath = nil
		s.Error = ""
		s.Step = StepInput
		return s

	case LoadingStarted:
		s.IsLoading = true
		s.Error = ""
		return s

	case GenerationFailed:
		s.IsLoading = false
		s.Error = ev.Message
		return s

	case PillarsGenerated:
		s.IsLoading = false
		s.Subject = ev.Subject
		s.Pillars = slices.Clone(ev.Pillars)
		s.SelectedPillar = nil
		s.Paths = []content.Path{}
		s.SelectedPath = nil
		s.Step = StepPillars
		return s

	case PathsGenerated:
		p := ev.Pillar
		s.IsLoading = false
		s.SelectedPillar = &p
		s.Paths = slices.Clone(ev.Paths)
		s.SelectedPath = nil
		s.Step = StepPaths
		return s

	case CourseCreated:
		c := ev.Course
		s = enterCourse(s, c)
		s.CompletedSubLessons = []int{}
		s.SubLessonFeedback = map[int]library.Feedback{}
		s.ChatHistory = []tutor.Message{ev.Welcome}
		s.Library = library.Prepend(s.Library, c)
		return s

	case CourseResumed:
		c := ev.Course
		s = enterCourse(s, c)
		s.CompletedSubLessons = cloneInts(c.CompletedSubLessons)
		s.SubLessonFeedback = cloneFeedback(c.SubLessonFeedback)
		s.ChatHistory = []tutor.Message{ev.Greeting}
		s.Pillars = []content.Pillar{}
		s.Paths = []content.Path{}
		s.Library = replaceSorted(s.Library, c)
		return s

	case CourseSaved:
		// Only the write metadata is taken; progress in the library entry
		// may already be newer than the copy that was saved.
		cur, ok := library.Find(s.Library, ev.Course.ID)
		if !ok || ev.Course.Version < cur.Version {
			return s
		}
		cur.Version = ev.Course.Version
		cur.LastAccessed = ev.Course.LastAccessed
		s.Library = replaceSorted(s.Library, cur)
		return s

	case CourseDeleted:
		s.Library = library.Remove(s.Library, ev.ID)
		if s.ActiveCourseID == ev.ID {
			s = clearActive(s)
			if s.Step == StepCurriculum {
				s.Step = StepDashboard
			}
		}
		return s

	case WentBack:
		s.Error = ""
		s.IsLoading = false
		switch s.Step {
		case StepPaths:
			s.SelectedPillar = nil
			s.Paths = []content.Path{}
			s.Step = StepPillars
		case StepPillars:
			s.Pillars = []content.Pillar{}
			s.Step = StepInput
		case StepInput:
			s.Step = StepDashboard
		}
		return s

	case WentToDashboard:
		if s.Step == StepAuth {
			return s
		}
		s.Error = ""
		s.IsLoading = false
		s.Step = StepDashboard
		return s

	case SubLessonToggled:
		if ev.Index < 0 || ev.Index >= s.subLessonCount() {
			return s
		}
		var next []int
		if s.IsCompleted(ev.Index) {
			next = slices.DeleteFunc(cloneInts(s.CompletedSubLessons), func(i int) bool { return i == ev.Index })
		} else {
			next = append(cloneInts(s.CompletedSubLessons), ev.Index)
			slices.Sort(next)
		}
		s.CompletedSubLessons = next
		return syncActive(s)

	case FeedbackSet:
		if ev.Index < 0 || ev.Index >= s.subLessonCount() || !ev.Feedback.Valid() {
			return s
		}
		fb := cloneFeedback(s.SubLessonFeedback)
		fb[ev.Index] = ev.Feedback
		s.SubLessonFeedback = fb
		return syncActive(s)

	case AudioGenerated:
		if ev.AudioData == "" {
			return s
		}
		if s.ActiveCourseID == ev.CourseID && s.Curriculum != nil && !s.Curriculum.HasAudio() {
			cur := *s.Curriculum
			cur.AudioData = ev.AudioData
			s.Curriculum = &cur
		}
		if c, ok := library.Find(s.Library, ev.CourseID); ok && !c.Curriculum.HasAudio() {
			c.Curriculum.AudioData = ev.AudioData
			s.Library = library.Replace(s.Library, c)
		}
		return s

	case ChatSent:
		chat := slices.Clone(s.ChatHistory)
		s.ChatHistory = append(chat, ev.Message, ev.Thinking)
		return s

	case ChatReplied:
		chat := make([]tutor.Message, 0, len(s.ChatHistory)+1)
		for _, m := range s.ChatHistory {
			if m.ID != ev.ThinkingID {
				chat = append(chat, m)
			}
		}
		s.ChatHistory = append(chat, ev.Reply)
		return s

	case ErrorDismissed:
		s.Error = ""
		s.Notice = ""
		return s

	case NoticeRaised:
		s.Notice = ev.Text
		return s
	}
	return s
}

// enterCourse points the active session fields at c and opens it.
func enterCourse(s AppState, c library.Course) AppState {
	pillar, path, cur := c.Pillar, c.Path, c.Curriculum
	s.ActiveCourseID = c.ID
	s.Subject = c.Subject
	s.SelectedPillar = &pillar
	s.SelectedPath = &path
	s.Curriculum = &cur
	s.IsLoading = false
	s.Error = ""
	s.Step = StepCurriculum
	return s
}

func clearActive(s AppState) AppState {
	s.ActiveCourseID = ""
	s.Curriculum = nil
	s.CompletedSubLessons = []int{}
	s.SubLessonFeedback = map[int]library.Feedback{}
	s.ChatHistory = []tutor.Message{}
	return s
}

// syncActive copies the active session's progress into its library entry.
func syncActive(s AppState) AppState {
	c, ok := s.ActiveCourse()
	if !ok {
		return s
	}
	c.CompletedSubLessons = cloneInts(s.CompletedSubLessons)
	c.SubLessonFeedback = cloneFeedback(s.SubLessonFeedback)
	s.Library = library.Replace(s.Library, c)
	return s
}

func replaceSorted(courses []library.Course, c library.Course) []library.Course {
	out := library.Replace(courses, c)
	library.Sort(out)
	return out
}
