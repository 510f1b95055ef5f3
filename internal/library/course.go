package library

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/abhisek/pathwise/internal/content"
)

// Feedback is the learner's rating of a sub-lesson.
type Feedback string

const (
	Helpful   Feedback = "helpful"
	Unhelpful Feedback = "unhelpful"
)

// Valid reports whether f is one of the two ratings.
func (f Feedback) Valid() bool {
	return f == Helpful || f == Unhelpful
}

// Course is a saved course: the generated curriculum plus the learner's
// progress on it.
type Course struct {
	ID                  string             `json:"id"`
	Subject             string             `json:"subject"`
	Pillar              content.Pillar     `json:"pillar"`
	Path                content.Path       `json:"path"`
	Curriculum          content.Curriculum `json:"curriculum"`
	CompletedSubLessons []int              `json:"completedSubLessons"`
	SubLessonFeedback   map[int]Feedback   `json:"subLessonFeedback"`
	CreatedAt           time.Time          `json:"createdAt"`
	LastAccessed        time.Time          `json:"lastAccessed"`
	Version             uint64             `json:"version"`
}

// NewCourse builds a fresh course for a generated curriculum. The id is the
// creation time in milliseconds.
func NewCourse(subject string, pillar content.Pillar, path content.Path, cur content.Curriculum, now time.Time) Course {
	return Course{
		ID:                  strconv.FormatInt(now.UnixMilli(), 10),
		Subject:             subject,
		Pillar:              pillar,
		Path:                path,
		Curriculum:          cur,
		CompletedSubLessons: []int{},
		SubLessonFeedback:   map[int]Feedback{},
		CreatedAt:           now,
		LastAccessed:        now,
	}
}

// Progress returns the rounded completion percentage.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// ProgressPercent returns the course's rounded completion percentage.
func (c Course) ProgressPercent() int {
	return Progress(len(c.CompletedSubLessons), len(c.Curriculum.SubLessons))
}

// NextSubLesson returns the first index not in completed, or -1 when every
// sub-lesson is done.
func NextSubLesson(completed []int, total int) int {
	for i := 0; i < total; i++ {
		if !slices.Contains(completed, i) {
			return i
		}
	}
	return -1
}

// Sort orders courses by LastAccessed, most recent first.
func Sort(courses []Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].LastAccessed.After(courses[j].LastAccessed)
	})
}

// Find returns the course with id, if present.
func Find(courses []Course, id string) (Course, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

// Prepend returns a new list with c first and any older copy of c removed.
func Prepend(courses []Course, c Course) []Course {
	out := make([]Course, 0, len(courses)+1)
	out = append(out, c)
	for _, existing := range courses {
		if existing.ID != c.ID {
			out = append(out, existing)
		}
	}
	return out
}

// Remove returns a new list without the course id.
func Remove(courses []Course, id string) []Course {
	out := make([]Course, 0, len(courses))
	for _, c := range courses {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// Replace returns a new list with the course sharing c's id swapped for c.
// The list is unchanged if no such course exists.
func Replace(courses []Course, c Course) []Course {
	out := make([]Course, len(courses))
	for i, existing := range courses {
		if existing.ID == c.ID {
			out[i] = c
		} else {
			out[i] = existing
		}
	}
	return out
}

// Changed is the shallow progress detector: completion count, feedback
// count or a changed rating, or audio that just appeared.
func Changed(prev, next Course) bool {
	if len(prev.CompletedSubLessons) != len(next.CompletedSubLessons) ||
		len(prev.SubLessonFeedback) != len(next.SubLessonFeedback) {
		return true
	}
	for i, f := range next.SubLessonFeedback {
		if prev.SubLessonFeedback[i] != f {
			return true
		}
	}
	return !prev.Curriculum.HasAudio() && next.Curriculum.HasAudio()
}
