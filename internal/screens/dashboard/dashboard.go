// Package dashboard lists the learner's saved courses.
package dashboard

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"

	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/router"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/screens/confirm"
	"github.com/abhisek/pathwise/internal/session"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

// DashboardScreen shows the library, most recently opened first.
type DashboardScreen struct {
	ctrl    screen.Controller
	state   session.AppState
	courses []library.Course
	list    components.List
}

var _ screen.Screen = (*DashboardScreen)(nil)

// New creates the dashboard for state.Library.
func New(ctrl screen.Controller, state session.AppState) *DashboardScreen {
	d := &DashboardScreen{ctrl: ctrl}
	d.setState(state)
	return d
}

func (d *DashboardScreen) setState(state session.AppState) {
	sel := d.list.Selected
	d.state = state
	d.courses = state.Library

	items := make([]components.ListItem, len(d.courses))
	for i, c := range d.courses {
		items[i] = components.ListItem{
			Title:    c.Path.Title,
			Badge:    string(c.Path.Difficulty),
			Subtitle: c.Subject + " · " + c.Pillar.Title,
			Detail:   courseDetail(c),
		}
	}
	d.list = components.NewList(items)
	if sel < len(items) {
		d.list.Selected = sel
	}
}

func courseDetail(c library.Course) string {
	total := len(c.Curriculum.SubLessons)
	done := len(c.CompletedSubLessons)
	s := fmt.Sprintf("%d%% complete · %d of %d sub-lessons", c.ProgressPercent(), done, total)
	if !c.LastAccessed.IsZero() {
		s += " · opened " + humanize.Time(c.LastAccessed)
	}
	return s
}

func (d *DashboardScreen) Init() tea.Cmd { return nil }

func (d *DashboardScreen) Title() string { return "My Courses" }

func (d *DashboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.StateMsg:
		d.setState(msg.State)
		return d, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "n":
			d.ctrl.StartNewCourse()
			return d, nil
		case "enter":
			if i := d.list.Current(); i >= 0 {
				_ = d.ctrl.ResumeCourse(d.courses[i].ID)
			}
			return d, nil
		case "d", "delete":
			return d, d.confirmDelete()
		case "S":
			ctrl := d.ctrl
			return d, screen.Run(func(ctx context.Context) { _ = ctrl.SignOut(ctx) })
		}
		var cmd tea.Cmd
		d.list, cmd = d.list.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d *DashboardScreen) confirmDelete() tea.Cmd {
	i := d.list.Current()
	if i < 0 {
		return nil
	}
	course := d.courses[i]
	ctrl := d.ctrl
	dialog := confirm.New("Delete course",
		fmt.Sprintf("Delete %q? Progress on it will be lost.", course.Path.Title),
		func() tea.Cmd {
			return screen.Run(func(ctx context.Context) { _ = ctrl.DeleteCourse(ctx, course.ID) })
		})
	return func() tea.Msg { return router.PushScreenMsg{Screen: dialog} }
}

func (d *DashboardScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	name := "there"
	if d.state.User != nil && d.state.User.Name != "" {
		name = d.state.User.Name
	}
	head := theme.Title.Render("Welcome back, "+name) + "\n" +
		theme.Subtitle.Render(summary(d.courses))

	if len(d.courses) == 0 {
		empty := head + "\n\n" +
			theme.Body.Render("Your library is empty.") + "\n" +
			theme.Hint.Render("Press n to map your first subject.")
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, empty)
	}

	listHeight := height - lipgloss.Height(head) - 1
	body := head + "\n" + d.list.View(cw, listHeight)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

func summary(courses []library.Course) string {
	finished := 0
	for _, c := range courses {
		if c.ProgressPercent() == 100 {
			finished++
		}
	}
	return fmt.Sprintf("%d courses · %d finished", len(courses), finished)
}

func (d *DashboardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Resume"},
		{Key: "n", Description: "New course"},
		{Key: "d", Description: "Delete"},
		{Key: "S", Description: "Sign out"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
