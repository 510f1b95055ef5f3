package curriculum

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/imagery"
	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/tutor"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

func (c *CurriculumScreen) lessonView(width, height int) string {
	cw := components.ContentWidth(width)
	lines := c.document(cw)

	visible, offset := layout.Window(lines, c.offset, height)
	c.offset = offset
	body := strings.Join(visible, "\n")
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

// document renders the whole course as lines of at most cw columns and
// records where each sub-lesson heading lands.
func (c *CurriculumScreen) document(cw int) []string {
	cur := c.state.Curriculum
	var lines []string
	add := func(block string) {
		lines = append(lines, strings.Split(block, "\n")...)
	}
	section := func(title string) {
		add("")
		add(theme.Heading.Render(title))
	}
	bullets := func(items []string) {
		for _, it := range items {
			add(layout.Wrap("  • "+it, cw))
		}
	}

	add(theme.Title.Render(cur.PathTitle))
	meta := c.state.Subject
	if c.state.SelectedPillar != nil {
		meta += " · " + c.state.SelectedPillar.Title
	}
	if c.state.SelectedPath != nil {
		meta += " · " + theme.DifficultyColor(string(c.state.SelectedPath.Difficulty)).Render(string(c.state.SelectedPath.Difficulty))
		if c.state.SelectedPath.EstimatedTime != "" {
			meta += " · " + c.state.SelectedPath.EstimatedTime
		}
	}
	add(theme.Subtitle.Render(meta))
	add(components.NewProgressBar("Progress", c.state.Progress(), min(cw, 60)).View())
	add(c.audioLine())

	section("Introduction")
	add(layout.Wrap(theme.Body.Render(cur.Introduction), cw))

	if len(cur.Objectives) > 0 {
		section("Objectives")
		bullets(cur.Objectives)
	}
	if len(cur.KeyConcepts) > 0 {
		section("Key concepts")
		add(layout.Wrap(strings.Join(cur.KeyConcepts, " · "), cw))
	}
	if len(cur.RealWorldUseCases) > 0 {
		section("Real-world use cases")
		bullets(cur.RealWorldUseCases)
	}
	if cur.CaseStudy.Title != "" {
		section("Case study: " + cur.CaseStudy.Title)
		add(layout.Wrap(cur.CaseStudy.Scenario, cw))
		if cur.CaseStudy.Outcome != "" {
			add(layout.Wrap(theme.Hint.Render("Outcome: ")+cur.CaseStudy.Outcome, cw))
		}
	}

	section(fmt.Sprintf("Sub-lessons (%d/%d done)", len(c.state.CompletedSubLessons), len(cur.SubLessons)))
	c.cursorLines = c.cursorLines[:0]
	for i, sl := range cur.SubLessons {
		c.cursorLines = append(c.cursorLines, len(lines))
		add(c.subLessonHeading(i, sl))
		if i == c.expanded {
			add(c.subLessonBody(sl, cw))
		}
	}

	if len(cur.Resources) > 0 {
		section("Resources")
		bullets(cur.Resources)
	}
	return lines
}

func (c *CurriculumScreen) audioLine() string {
	switch {
	case c.audioBusy:
		return c.spin.View()
	case c.audioStatus != "":
		return theme.Hint.Render(c.audioStatus)
	case c.state.Curriculum.HasAudio():
		return theme.Hint.Render("♪ Spoken overview ready. Press a to listen.")
	}
	return theme.Hint.Render("♪ Press a to hear a spoken overview.")
}

func (c *CurriculumScreen) subLessonHeading(i int, sl content.SubLesson) string {
	box := "[ ]"
	if c.state.IsCompleted(i) {
		box = theme.Done.Render("[✓]")
	}

	title := fmt.Sprintf("%d. %s", i+1, sl.Title)
	if i == c.cursor {
		title = theme.Selected.Render("▸ " + title)
	} else {
		title = theme.Unselected.Render("  " + title)
	}

	line := box + " " + title
	switch c.state.SubLessonFeedback[i] {
	case library.Helpful:
		line += "  " + lipgloss.NewStyle().Foreground(theme.Success).Render("▲ helpful")
	case library.Unhelpful:
		line += "  " + lipgloss.NewStyle().Foreground(theme.Error).Render("▼ not helpful")
	}
	return line
}

func (c *CurriculumScreen) subLessonBody(sl content.SubLesson, cw int) string {
	inner := cw - 6
	var parts []string
	para := func(label, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		if label != "" {
			parts = append(parts, theme.Heading.Render(label))
		}
		parts = append(parts, layout.Wrap(text, inner))
	}
	list := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		parts = append(parts, theme.Heading.Render(label))
		for _, it := range items {
			parts = append(parts, layout.Wrap("• "+it, inner))
		}
	}

	para("", sl.Content)
	para("General concepts", sl.GeneralConcepts)
	list("Use cases", sl.UseCases)
	list("Case studies", sl.CaseStudies)
	para("Example", sl.Example)

	parts = append(parts, theme.Heading.Render("Illustration"))
	parts = append(parts, layout.Wrap(theme.Hint.Render(imagery.Placeholder(sl.VisualDescription)), inner))
	if u := c.images.URL(sl.VisualDescription); u != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Secondary).Underline(true).Render(u))
	}

	list("References", sl.References)
	if sl.ActionItem != "" {
		parts = append(parts, theme.Heading.Render("Try this"))
		parts = append(parts, layout.Wrap(lipgloss.NewStyle().Foreground(theme.Accent).Render(sl.ActionItem), inner))
	}

	return lipgloss.NewStyle().PaddingLeft(4).Render(strings.Join(parts, "\n"))
}

func (c *CurriculumScreen) chatView(width, height int) string {
	cw := components.ContentWidth(width)
	c.input.SetWidth(cw)

	head := theme.Title.Render("Tutor") + "  " +
		theme.Subtitle.Render("Ask anything about "+c.Title())
	inputView := c.input.View()

	var lines []string
	for _, m := range c.state.ChatHistory {
		lines = append(lines, strings.Split(renderMessage(m, cw, c.spin), "\n")...)
		lines = append(lines, "")
	}

	avail := height - lipgloss.Height(head) - lipgloss.Height(inputView) - 2
	if avail < 1 {
		avail = 1
	}
	// Newest messages stay in view.
	visible, _ := layout.Window(lines, len(lines), avail)

	body := head + "\n\n" +
		lipgloss.NewStyle().Height(avail).Render(strings.Join(visible, "\n")) + "\n" +
		inputView
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

func renderMessage(m tutor.Message, cw int, spin components.Spinner) string {
	maxW := cw * 3 / 4
	if m.IsThinking {
		spin.Caption = "Thinking..."
		return spin.View()
	}
	if m.Role == tutor.RoleUser {
		bubble := theme.UserBubble.Render(layout.Wrap(m.Text, maxW))
		return lipgloss.PlaceHorizontal(cw, lipgloss.Right, bubble)
	}
	return theme.TutorBubble.Render(layout.Wrap(m.Text, maxW))
}
