package tutor

import (
	"fmt"
	"strings"

	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/llm"
)

// Context is the fixed course context a session is built around.
type Context struct {
	Subject    string
	Pillar     string
	Path       string
	Curriculum *content.Curriculum
}

func buildSystemInstruction(c Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a friendly, expert tutor helping a learner study %q.\n", c.Subject)
	fmt.Fprintf(&b, "Topic area: %s\nCourse: %s\n", c.Pillar, c.Path)

	if cur := c.Curriculum; cur != nil {
		if cur.Introduction != "" {
			fmt.Fprintf(&b, "\nCourse introduction:\n%s\n", cur.Introduction)
		}
		if len(cur.Objectives) > 0 {
			b.WriteString("\nObjectives:\n")
			for _, o := range cur.Objectives {
				fmt.Fprintf(&b, "- %s\n", o)
			}
		}
		if len(cur.SubLessons) > 0 {
			b.WriteString("\nSub-lessons:\n")
			for i, sl := range cur.SubLessons {
				fmt.Fprintf(&b, "%d. %s\n", i+1, sl.Title)
			}
		}
	}

	b.WriteString(`
Answer questions about this course clearly and concisely. Use examples from
the curriculum where they help. If the learner drifts off topic, answer
briefly and steer back to the course. Use markdown for structure.`)

	return b.String()
}

const compressionSystemPrompt = `You are summarizing a tutoring conversation so it can continue with less context. Keep what the learner asked, what was explained, and any misunderstandings that came up.`

func buildCompressionUserMessage(prev string, turns []llm.Message) string {
	var b strings.Builder

	if prev != "" {
		fmt.Fprintf(&b, "Earlier summary:\n%s\n\n", prev)
	}
	b.WriteString("Conversation:\n")
	for _, m := range turns {
		who := "Learner"
		if m.Role == llm.RoleAssistant {
			who = "Tutor"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, m.Content)
	}
	b.WriteString("\nSummarize the conversation in 4-6 sentences, merging in the earlier summary if there is one.")

	return b.String()
}
