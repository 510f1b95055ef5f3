package content

import (
	"fmt"
	"strings"
)

const curriculumDesignerPrompt = `You are an expert curriculum designer. You break any subject into well-structured, practical learning material for self-directed adult learners. Respond only with JSON matching the requested schema.`

func buildPillarsMessage(subject string) string {
	return fmt.Sprintf(`Subject: %s

Break this subject into exactly %d distinct learning pillars (topic areas).
Together they must cover the subject from fundamentals to advanced practice.
Order them from foundational to advanced. Give each a short title, a one
sentence description, and the closest icon tag from: %s.`, subject, PillarCount, iconTags())
}

func buildPathsMessage(subject, pillar string) string {
	return fmt.Sprintf(`Subject: %s
Pillar: %s

Design exactly %d focused courses (lesson paths) inside this pillar. Mix
Beginner, Intermediate and Advanced difficulty, ordered from easiest to
hardest, and estimate the time each takes.`, subject, pillar, PathCount)
}

func buildCurriculumMessage(subject, pillar, path string) string {
	return fmt.Sprintf(`Subject: %s
Pillar: %s
Course: %s

Write the full curriculum for this course: an introduction, at least %d
learning objectives, key concepts, real world use cases, one case study,
between 4 and 8 sub-lessons and a list of resources. Each sub-lesson needs
substantive content, a worked example, a visual description for an
illustration and one action item.`, subject, pillar, path, MinObjectives)
}

// OverviewScript is the text read aloud for a curriculum's audio overview.
func OverviewScript(c *Curriculum) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome to %s. ", c.PathTitle)
	b.WriteString(c.Introduction)
	if len(c.Objectives) > 0 {
		b.WriteString(" In this course you will: ")
		b.WriteString(strings.Join(c.Objectives, "; "))
		b.WriteString(".")
	}
	return b.String()
}
