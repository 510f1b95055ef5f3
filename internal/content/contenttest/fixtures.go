// Package contenttest provides canned model responses for tests that drive
// content generation through llm.MockProvider.
package contenttest

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/pathwise/internal/llm"
)

var icons = []string{"science", "math", "technology", "philosophy", "history", "unknown-tag", ""}

// PillarsJSON returns a pillars response with n entries. The first title
// is first; the rest are numbered.
func PillarsJSON(n int, first string) json.RawMessage {
	type pillar struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	}
	out := struct {
		Pillars []pillar `json:"pillars"`
	}{}
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("Pillar %d", i+1)
		if i == 0 && first != "" {
			title = first
		}
		out.Pillars = append(out.Pillars, pillar{
			Title:       title,
			Description: "Covers " + title,
			Icon:        icons[i%len(icons)],
		})
	}
	b, _ := json.Marshal(out)
	return b
}

// PathsJSON returns a paths response with n entries whose first title is
// first, cycling through the three difficulties.
func PathsJSON(n int, first string) json.RawMessage {
	levels := []string{"Beginner", "intermediate", "Advanced"}
	type path struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		Difficulty    string `json:"difficulty"`
		EstimatedTime string `json:"estimatedTime"`
	}
	out := struct {
		Paths []path `json:"paths"`
	}{}
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("Path %d", i+1)
		if i == 0 && first != "" {
			title = first
		}
		out.Paths = append(out.Paths, path{
			Title:         title,
			Description:   "Learn " + title,
			Difficulty:    levels[i%len(levels)],
			EstimatedTime: "2 hours",
		})
	}
	b, _ := json.Marshal(out)
	return b
}

// CurriculumJSON returns a curriculum response titled pathTitle with the
// given number of sub-lessons and objectives.
func CurriculumJSON(pathTitle string, subLessons, objectives int) json.RawMessage {
	type subLesson struct {
		Title             string   `json:"title"`
		Content           string   `json:"content"`
		GeneralConcepts   string   `json:"generalConcepts"`
		UseCases          []string `json:"useCases"`
		CaseStudies       []string `json:"caseStudies"`
		References        []string `json:"references"`
		Example           string   `json:"example"`
		VisualDescription string   `json:"visualDescription"`
		ActionItem        string   `json:"actionItem"`
	}
	c := map[string]any{
		"pathTitle":         pathTitle,
		"introduction":      "An introduction to " + pathTitle + ".",
		"keyConcepts":       []string{"state", "measurement"},
		"realWorldUseCases": []string{"quantum computing"},
		"caseStudy": map[string]string{
			"title":    "The double slit",
			"scenario": "Electrons fired at two slits.",
			"outcome":  "An interference pattern appears.",
		},
		"resources": []string{"Feynman Lectures, Vol. III"},
	}
	objs := make([]string, objectives)
	for i := range objs {
		objs[i] = fmt.Sprintf("Objective %d", i+1)
	}
	c["objectives"] = objs

	lessons := make([]subLesson, subLessons)
	for i := range lessons {
		lessons[i] = subLesson{
			Title:             fmt.Sprintf("Lesson %d", i+1),
			Content:           fmt.Sprintf("Body of lesson %d.", i+1),
			GeneralConcepts:   "Concepts",
			UseCases:          []string{"use"},
			CaseStudies:       []string{"case"},
			References:        []string{"ref"},
			Example:           "Example",
			VisualDescription: "A glowing wave function",
			ActionItem:        "Try it",
		}
	}
	c["subLessons"] = lessons

	b, _ := json.Marshal(c)
	return b
}

// FencedJSON wraps raw in a markdown code fence, as some models do.
func FencedJSON(raw json.RawMessage) json.RawMessage {
	return json.RawMessage("```json\n" + string(raw) + "\n```")
}

// QuantumPhysics returns a mock provider primed for the end-to-end
// "Quantum Physics" scenario: pillars, paths, then a curriculum.
func QuantumPhysics(subLessons int) *llm.MockProvider {
	return llm.NewMockProvider(
		llm.MockResponse{Content: PillarsJSON(30, "Wave Mechanics")},
		llm.MockResponse{Content: PathsJSON(10, "Intro to Superposition")},
		llm.MockResponse{Content: CurriculumJSON("Intro to Superposition", subLessons, 3)},
	)
}
