package content

import (
	"strings"

	"github.com/abhisek/pathwise/internal/llm"
)

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func strList(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

func iconTags() string {
	tags := make([]string, len(AllIcons))
	for i, ic := range AllIcons {
		tags[i] = string(ic)
	}
	return strings.Join(tags, ", ")
}

// PillarsSchema defines the JSON schema for pillar generation.
var PillarsSchema = &llm.Schema{
	Name:        "learning-pillars",
	Description: "Thirty distinct topic areas that together cover a subject",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pillars": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":       str("Short name of the topic area (2-6 words)"),
						"description": str("One sentence on what the topic area covers"),
						"icon":        str("Category tag, one of: " + iconTags()),
					},
					"required":             []any{"title", "description", "icon"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"pillars"},
		"additionalProperties": false,
	},
}

// PathsSchema defines the JSON schema for lesson path generation.
var PathsSchema = &llm.Schema{
	Name:        "lesson-paths",
	Description: "Ten focused courses inside one topic area",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"paths": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":         str("Course title"),
						"description":   str("Two sentences on what the learner will be able to do"),
						"difficulty":    str("One of: Beginner, Intermediate, Advanced"),
						"estimatedTime": str("Rough time to complete, e.g. \"2 hours\""),
					},
					"required":             []any{"title", "description", "difficulty", "estimatedTime"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"paths"},
		"additionalProperties": false,
	},
}

// CurriculumSchema defines the JSON schema for curriculum generation.
var CurriculumSchema = &llm.Schema{
	Name:        "curriculum",
	Description: "A complete course curriculum with sub-lessons",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pathTitle":         str("Title of the course"),
			"introduction":      str("Two or three paragraph introduction"),
			"objectives":        strList("At least three learning objectives"),
			"keyConcepts":       strList("Key concepts covered"),
			"realWorldUseCases": strList("Where this knowledge is applied"),
			"caseStudy": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":    str("Case study title"),
					"scenario": str("The situation"),
					"outcome":  str("What happened and why it matters"),
				},
				"required":             []any{"title", "scenario", "outcome"},
				"additionalProperties": false,
			},
			"subLessons": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":             str("Sub-lesson title"),
						"content":           str("Lesson body in markdown"),
						"generalConcepts":   str("The general ideas behind the lesson"),
						"useCases":          strList("Practical uses"),
						"caseStudies":       strList("Short real examples"),
						"references":        strList("Books, papers or sites for further reading"),
						"example":           str("A worked example"),
						"visualDescription": str("A one-sentence description of an illustration for this lesson"),
						"actionItem":        str("One concrete exercise for the learner"),
					},
					"required": []any{
						"title", "content", "generalConcepts", "useCases", "caseStudies",
						"references", "example", "visualDescription", "actionItem",
					},
					"additionalProperties": false,
				},
			},
			"resources": strList("Further resources"),
		},
		"required": []any{
			"pathTitle", "introduction", "objectives", "keyConcepts", "realWorldUseCases",
			"caseStudy", "subLessons", "resources",
		},
		"additionalProperties": false,
	},
}
