package llm

import (
	"encoding/json"
	"net/http"
	"testing"
)

// pillarsSchema is a trimmed learning-pillars schema.
func pillarsSchema() *Schema {
	return &Schema{
		Name:        "learning-pillars",
		Description: "The pillars a learner can study within a subject",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pillars": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":       map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
							"icon":        map[string]any{"type": "string", "enum": []any{"science", "history", "code"}},
						},
						"required": []any{"title", "description", "icon"},
					},
				},
			},
			"required": []any{"pillars"},
		},
	}
}

const pillarsJSON = `{"pillars":[{"title":"Wave Mechanics","description":"How quantum states evolve","icon":"science"}]}`

func pillarsRequest() Request {
	return Request{
		System:    "You design learning pillars for a subject.",
		Messages:  []Message{{Role: RoleUser, Content: "Subject: Quantum Physics"}},
		Schema:    pillarsSchema(),
		MaxTokens: 4096,
	}
}

// curriculumSchema is a trimmed curriculum schema.
func curriculumSchema() *Schema {
	return &Schema{
		Name:        "curriculum",
		Description: "A curriculum for one learning path",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"introduction": map[string]any{"type": "string"},
				"subLessons": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":   map[string]any{"type": "string"},
							"content": map[string]any{"type": "string"},
						},
						"required": []any{"title", "content"},
					},
				},
			},
			"required": []any{"introduction", "subLessons"},
		},
	}
}

// truncatedCurriculum is curriculum output cut off mid-string.
const truncatedCurriculum = `{"introduction":"Superposition lets a quantum state be in several`

func curriculumRequest() Request {
	return Request{
		System:    "You write curricula.",
		Messages:  []Message{{Role: RoleUser, Content: "Path: Intro to Superposition"}},
		Schema:    curriculumSchema(),
		MaxTokens: 8192,
	}
}

// tutorTurn is a free-text tutor request with two earlier turns.
func tutorTurn() Request {
	return Request{
		System: "You are a patient tutor for Intro to Superposition.",
		Messages: []Message{
			{Role: RoleUser, Content: "What is a ket?"},
			{Role: RoleAssistant, Content: "A ket is a column vector describing a quantum state."},
			{Role: RoleUser, Content: "And a bra?"},
		},
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// chatCompletion is an OpenAI-style completion body.
func chatCompletion(model, content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-pathwise",
		"object":  "chat.completion",
		"created": 1767225600,
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 48, "total_tokens": 168},
	}
}

// writeJSON writes v with status.
func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}
