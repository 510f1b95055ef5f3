package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-tts", "gemini-2.5-flash-preview-tts"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildGeminiSchema_Pillars(t *testing.T) {
	s := buildGeminiSchema(pillarsSchema().Definition)

	if s.Type != genai.TypeObject || len(s.Required) != 1 || s.Required[0] != "pillars" {
		t.Fatalf("root = %+v", s)
	}
	list := s.Properties["pillars"]
	if list == nil || list.Type != genai.TypeArray || list.Items == nil {
		t.Fatalf("pillars = %+v", list)
	}
	item := list.Items
	if item.Type != genai.TypeObject || len(item.Properties) != 3 || len(item.Required) != 3 {
		t.Fatalf("pillar item = %+v", item)
	}
	icon := item.Properties["icon"]
	if icon.Type != genai.TypeString || len(icon.Enum) != 3 || icon.Enum[0] != "science" {
		t.Fatalf("icon = %+v", icon)
	}
}

func TestBuildGeminiSchema_Curriculum(t *testing.T) {
	s := buildGeminiSchema(curriculumSchema().Definition)

	if s.Properties["introduction"].Type != genai.TypeString {
		t.Errorf("introduction = %+v", s.Properties["introduction"])
	}
	lessons := s.Properties["subLessons"]
	if lessons.Type != genai.TypeArray || lessons.Items.Properties["content"].Type != genai.TypeString {
		t.Errorf("subLessons = %+v", lessons)
	}
}

func TestMapGeminiStopReason(t *testing.T) {
	tests := []struct {
		reason genai.FinishReason
		want   string
	}{
		{genai.FinishReasonStop, "end"},
		{genai.FinishReasonMaxTokens, "max_tokens"},
		{genai.FinishReasonSafety, "end"},
	}
	for _, tt := range tests {
		result := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: tt.reason}}}
		if got := mapGeminiStopReason(result); got != tt.want {
			t.Errorf("%s -> %q, want %q", tt.reason, got, tt.want)
		}
	}
	if got := mapGeminiStopReason(&genai.GenerateContentResponse{}); got != "end" {
		t.Errorf("no candidates -> %q", got)
	}
}
