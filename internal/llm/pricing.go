package llm

import (
	"regexp"
	"strings"
)

// ModelCost is USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of a call.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// dateSuffix matches snapshot suffixes such as -20250514 or -2024-08-06.
var dateSuffix = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2})$`)

// LookupCost returns the pricing for a model ID, or nil if unknown.
// OpenRouter vendor prefixes ("google/…") and dated snapshot suffixes are
// ignored when the exact id is not listed.
func LookupCost(modelID string) *ModelCost {
	id := strings.ToLower(strings.TrimSpace(modelID))
	candidates := []string{id}
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
		candidates = append(candidates, id)
	}
	id = strings.TrimSuffix(id, ":free")
	candidates = append(candidates, id, dateSuffix.ReplaceAllString(id, ""))

	for _, c := range candidates {
		if cost, ok := modelCosts[c]; ok {
			return &cost
		}
	}
	return nil
}

// modelCosts lists list prices for the models pathwise is configured
// with most often. Last updated: 2026-09-30.
var modelCosts = map[string]ModelCost{
	// Gemini
	"gemini-flash":                 {0.3, 2.5},
	"gemini-flash-latest":          {0.3, 2.5},
	"gemini-flash-lite-latest":     {0.1, 0.4},
	"gemini-2.0-flash":             {0.1, 0.4},
	"gemini-2.0-flash-exp":         {0.1, 0.4},
	"gemini-2.0-flash-lite":        {0.075, 0.3},
	"gemini-2.5-flash":             {0.3, 2.5},
	"gemini-2.5-flash-lite":        {0.1, 0.4},
	"gemini-2.5-pro":               {1.25, 10},
	"gemini-3-flash-preview":       {0.5, 3},
	"gemini-3-pro-preview":         {2, 12},
	"gemini-tts":                   {0.5, 10},
	"gemini-2.5-flash-preview-tts": {0.5, 10},
	"gemini-2.5-pro-preview-tts":   {1, 20},

	// Anthropic
	"claude-haiku":      {1, 5},
	"claude-haiku-4-5":  {1, 5},
	"claude-3-5-haiku":  {0.8, 4},
	"claude-sonnet-4-0": {3, 15},
	"claude-sonnet-4":   {3, 15},
	"claude-sonnet-4-5": {3, 15},
	"claude-opus-4-1":   {15, 75},
	"claude-opus-4-5":   {5, 25},

	// OpenAI
	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-5":        {1.25, 10},
	"gpt-5-mini":   {0.25, 2},
	"gpt-5-nano":   {0.05, 0.4},
	"o4-mini":      {1.1, 4.4},
}
