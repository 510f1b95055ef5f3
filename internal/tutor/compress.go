package tutor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/pathwise/internal/llm"
)

// summarySchema defines the JSON schema for conversation compression.
var summarySchema = &llm.Schema{
	Name:        "chat-summary",
	Description: "Compressed summary of the older part of a tutoring conversation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "4-6 sentence summary of the conversation so far",
			},
		},
		"required":             []any{"summary"},
		"additionalProperties": false,
	},
}

// Compressor folds older chat turns into a running summary.
type Compressor struct {
	provider llm.Provider
	cfg      Config
}

// NewCompressor creates a chat compressor.
func NewCompressor(provider llm.Provider, cfg Config) *Compressor {
	return &Compressor{provider: provider, cfg: cfg}
}

type compressionOutput struct {
	Summary string `json:"summary"`
}

// Compress summarizes turns synchronously.
func (c *Compressor) Compress(ctx context.Context, prev string, turns []llm.Message) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeTutorCompress)

	req := llm.Request{
		System: compressionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildCompressionUserMessage(prev, turns)},
		},
		Schema:      summarySchema,
		MaxTokens:   c.cfg.SummaryMaxTokens,
		Temperature: 0.3,
	}

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat compression: %w", err)
	}

	var out compressionOutput
	if err := json.Unmarshal([]byte(llm.StripCodeFence(string(resp.Content))), &out); err != nil {
		return "", fmt.Errorf("parse compression response: %w", err)
	}
	return out.Summary, nil
}
