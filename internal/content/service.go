package content

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/pathwise/internal/llm"
)

// Service is the typed gateway to the generative content API.
type Service struct {
	provider llm.Provider
	speech   llm.SpeechSynthesizer
	cfg      Config
}

// NewService creates a content service. speech may be nil, in which case
// GenerateModuleAudio always fails.
func NewService(provider llm.Provider, speech llm.SpeechSynthesizer, cfg Config) *Service {
	return &Service{provider: provider, speech: speech, cfg: cfg}
}

type pillarsOutput struct {
	Pillars []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"pillars"`
}

// GeneratePillars returns exactly PillarCount pillars for subject with ids
// 1..PillarCount in generation order.
func (s *Service) GeneratePillars(ctx context.Context, subject string) ([]Pillar, error) {
	const op = llm.PurposePillars
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, genErr(op, msgPillars, errors.New("empty subject"))
	}

	var out pillarsOutput
	if err := s.generate(ctx, op, buildPillarsMessage(subject), PillarsSchema, s.cfg.PillarMaxTokens, &out); err != nil {
		return nil, genErr(op, msgPillars, err)
	}
	if len(out.Pillars) < PillarCount {
		return nil, genErr(op, msgPillars,
			fmt.Errorf("got %d pillars, want %d", len(out.Pillars), PillarCount))
	}

	pillars := make([]Pillar, PillarCount)
	for i := range pillars {
		p := out.Pillars[i]
		if strings.TrimSpace(p.Title) == "" {
			return nil, genErr(op, msgPillars, fmt.Errorf("pillar %d has no title", i+1))
		}
		pillars[i] = Pillar{
			ID:          i + 1,
			Title:       strings.TrimSpace(p.Title),
			Description: strings.TrimSpace(p.Description),
			Icon:        NormalizeIcon(p.Icon),
		}
	}
	return pillars, nil
}

type pathsOutput struct {
	Paths []struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		Difficulty    string `json:"difficulty"`
		EstimatedTime string `json:"estimatedTime"`
	} `json:"paths"`
}

// GenerateLessonPaths returns exactly PathCount paths for a pillar with
// ids 1..PathCount.
func (s *Service) GenerateLessonPaths(ctx context.Context, subject, pillarTitle string) ([]Path, error) {
	const op = llm.PurposePaths

	var out pathsOutput
	if err := s.generate(ctx, op, buildPathsMessage(subject, pillarTitle), PathsSchema, s.cfg.PathMaxTokens, &out); err != nil {
		return nil, genErr(op, msgPaths, err)
	}
	if len(out.Paths) < PathCount {
		return nil, genErr(op, msgPaths, fmt.Errorf("got %d paths, want %d", len(out.Paths), PathCount))
	}

	paths := make([]Path, PathCount)
	for i := range paths {
		p := out.Paths[i]
		d, ok := ParseDifficulty(p.Difficulty)
		if !ok {
			return nil, genErr(op, msgPaths, fmt.Errorf("path %d: unknown difficulty %q", i+1, p.Difficulty))
		}
		if strings.TrimSpace(p.Title) == "" {
			return nil, genErr(op, msgPaths, fmt.Errorf("path %d has no title", i+1))
		}
		paths[i] = Path{
			ID:            i + 1,
			Title:         strings.TrimSpace(p.Title),
			Description:   strings.TrimSpace(p.Description),
			Difficulty:    d,
			EstimatedTime: strings.TrimSpace(p.EstimatedTime),
		}
	}
	return paths, nil
}

// GenerateCurriculum returns the full curriculum for a path. The result
// never carries audio.
func (s *Service) GenerateCurriculum(ctx context.Context, subject, pillarTitle, pathTitle string) (*Curriculum, error) {
	const op = llm.PurposeCurriculum

	var c Curriculum
	if err := s.generate(ctx, op, buildCurriculumMessage(subject, pillarTitle, pathTitle), CurriculumSchema, s.cfg.CurriculumMaxTokens, &c); err != nil {
		return nil, genErr(op, msgCurriculum, err)
	}
	if err := validateCurriculum(&c); err != nil {
		return nil, genErr(op, msgCurriculum, err)
	}
	if c.PathTitle == "" {
		c.PathTitle = pathTitle
	}
	c.AudioData = ""
	return &c, nil
}

func validateCurriculum(c *Curriculum) error {
	if strings.TrimSpace(c.Introduction) == "" {
		return errors.New("missing introduction")
	}
	if len(c.Objectives) < MinObjectives {
		return fmt.Errorf("got %d objectives, want at least %d", len(c.Objectives), MinObjectives)
	}
	if len(c.SubLessons) == 0 {
		return errors.New("no sub-lessons")
	}
	for i, sl := range c.SubLessons {
		if strings.TrimSpace(sl.Title) == "" || strings.TrimSpace(sl.Content) == "" {
			return fmt.Errorf("sub-lesson %d is missing title or content", i)
		}
	}
	return nil
}

// GenerateModuleAudio speaks script and returns the samples as Base64 PCM.
func (s *Service) GenerateModuleAudio(ctx context.Context, script string) (string, error) {
	const op = llm.PurposeAudio
	if s.speech == nil {
		return "", genErr(op, msgAudio, llm.ErrSpeechUnsupported)
	}
	if strings.TrimSpace(script) == "" {
		return "", genErr(op, msgAudio, errors.New("empty script"))
	}

	ctx = llm.WithPurpose(ctx, op)
	resp, err := s.speech.Synthesize(ctx, llm.SpeechRequest{Text: script, Voice: s.cfg.Voice})
	if err != nil {
		return "", genErr(op, msgAudio, err)
	}
	if len(resp.PCM) == 0 {
		return "", genErr(op, msgAudio, errors.New("no audio returned"))
	}
	return base64.StdEncoding.EncodeToString(resp.PCM), nil
}

func (s *Service) generate(ctx context.Context, purpose, userMsg string, schema *llm.Schema, maxTokens int, out any) error {
	ctx = llm.WithPurpose(ctx, purpose)

	req := llm.Request{
		System: curriculumDesignerPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      schema,
		MaxTokens:   maxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("%s generation: %w", purpose, err)
	}

	raw := llm.StripCodeFence(string(resp.Content))
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("parse %s response: %w", purpose, err)
	}
	return nil
}
