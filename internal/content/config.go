package content

const (
	// PillarCount is the number of pillars generated per subject.
	PillarCount = 30

	// PathCount is the number of lesson paths generated per pillar.
	PathCount = 10

	// MinObjectives is the fewest learning objectives a curriculum may have.
	MinObjectives = 3
)

// Config holds generation settings.
type Config struct {
	PillarMaxTokens     int
	PathMaxTokens       int
	CurriculumMaxTokens int
	Temperature         float64
	Voice               string
}

// DefaultConfig returns sensible defaults for content generation.
func DefaultConfig() Config {
	return Config{
		PillarMaxTokens:     8192,
		PathMaxTokens:       4096,
		CurriculumMaxTokens: 16384,
		Temperature:         0.7,
	}
}
