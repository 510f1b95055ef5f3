package tutor

// Config holds tutor chat settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// CompressThreshold is the character count of un-summarized history
	// above which older turns are folded into a summary.
	CompressThreshold int

	// KeepRecent is how many of the latest messages always stay verbatim.
	KeepRecent int

	SummaryMaxTokens int
}

// DefaultConfig returns sensible defaults for tutor chat.
func DefaultConfig() Config {
	return Config{
		MaxTokens:         2048,
		Temperature:       0.7,
		CompressThreshold: 12000,
		KeepRecent:        6,
		SummaryMaxTokens:  512,
	}
}
