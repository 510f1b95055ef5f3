package llm

import "context"

// speechSampleRate is the PCM rate of every supported TTS backend.
const speechSampleRate = 24000

// SpeechSynthesizer turns text into raw speech audio.
type SpeechSynthesizer interface {
	// Synthesize returns little-endian 16-bit mono PCM samples.
	Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResponse, error)
}

// SpeechRequest describes a text-to-speech call.
type SpeechRequest struct {
	Text string

	// Voice selects a provider voice. Empty uses the configured default.
	Voice string
}

// SpeechResponse holds synthesized audio.
type SpeechResponse struct {
	PCM        []byte
	SampleRate int
	Model      string
}
