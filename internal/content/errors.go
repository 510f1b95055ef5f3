package content

// GenerationError is returned by every Service method. Error returns the
// message shown to the learner; the cause stays available through Unwrap.
type GenerationError struct {
	Op      string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

const (
	msgPillars    = "Failed to generate learning pillars. Please try again."
	msgPaths      = "Failed to generate lesson paths. Please try again."
	msgCurriculum = "Failed to generate the curriculum. Please try again."
	msgAudio      = "Failed to generate the audio overview. Please try again."
)

func genErr(op, msg string, err error) *GenerationError {
	return &GenerationError{Op: op, Message: msg, Err: err}
}
