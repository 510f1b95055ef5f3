package llm

import (
	"context"
	"slices"
)

// Purpose labels say what a call was for. They key the event log and the
// per-purpose usage report.
const (
	PurposePillars       = "pillars"
	PurposePaths         = "paths"
	PurposeCurriculum    = "curriculum"
	PurposeAudio         = "audio"
	PurposeTutor         = "tutor"
	PurposeTutorCompress = "tutor-compress"

	// PurposeUnknown marks calls made without WithPurpose.
	PurposeUnknown = "unknown"
)

var purposes = []string{
	PurposePillars,
	PurposePaths,
	PurposeCurriculum,
	PurposeAudio,
	PurposeTutor,
	PurposeTutorCompress,
}

// Purposes lists the labels in the order a learner meets them.
func Purposes() []string {
	return slices.Clone(purposes)
}

// IsPurpose reports whether p is one of Purposes.
func IsPurpose(p string) bool {
	return slices.Contains(purposes, p)
}

type purposeKey struct{}

// WithPurpose labels the calls made with ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or PurposeUnknown.
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return PurposeUnknown
}
