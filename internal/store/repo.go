package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrStaleVersion is returned by CourseRepo.Upsert when the stored
	// document already carries a newer version than the one written.
	ErrStaleVersion = errors.New("stale course version")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	// Purpose keeps only LLM events with this label.
	Purpose string
}

// CourseDoc is one saved course as held by a document store. Data is the
// full JSON document; the other fields are indexed copies.
type CourseDoc struct {
	UserID       string
	ID           string
	Subject      string
	Data         json.RawMessage
	CreatedAt    time.Time
	LastAccessed time.Time
	Version      uint64
}

// CourseRepo is a per-user collection of course documents.
type CourseRepo interface {
	// List returns every course of the user, most recently accessed first.
	List(ctx context.Context, userID string) ([]CourseDoc, error)

	// Upsert creates the document or merges doc.Data into the stored one,
	// preserving fields the new document does not set. Writes carrying an
	// older Version than the stored one return ErrStaleVersion.
	Upsert(ctx context.Context, doc CourseDoc) error

	// Delete removes a course. Deleting a missing course is not an error.
	Delete(ctx context.Context, userID, courseID string) error
}

// Snapshot is a point-in-time capture of serialized client state.
type Snapshot struct {
	ID        int
	Key       string
	Sequence  int64
	Timestamp time.Time
	Data      json.RawMessage
}

// SnapshotRepo manages client state snapshots under a fixed key.
type SnapshotRepo interface {
	// Save stores a new snapshot. Sequence is assigned when zero.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot for key, or nil if none exist.
	Latest(ctx context.Context, key string) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots for key.
	Prune(ctx context.Context, key string, keep int) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// UsageStat aggregates token usage over a group of events.
type UsageStat struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}
