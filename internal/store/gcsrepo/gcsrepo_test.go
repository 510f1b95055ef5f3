package gcsrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/abhisek/pathwise/internal/store"
)

func TestObjectNames(t *testing.T) {
	r := &Repo{prefix: "prod/"}
	assert.Equal(t, "prod/users/u1/courses/", r.userPrefix("u1"))
	assert.Equal(t, "prod/users/u1/courses/42.json", r.objectName("u1", "42"))

	bare := &Repo{}
	assert.Equal(t, "users/u1/courses/42.json", bare.objectName("u1", "42"))
}

func TestIsPreconditionFailed(t *testing.T) {
	wrapped := fmt.Errorf("close writer: %w", &googleapi.Error{Code: http.StatusPreconditionFailed})
	assert.True(t, isPreconditionFailed(wrapped))
	assert.False(t, isPreconditionFailed(&googleapi.Error{Code: http.StatusNotFound}))
	assert.False(t, isPreconditionFailed(errors.New("boom")))
	assert.False(t, isPreconditionFailed(nil))
}

func TestClientOptions_Emulator(t *testing.T) {
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	opts := clientOptions(Options{EmulatorHost: "http://localhost:4443/"})
	assert.Len(t, opts, 1)
	assert.Equal(t, "http://localhost:4443", os.Getenv("STORAGE_EMULATOR_HOST"))
}

// Runs against a fake-gcs-server when PATHWISE_TEST_GCS_EMULATOR and
// PATHWISE_TEST_GCS_BUCKET are set.
func TestRepo_Integration(t *testing.T) {
	host := os.Getenv("PATHWISE_TEST_GCS_EMULATOR")
	bucket := os.Getenv("PATHWISE_TEST_GCS_BUCKET")
	if host == "" || bucket == "" {
		t.Skip("GCS emulator not configured")
	}
	t.Setenv("STORAGE_EMULATOR_HOST", host)

	ctx := context.Background()
	r, err := New(ctx, Options{Bucket: bucket, Prefix: "test-" + time.Now().Format("150405.000"), EmulatorHost: host}, nil)
	require.NoError(t, err)
	defer r.Close()

	now := time.Now().UTC()
	require.NoError(t, r.Upsert(ctx, store.CourseDoc{
		UserID: "u1", ID: "c1", Subject: "Quantum",
		Data: json.RawMessage(`{"subject":"Quantum","completedSubLessons":[]}`), CreatedAt: now, LastAccessed: now, Version: 1,
	}))
	require.NoError(t, r.Upsert(ctx, store.CourseDoc{
		UserID: "u1", ID: "c1", Subject: "Quantum",
		Data: json.RawMessage(`{"completedSubLessons":[1]}`), CreatedAt: now, LastAccessed: now, Version: 2,
	}))

	docs, err := r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.JSONEq(t, `{"subject":"Quantum","completedSubLessons":[1]}`, string(docs[0].Data))

	err = r.Upsert(ctx, store.CourseDoc{UserID: "u1", ID: "c1", Data: json.RawMessage(`{}`), Version: 1})
	assert.ErrorIs(t, err, store.ErrStaleVersion)

	require.NoError(t, r.Delete(ctx, "u1", "c1"))
	require.NoError(t, r.Delete(ctx, "u1", "c1"))
	docs, err = r.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
