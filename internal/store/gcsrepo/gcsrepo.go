// Package gcsrepo stores course documents as JSON objects in a Google Cloud
// Storage bucket under users/{uid}/courses/{id}.json.
package gcsrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/abhisek/pathwise/internal/store"
)

const maxWriteAttempts = 5

// Options configures the bucket connection. EmulatorHost points the client
// at a local fake-gcs server without authentication.
type Options struct {
	Bucket          string
	Prefix          string
	EmulatorHost    string
	CredentialsFile string
}

// Repo implements store.CourseRepo on a GCS bucket.
type Repo struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	log    *zap.Logger
}

type object struct {
	Subject      string          `json:"subject"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    int64           `json:"createdAt"`
	LastAccessed int64           `json:"lastAccessed"`
	Version      uint64          `json:"version"`
}

// New creates a storage client for opts.Bucket.
func New(ctx context.Context, opts Options, log *zap.Logger) (*Repo, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("missing GCS bucket name")
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := storage.NewClient(ctx, clientOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	prefix := strings.Trim(opts.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	log.Info("GCS course store initialized",
		zap.String("bucket", opts.Bucket),
		zap.String("prefix", prefix),
		zap.Bool("emulator", opts.EmulatorHost != ""))

	return &Repo{
		client: client,
		bucket: client.Bucket(opts.Bucket),
		prefix: prefix,
		log:    log.With(zap.String("component", "gcsrepo")),
	}, nil
}

func clientOptions(opts Options) []option.ClientOption {
	if host := strings.TrimRight(strings.TrimSpace(opts.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		return []option.ClientOption{option.WithoutAuthentication()}
	}
	out := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if opts.CredentialsFile != "" {
		out = append(out, option.WithCredentialsFile(opts.CredentialsFile))
	}
	return out
}

// Close closes the storage client.
func (r *Repo) Close() error {
	return r.client.Close()
}

func (r *Repo) userPrefix(userID string) string {
	return r.prefix + "users/" + userID + "/courses/"
}

func (r *Repo) objectName(userID, courseID string) string {
	return r.userPrefix(userID) + courseID + ".json"
}

func (r *Repo) List(ctx context.Context, userID string) ([]store.CourseDoc, error) {
	prefix := r.userPrefix(userID)
	it := r.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var docs []store.CourseDoc
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(attrs.Name, prefix), ".json")

		doc, _, err := r.read(ctx, userID, id)
		if err != nil {
			r.log.Warn("skipping unreadable course", zap.String("object", attrs.Name), zap.Error(err))
			continue
		}
		if doc != nil {
			docs = append(docs, *doc)
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].LastAccessed.After(docs[j].LastAccessed)
	})
	return docs, nil
}

// read returns the stored document and its generation, or nil if the
// object does not exist.
func (r *Repo) read(ctx context.Context, userID, courseID string) (*store.CourseDoc, int64, error) {
	rd, err := r.bucket.Object(r.objectName(userID, courseID)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open course %s: %w", courseID, err)
	}
	defer rd.Close()

	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, 0, fmt.Errorf("read course %s: %w", courseID, err)
	}
	var obj object
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, 0, fmt.Errorf("decode course %s: %w", courseID, err)
	}
	return &store.CourseDoc{
		UserID:       userID,
		ID:           courseID,
		Subject:      obj.Subject,
		Data:         obj.Data,
		CreatedAt:    time.UnixMilli(obj.CreatedAt).UTC(),
		LastAccessed: time.UnixMilli(obj.LastAccessed).UTC(),
		Version:      obj.Version,
	}, rd.Attrs.Generation, nil
}

func (r *Repo) Upsert(ctx context.Context, doc store.CourseDoc) error {
	for i := 0; i < maxWriteAttempts; i++ {
		err := r.tryUpsert(ctx, doc)
		if isPreconditionFailed(err) {
			r.log.Debug("course changed during upsert, retrying", zap.String("course_id", doc.ID))
			continue
		}
		return err
	}
	return fmt.Errorf("upsert course %s: too much contention", doc.ID)
}

func (r *Repo) tryUpsert(ctx context.Context, doc store.CourseDoc) error {
	current, gen, err := r.read(ctx, doc.UserID, doc.ID)
	if err != nil {
		return err
	}

	obj := r.bucket.Object(r.objectName(doc.UserID, doc.ID))
	next := doc
	if current == nil {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	} else {
		if current.Version > doc.Version {
			return fmt.Errorf("course %s at version %d, write has %d: %w",
				doc.ID, current.Version, doc.Version, store.ErrStaleVersion)
		}
		merged, err := store.MergeJSON(current.Data, doc.Data)
		if err != nil {
			return err
		}
		next.Data = merged
		next.CreatedAt = current.CreatedAt
		obj = obj.If(storage.Conditions{GenerationMatch: gen})
	}

	b, err := json.Marshal(object{
		Subject:      next.Subject,
		Data:         next.Data,
		CreatedAt:    next.CreatedAt.UTC().UnixMilli(),
		LastAccessed: next.LastAccessed.UTC().UnixMilli(),
		Version:      next.Version,
	})
	if err != nil {
		return fmt.Errorf("encode course %s: %w", doc.ID, err)
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(b); err != nil {
		_ = w.Close()
		return fmt.Errorf("write course %s: %w", doc.ID, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close course writer %s: %w", doc.ID, err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, courseID string) error {
	err := r.bucket.Object(r.objectName(userID, courseID)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete course %s: %w", courseID, err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
