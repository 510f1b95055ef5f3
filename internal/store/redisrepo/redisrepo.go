// Package redisrepo stores course documents in Redis, one hash per user
// keyed by course id, so several machines can share a library.
package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/store"
)

// maxTxAttempts bounds optimistic-lock retries when another writer
// touches the same user hash during an upsert.
const maxTxAttempts = 5

// Options configures the Redis connection.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Repo implements store.CourseRepo on Redis hashes.
type Repo struct {
	rdb    *goredis.Client
	prefix string
	log    *zap.Logger
}

// envelope is the value stored per hash field.
type envelope struct {
	Subject      string          `json:"subject"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    int64           `json:"createdAt"`
	LastAccessed int64           `json:"lastAccessed"`
	Version      uint64          `json:"version"`
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, opts Options, log *zap.Logger) (*Repo, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if log == nil {
		log = zap.NewNop()
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "pathwise"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Repo{
		rdb:    rdb,
		prefix: prefix,
		log:    log.With(zap.String("component", "redisrepo")),
	}, nil
}

// Close releases the connection pool.
func (r *Repo) Close() error {
	return r.rdb.Close()
}

func (r *Repo) key(userID string) string {
	return userKey(r.prefix, userID)
}

func userKey(prefix, userID string) string {
	return prefix + ":courses:" + userID
}

func (r *Repo) List(ctx context.Context, userID string) ([]store.CourseDoc, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	docs := make([]store.CourseDoc, 0, len(fields))
	for id, raw := range fields {
		doc, err := decodeDoc(userID, id, raw)
		if err != nil {
			r.log.Warn("skipping unreadable course", zap.String("course_id", id), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].LastAccessed.After(docs[j].LastAccessed)
	})
	return docs, nil
}

func (r *Repo) Upsert(ctx context.Context, doc store.CourseDoc) error {
	key := r.key(doc.UserID)

	txf := func(tx *goredis.Tx) error {
		raw, err := tx.HGet(ctx, key, doc.ID).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}

		next := doc
		if err == nil {
			current, err := decodeDoc(doc.UserID, doc.ID, raw)
			if err != nil {
				return err
			}
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
		}

		value, err := encodeDoc(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, doc.ID, value)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxAttempts; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("upsert course %s: %w", doc.ID, err)
		}
		return nil
	}
	return fmt.Errorf("upsert course %s: too much contention", doc.ID)
}

func (r *Repo) Delete(ctx context.Context, userID, courseID string) error {
	if err := r.rdb.HDel(ctx, r.key(userID), courseID).Err(); err != nil {
		return fmt.Errorf("delete course %s: %w", courseID, err)
	}
	return nil
}

func encodeDoc(doc store.CourseDoc) (string, error) {
	b, err := json.Marshal(envelope{
		Subject:      doc.Subject,
		Data:         doc.Data,
		CreatedAt:    doc.CreatedAt.UTC().UnixMilli(),
		LastAccessed: doc.LastAccessed.UTC().UnixMilli(),
		Version:      doc.Version,
	})
	if err != nil {
		return "", fmt.Errorf("encode course %s: %w", doc.ID, err)
	}
	return string(b), nil
}

func decodeDoc(userID, id, raw string) (store.CourseDoc, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return store.CourseDoc{}, fmt.Errorf("decode course %s: %w", id, err)
	}
	return store.CourseDoc{
		UserID:       userID,
		ID:           id,
		Subject:      env.Subject,
		Data:         env.Data,
		CreatedAt:    time.UnixMilli(env.CreatedAt).UTC(),
		LastAccessed: time.UnixMilli(env.LastAccessed).UTC(),
		Version:      env.Version,
	}, nil
}
