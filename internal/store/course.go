package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const coursesTable = "courses"

// courseRepo implements CourseRepo on the local courses table.
type courseRepo struct {
	db *sql.DB
}

func (r *courseRepo) List(ctx context.Context, userID string) ([]CourseDoc, error) {
	query, args := builder().
		Select("user_id", "id", "subject", "data", "created_at", "last_accessed", "version").
		From(entsql.Table(coursesTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("last_accessed")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var docs []CourseDoc
	for rows.Next() {
		var (
			d                 CourseDoc
			data              string
			created, accessed int64
			version           int64
		)
		if err := rows.Scan(&d.UserID, &d.ID, &d.Subject, &data, &created, &accessed, &version); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		d.Data = []byte(data)
		d.CreatedAt = time.UnixMilli(created).UTC()
		d.LastAccessed = time.UnixMilli(accessed).UTC()
		d.Version = uint64(version)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *courseRepo) Upsert(ctx context.Context, doc CourseDoc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course upsert: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Select("data", "version").
		From(entsql.Table(coursesTable)).
		Where(coursePredicate(doc.UserID, doc.ID)).
		Query()

	var (
		existing string
		version  int64
		found    = true
	)
	err = tx.QueryRowContext(ctx, query, args...).Scan(&existing, &version)
	switch {
	case err == sql.ErrNoRows:
		found = false
	case err != nil:
		return fmt.Errorf("load course %s: %w", doc.ID, err)
	}

	if !found {
		query, args = builder().Insert(coursesTable).
			Columns("user_id", "id", "subject", "data", "created_at", "last_accessed", "version").
			Values(doc.UserID, doc.ID, doc.Subject, string(doc.Data),
				doc.CreatedAt.UTC().UnixMilli(), doc.LastAccessed.UTC().UnixMilli(), int64(doc.Version)).
			Query()
	} else {
		if uint64(version) > doc.Version {
			return fmt.Errorf("course %s at version %d, write has %d: %w",
				doc.ID, version, doc.Version, ErrStaleVersion)
		}
		merged, err := MergeJSON([]byte(existing), doc.Data)
		if err != nil {
			return fmt.Errorf("merge course %s: %w", doc.ID, err)
		}
		query, args = builder().Update(coursesTable).
			Set("subject", doc.Subject).
			Set("data", string(merged)).
			Set("last_accessed", doc.LastAccessed.UTC().UnixMilli()).
			Set("version", int64(doc.Version)).
			Where(coursePredicate(doc.UserID, doc.ID)).
			Query()
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write course %s: %w", doc.ID, err)
	}
	return tx.Commit()
}

func (r *courseRepo) Delete(ctx context.Context, userID, courseID string) error {
	query, args := builder().Delete(coursesTable).
		Where(coursePredicate(userID, courseID)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete course %s: %w", courseID, err)
	}
	return nil
}

func coursePredicate(userID, courseID string) *entsql.Predicate {
	return entsql.And(entsql.EQ("user_id", userID), entsql.EQ("id", courseID))
}
