package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxIface is the subset of pgxpool.Pool the store uses; pgxmock
// implements it for tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a Store backed by Postgres with the pgvector
// extension; cosine search runs in the database. This mirrors the
// hosted deployment the service was originally built against.
type PostgresStore struct {
	db PgxIface
}

// NewPostgresStore wraps an existing pool (or mock).
func NewPostgresStore(db PgxIface) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgresStore connects to dsn and ensures the schema exists.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres catalog: %w", err)
	}
	s := &PostgresStore{db: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

const pgSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	remote_testing BOOLEAN NOT NULL DEFAULT FALSE,
	adaptive_irt BOOLEAN NOT NULL DEFAULT FALSE,
	test_types TEXT[] NOT NULL DEFAULT '{}',
	job_levels TEXT[] NOT NULL DEFAULT '{}',
	languages TEXT[] NOT NULL DEFAULT '{}',
	key_features TEXT[] NOT NULL DEFAULT '{}',
	duration_text TEXT NOT NULL DEFAULT '',
	duration_min_minutes INTEGER,
	duration_max_minutes INTEGER,
	is_untimed BOOLEAN NOT NULL DEFAULT FALSE,
	is_variable_duration BOOLEAN NOT NULL DEFAULT FALSE,
	embedding vector(768)
)`

// EnsureSchema creates the assessments table and vector extension.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("migrating postgres catalog: %w", err)
	}
	return nil
}

const pgCols = `id, name, description, url, remote_testing, adaptive_irt,
	test_types, job_levels, languages, key_features,
	duration_text, duration_min_minutes, duration_max_minutes,
	is_untimed, is_variable_duration, embedding::text`

func scanPgAssessment(row pgx.Row) (Assessment, error) {
	var (
		a   Assessment
		emb *string
	)
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.URL, &a.RemoteTesting, &a.AdaptiveIRT,
		&a.TestTypes, &a.JobLevels, &a.Languages, &a.KeyFeatures,
		&a.DurationText, &a.DurationMinMinutes, &a.DurationMaxMinutes,
		&a.IsUntimed, &a.IsVariableDuration, &emb)
	if err != nil {
		return Assessment{}, err
	}
	if emb != nil {
		v, err := parseVectorText(*emb)
		if err != nil {
			return Assessment{}, fmt.Errorf("decoding embedding for %q: %w", a.ID, err)
		}
		a.Embedding = v
	}
	return a, nil
}

// vectorText renders v in pgvector's input syntax.
func vectorText(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func parseVectorText(s string) ([]float32, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	v := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		v[i] = float32(f)
	}
	return v, nil
}

// List returns a page of assessments ordered by id ascending.
func (s *PostgresStore) List(ctx context.Context, f ListFilter, skip, limit int) ([]Assessment, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if len(f.JobLevels) > 0 {
		where = append(where, "job_levels && "+arg(f.JobLevels))
	}
	if len(f.TestTypes) > 0 {
		where = append(where, "test_types && "+arg(f.TestTypes))
	}
	if len(f.Languages) > 0 {
		where = append(where, "languages && "+arg(f.Languages))
	}
	if f.RemoteTesting != nil {
		where = append(where, "remote_testing = "+arg(*f.RemoteTesting))
	}

	query := "SELECT " + pgCols + " FROM assessments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC OFFSET " + arg(skip)
	if limit > 0 {
		query += " LIMIT " + arg(limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		a, err := scanPgAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get returns one assessment by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (Assessment, error) {
	row := s.db.QueryRow(ctx, "SELECT "+pgCols+" FROM assessments WHERE id = $1", id)
	a, err := scanPgAssessment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	return a, err
}

func pgWriteArgs(a Assessment) []any {
	var emb any
	if a.Embedding != nil {
		emb = vectorText(a.Embedding)
	}
	return []any{
		a.ID, a.Name, a.Description, a.URL, a.RemoteTesting, a.AdaptiveIRT,
		orEmpty(a.TestTypes), orEmpty(a.JobLevels), orEmpty(a.Languages), orEmpty(a.KeyFeatures),
		a.DurationText, a.DurationMinMinutes, a.DurationMaxMinutes,
		a.IsUntimed, a.IsVariableDuration, emb,
	}
}

const pgInsert = `INSERT INTO assessments (
	id, name, description, url, remote_testing, adaptive_irt,
	test_types, job_levels, languages, key_features,
	duration_text, duration_min_minutes, duration_max_minutes,
	is_untimed, is_variable_duration, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::vector)`

// Create inserts a new assessment, assigning an id when absent.
func (s *PostgresStore) Create(ctx context.Context, a Assessment) (Assessment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, err := s.db.Exec(ctx, pgInsert, pgWriteArgs(a)...); err != nil {
		return Assessment{}, fmt.Errorf("creating assessment: %w", err)
	}
	return a, nil
}

const pgUpdate = `UPDATE assessments SET
	name = $2, description = $3, url = $4, remote_testing = $5, adaptive_irt = $6,
	test_types = $7, job_levels = $8, languages = $9, key_features = $10,
	duration_text = $11, duration_min_minutes = $12, duration_max_minutes = $13,
	is_untimed = $14, is_variable_duration = $15, embedding = $16::vector
	WHERE id = $1`

// Update replaces the stored row, preserving the old embedding when
// the description is unchanged and no new vector was supplied.
func (s *PostgresStore) Update(ctx context.Context, a Assessment) (Assessment, error) {
	prev, err := s.Get(ctx, a.ID)
	if err != nil {
		return Assessment{}, err
	}
	if a.Embedding == nil && a.Description == prev.Description {
		a.Embedding = prev.Embedding
	}
	tag, err := s.db.Exec(ctx, pgUpdate, pgWriteArgs(a)...)
	if err != nil {
		return Assessment{}, fmt.Errorf("updating assessment %q: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return Assessment{}, ErrNotFound
	}
	return a, nil
}

// Delete removes one assessment by id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM assessments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting assessment %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const pgMatch = `SELECT ` + pgCols + `, 1 - (embedding <=> $1::vector) AS similarity
	FROM assessments
	WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1::vector) >= $2
	ORDER BY similarity DESC, id ASC
	LIMIT $3`

// Match runs the cosine search inside Postgres via pgvector.
func (s *PostgresStore) Match(ctx context.Context, embedding []float32, k int, minSim float64) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("match count must be positive, got %d", k)
	}
	rows, err := s.db.Query(ctx, pgMatch, vectorText(embedding), minSim, k)
	if err != nil {
		return nil, fmt.Errorf("matching assessments: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var (
			a   Assessment
			emb *string
			sim float64
		)
		err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.URL, &a.RemoteTesting, &a.AdaptiveIRT,
			&a.TestTypes, &a.JobLevels, &a.Languages, &a.KeyFeatures,
			&a.DurationText, &a.DurationMinMinutes, &a.DurationMaxMinutes,
			&a.IsUntimed, &a.IsVariableDuration, &emb, &sim)
		if err != nil {
			return nil, err
		}
		if emb != nil {
			if a.Embedding, err = parseVectorText(*emb); err != nil {
				return nil, fmt.Errorf("decoding embedding for %q: %w", a.ID, err)
			}
		}
		out = append(out, Match{Assessment: a, Similarity: sim})
	}
	return out, rows.Err()
}

// BatchUpsert inserts or replaces rows keyed by name, best-effort per
// row; a failed row is counted and does not abort the batch.
func (s *PostgresStore) BatchUpsert(ctx context.Context, entries []Assessment) (UpsertReport, error) {
	var report UpsertReport
	for _, a := range entries {
		if a.Name == "" {
			report.ErrorCount++
			continue
		}
		var existingID string
		err := s.db.QueryRow(ctx, "SELECT id FROM assessments WHERE name = $1", a.Name).Scan(&existingID)
		switch {
		case err == nil:
			a.ID = existingID
			if _, err = s.Update(ctx, a); err != nil {
				report.ErrorCount++
				continue
			}
		case errors.Is(err, pgx.ErrNoRows):
			if _, err = s.Create(ctx, a); err != nil {
				report.ErrorCount++
				continue
			}
		default:
			report.ErrorCount++
			continue
		}
		report.SuccessCount++
	}
	return report, nil
}

// SetEmbedding stores a new vector for one row.
func (s *PostgresStore) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	tag, err := s.db.Exec(ctx, "UPDATE assessments SET embedding = $1::vector WHERE id = $2",
		vectorText(embedding), id)
	if err != nil {
		return fmt.Errorf("storing embedding for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
