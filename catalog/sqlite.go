package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hirestack/assessrec/vec"
)

// SQLiteStore is a Store backed by an embedded SQLite database. List
// columns are stored as JSON text and embeddings as float32 blobs.
// Similarity search loads embedded rows and scans in process, which
// a catalog of this size never notices.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	remote_testing INTEGER NOT NULL DEFAULT 0,
	adaptive_irt INTEGER NOT NULL DEFAULT 0,
	test_types TEXT NOT NULL DEFAULT '[]',
	job_levels TEXT NOT NULL DEFAULT '[]',
	languages TEXT NOT NULL DEFAULT '[]',
	key_features TEXT NOT NULL DEFAULT '[]',
	duration_text TEXT NOT NULL DEFAULT '',
	duration_min_minutes INTEGER,
	duration_max_minutes INTEGER,
	is_untimed INTEGER NOT NULL DEFAULT 0,
	is_variable_duration INTEGER NOT NULL DEFAULT 0,
	embedding BLOB
);`

// NewSQLiteStore opens (and migrates) the database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite catalog: %w", err)
	}
	// A single writer keeps row swaps atomic without busy retries.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite catalog: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

const sqliteCols = `id, name, description, url, remote_testing, adaptive_irt,
	test_types, job_levels, languages, key_features,
	duration_text, duration_min_minutes, duration_max_minutes,
	is_untimed, is_variable_duration, embedding`

func scanAssessment(row interface{ Scan(...any) error }) (Assessment, error) {
	var (
		a                    Assessment
		tt, jl, lang, kf     string
		minMin, maxMin       sql.NullInt64
		emb                  []byte
	)
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.URL, &a.RemoteTesting, &a.AdaptiveIRT,
		&tt, &jl, &lang, &kf,
		&a.DurationText, &minMin, &maxMin,
		&a.IsUntimed, &a.IsVariableDuration, &emb)
	if err != nil {
		return Assessment{}, err
	}
	for dst, src := range map[*[]string]string{
		&a.TestTypes: tt, &a.JobLevels: jl, &a.Languages: lang, &a.KeyFeatures: kf,
	} {
		if err := json.Unmarshal([]byte(src), dst); err != nil {
			return Assessment{}, fmt.Errorf("decoding list column for %q: %w", a.ID, err)
		}
	}
	if minMin.Valid {
		v := int(minMin.Int64)
		a.DurationMinMinutes = &v
	}
	if maxMin.Valid {
		v := int(maxMin.Int64)
		a.DurationMaxMinutes = &v
	}
	if len(emb) > 0 {
		v, err := vec.Decode(emb)
		if err != nil {
			return Assessment{}, fmt.Errorf("decoding embedding for %q: %w", a.ID, err)
		}
		a.Embedding = v
	}
	return a, nil
}

func sqliteArgs(a Assessment) ([]any, error) {
	lists := make([]string, 4)
	for i, src := range [][]string{a.TestTypes, a.JobLevels, a.Languages, a.KeyFeatures} {
		b, err := json.Marshal(orEmpty(src))
		if err != nil {
			return nil, err
		}
		lists[i] = string(b)
	}
	var emb []byte
	if a.Embedding != nil {
		emb = vec.Encode(a.Embedding)
	}
	return []any{
		a.ID, a.Name, a.Description, a.URL, a.RemoteTesting, a.AdaptiveIRT,
		lists[0], lists[1], lists[2], lists[3],
		a.DurationText, nullInt(a.DurationMinMinutes), nullInt(a.DurationMaxMinutes),
		a.IsUntimed, a.IsVariableDuration, emb,
	}, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// List returns a page of assessments ordered by id ascending. The
// list-membership axes are applied in process after the scan; the
// boolean axis is pushed into SQL.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter, skip, limit int) ([]Assessment, error) {
	query := "SELECT " + sqliteCols + " FROM assessments"
	var args []any
	if f.RemoteTesting != nil {
		query += " WHERE remote_testing = ?"
		args = append(args, *f.RemoteTesting)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		if matchesListFilter(a, f) {
			out = append(out, a)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Get returns one assessment by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Assessment, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteCols+" FROM assessments WHERE id = ?", id)
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	return a, err
}

const sqliteInsert = `INSERT INTO assessments (` + sqliteCols + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Create inserts a new assessment, assigning an id when absent.
func (s *SQLiteStore) Create(ctx context.Context, a Assessment) (Assessment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	args, err := sqliteArgs(a)
	if err != nil {
		return Assessment{}, err
	}
	if _, err := s.db.ExecContext(ctx, sqliteInsert, args...); err != nil {
		return Assessment{}, fmt.Errorf("creating assessment: %w", err)
	}
	return a, nil
}

// Update replaces the stored row in one statement, preserving the old
// embedding when the description is unchanged and no new vector was
// supplied.
func (s *SQLiteStore) Update(ctx context.Context, a Assessment) (Assessment, error) {
	prev, err := s.Get(ctx, a.ID)
	if err != nil {
		return Assessment{}, err
	}
	if a.Embedding == nil && a.Description == prev.Description {
		a.Embedding = prev.Embedding
	}
	args, err := sqliteArgs(a)
	if err != nil {
		return Assessment{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE assessments SET
		name = ?2, description = ?3, url = ?4, remote_testing = ?5, adaptive_irt = ?6,
		test_types = ?7, job_levels = ?8, languages = ?9, key_features = ?10,
		duration_text = ?11, duration_min_minutes = ?12, duration_max_minutes = ?13,
		is_untimed = ?14, is_variable_duration = ?15, embedding = ?16
		WHERE id = ?1`, args...)
	if err != nil {
		return Assessment{}, fmt.Errorf("updating assessment %q: %w", a.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Assessment{}, ErrNotFound
	}
	return a, nil
}

// Delete removes one assessment by id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM assessments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting assessment %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Match scans every embedded row and returns the top k by cosine
// similarity above minSim, ties broken by id ascending.
func (s *SQLiteStore) Match(ctx context.Context, embedding []float32, k int, minSim float64) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("match count must be positive, got %d", k)
	}
	q := vec.Normalize(append([]float32(nil), embedding...))

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteCols+" FROM assessments WHERE embedding IS NOT NULL ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("matching assessments: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		sim, err := vec.Cosine(q, a.Embedding)
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", a.ID, err)
		}
		if sim >= minSim {
			out = append(out, Match{Assessment: a, Similarity: sim})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// BatchUpsert inserts or replaces rows keyed by name, best-effort per
// row; a failed row is counted and does not abort the batch.
func (s *SQLiteStore) BatchUpsert(ctx context.Context, entries []Assessment) (UpsertReport, error) {
	var report UpsertReport
	for _, a := range entries {
		if a.Name == "" {
			report.ErrorCount++
			continue
		}
		var existingID string
		err := s.db.QueryRowContext(ctx, "SELECT id FROM assessments WHERE name = ?", a.Name).Scan(&existingID)
		switch {
		case err == nil:
			a.ID = existingID
			if _, err = s.Update(ctx, a); err != nil {
				report.ErrorCount++
				continue
			}
		case errors.Is(err, sql.ErrNoRows):
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
func (s *SQLiteStore) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	res, err := s.db.ExecContext(ctx, "UPDATE assessments SET embedding = ? WHERE id = ?",
		vec.Encode(embedding), id)
	if err != nil {
		return fmt.Errorf("storing embedding for %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
