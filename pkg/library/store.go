package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// ErrNotFound is returned when a snippet name does not exist in the store.
var ErrNotFound = errors.New("snippet not found")

// Snippet is one stored template fragment.
type Snippet struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Content string    `json:"content"`
	Tags    string    `json:"tags"` // space-separated
	Created time.Time `json:"created"`
}

// Match reports whether the filter text occurs in the snippet's content or
// tags. Matching is case-sensitive.
func (s Snippet) Match(filter string) bool {
	return strings.Contains(s.Content, filter) || strings.Contains(s.Tags, filter)
}

// SetupSchema initializes the snippet table in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS library_snippets (
    snippet_id   INTEGER PRIMARY KEY,
    snippet_name TEXT    NOT NULL UNIQUE,
    content      TEXT    NOT NULL,
    tags         TEXT    NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("could not create library schema: %w", err)
	}
	return nil
}

// Store holds the database connection and prepared statements for snippet
// access. All methods are safe for concurrent use.
type Store struct {
	db         *sql.DB
	stmtGet    *sql.Stmt
	stmtList   *sql.Stmt
	stmtSave   *sql.Stmt
	stmtTags   *sql.Stmt
	stmtDelete *sql.Stmt
	logger     *slog.Logger
}

// NewStore creates and returns a new Store, pre-compiling all SQL statements
// it needs. The schema must already exist (see SetupSchema).
func NewStore(db *sql.DB) (*Store, error) {
	stmtGet, err := db.Prepare(`SELECT snippet_id, snippet_name, content, tags, created_at FROM library_snippets WHERE snippet_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtList, err := db.Prepare(`SELECT snippet_id, snippet_name, content, tags, created_at FROM library_snippets ORDER BY snippet_name;`)
	if err != nil {
		return nil, err
	}

	stmtSave, err := db.Prepare(`
		INSERT INTO library_snippets (snippet_name, content, tags, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(snippet_name) DO UPDATE SET content = excluded.content, tags = excluded.tags;`)
	if err != nil {
		return nil, err
	}

	stmtTags, err := db.Prepare(`UPDATE library_snippets SET tags = ? WHERE snippet_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtDelete, err := db.Prepare(`DELETE FROM library_snippets WHERE snippet_name = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:         db,
		stmtGet:    stmtGet,
		stmtList:   stmtList,
		stmtSave:   stmtSave,
		stmtTags:   stmtTags,
		stmtDelete: stmtDelete,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Close releases all prepared SQL statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGet.Close()
	_ = s.stmtList.Close()
	_ = s.stmtSave.Close()
	_ = s.stmtTags.Close()
	_ = s.stmtDelete.Close()
}

// Save inserts a snippet, or replaces the content and tags of an existing
// snippet with the same name. The creation timestamp of an existing snippet
// is preserved.
func (s *Store) Save(ctx context.Context, name, content, tags string) error {
	if name == "" {
		return errors.New("snippet name must not be empty")
	}
	_, err := s.stmtSave.ExecContext(ctx, name, content, tags, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save snippet %q: %w", name, err)
	}
	s.logger.DebugContext(ctx, "Snippet saved", "name", name, "bytes", len(content))
	return nil
}

// Get returns the snippet with the given name, or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (Snippet, error) {
	var sn Snippet
	var created int64
	err := s.stmtGet.QueryRowContext(ctx, name).Scan(&sn.ID, &sn.Name, &sn.Content, &sn.Tags, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Snippet{}, fmt.Errorf("snippet %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Snippet{}, err
	}
	sn.Created = time.Unix(created, 0)
	return sn, nil
}

// List returns every snippet in the store ordered by name.
func (s *Store) List(ctx context.Context) ([]Snippet, error) {
	rows, err := s.stmtList.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	return scanSnippets(rows)
}

// Search returns the snippets whose content or tags contain the filter text.
// An empty filter matches everything.
func (s *Store) Search(ctx context.Context, filter string) ([]Snippet, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]Snippet, 0, len(all))
	for _, sn := range all {
		if sn.Match(filter) {
			matched = append(matched, sn)
		}
	}
	return matched, nil
}

// SetTags replaces the tags of an existing snippet.
func (s *Store) SetTags(ctx context.Context, name, tags string) error {
	res, err := s.stmtTags.ExecContext(ctx, tags, name)
	if err != nil {
		return fmt.Errorf("failed to update tags for %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("snippet %q: %w", name, ErrNotFound)
	}
	return nil
}

// Delete removes a snippet by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.stmtDelete.ExecContext(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to delete snippet %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("snippet %q: %w", name, ErrNotFound)
	}
	s.logger.InfoContext(ctx, "Snippet deleted", "name", name)
	return nil
}

// Resolve implements directive.Resolver: include arguments in templates
// rendered through the library resolve to stored snippet content.
func (s *Store) Resolve(name string) ([]byte, error) {
	sn, err := s.Get(context.Background(), name)
	if err != nil {
		return nil, err
	}
	return []byte(sn.Content), nil
}

func scanSnippets(rows *sql.Rows) ([]Snippet, error) {
	var out []Snippet
	for rows.Next() {
		var sn Snippet
		var created int64
		if err := rows.Scan(&sn.ID, &sn.Name, &sn.Content, &sn.Tags, &created); err != nil {
			return nil, err
		}
		sn.Created = time.Unix(created, 0)
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
