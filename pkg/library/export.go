package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
)

// ExportedLibrary is the serializable representation of the whole snippet
// library, used for JSON-based backup and transfer.
type ExportedLibrary struct {
	Snippets []ExportedSnippet `json:"snippets"`
}

// ExportedSnippet is the serializable representation of a single snippet.
// IDs are not exported; they are reassigned on import.
type ExportedSnippet struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Tags    string `json:"tags"`
	Created int64  `json:"created_at"`
}

// Export serializes every snippet in the store to JSON and writes it to the
// provided io.Writer.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	all, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list snippets for export: %w", err)
	}

	exported := ExportedLibrary{Snippets: make([]ExportedSnippet, 0, len(all))}
	for _, sn := range all {
		exported.Snippets = append(exported.Snippets, ExportedSnippet{
			Name:    sn.Name,
			Content: sn.Content,
			Tags:    sn.Tags,
			Created: sn.Created.Unix(),
		})
	}

	s.logger.InfoContext(ctx, "Library exported", "snippets", len(exported.Snippets))

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// Import reads a JSON library from an io.Reader and merges it into the
// store. Snippets whose names already exist are overwritten. The whole
// operation is transactional.
func (s *Store) Import(ctx context.Context, r io.Reader) error {
	var imported ExportedLibrary
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return fmt.Errorf("failed to decode json library: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmtSave := tx.StmtContext(ctx, s.stmtSave)
	for _, sn := range imported.Snippets {
		if sn.Name == "" {
			return fmt.Errorf("import contains a snippet with an empty name")
		}
		if _, err := stmtSave.ExecContext(ctx, sn.Name, sn.Content, sn.Tags, sn.Created); err != nil {
			return fmt.Errorf("failed to import snippet %q: %w", sn.Name, err)
		}
	}

	s.logger.InfoContext(ctx, "Library imported", "snippets", len(imported.Snippets))
	return tx.Commit()
}
