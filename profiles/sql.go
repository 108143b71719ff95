package profiles

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tsingjyujing/langid/utils"
)

//go:embed schema.sql
var ddl string

// GetDDL returns the schema of the samples database.
func GetDDL() string {
	return ddl
}

// SQLSource serves samples stored in a database.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource creates the samples table when missing.
func NewSQLSource(ctx context.Context, db *sql.DB) (*SQLSource, error) {
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create samples schema: %w", err)
	}
	return &SQLSource{db: db}, nil
}

func (s *SQLSource) Sample(ctx context.Context, code string) (io.ReadCloser, error) {
	var text string
	err := s.db.QueryRowContext(ctx, "SELECT sample FROM language_sample WHERE code = ?", code).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSampleNotFound, code)
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

// Import stores or replaces the samples of several languages atomically.
func (s *SQLSource) Import(ctx context.Context, samples map[string]string) (int, error) {
	return utils.WithTx(ctx, s.db, nil, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO language_sample (code, sample, updated_at)
			VALUES (?, ?, strftime('%s', 'now'))
			ON CONFLICT (code) DO UPDATE SET sample = excluded.sample, updated_at = excluded.updated_at
		`)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		for code, text := range samples {
			if strings.TrimSpace(code) == "" {
				return 0, errors.New("empty language code")
			}
			if _, err := stmt.ExecContext(ctx, code, text); err != nil {
				return 0, fmt.Errorf("import sample %q: %w", code, err)
			}
		}
		return len(samples), nil
	})
}

// Codes lists the languages stored in the database.
func (s *SQLSource) Codes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT code FROM language_sample ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
