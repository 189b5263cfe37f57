package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a full-text query against the complaints table using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := "c.fts @@ plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2
	if q.FilterStatus != "" {
		where += fmt.Sprintf(" AND c.status = $%d", argN)
		args = append(args, q.FilterStatus)
		argN++
	}
	if q.FilterCategory != "" {
		where += fmt.Sprintf(" AND c.category = $%d", argN)
		args = append(args, q.FilterCategory)
		argN++
	}

	ctx := context.Background()

	var total int
	countSQL := "SELECT count(*) FROM complaints c WHERE " + where
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT c.id, c.code, c.title,
			ts_headline('english', c.description, plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			c.category, c.location, c.status
		FROM complaints c
		WHERE %s
		ORDER BY ts_rank(c.fts, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Code, &r.Title, &r.Snippet, &r.Category, &r.Location, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all complaints for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ComplaintRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, code, title, description, category, location, status
		FROM complaints
	`)
	if err != nil {
		return nil, fmt.Errorf("load complaints: %w", err)
	}
	defer rows.Close()

	records := make([]ComplaintRecord, 0)
	for rows.Next() {
		var r ComplaintRecord
		if err := rows.Scan(&r.ID, &r.Code, &r.Title, &r.Description, &r.Category, &r.Location, &r.Status); err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaints: %w", err)
	}
	return records, nil
}
