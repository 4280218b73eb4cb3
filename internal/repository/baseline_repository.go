package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/godilite/victim-dashboards/internal/repository/models"
)

// BaselineSchema creates the table read by BaselineRepository.
const BaselineSchema = `
	CREATE TABLE IF NOT EXISTS baseline_populations (
		dashboard TEXT NOT NULL,
		bucket    TEXT NOT NULL,
		count     REAL NOT NULL CHECK (count >= 0),
		PRIMARY KEY (dashboard, bucket)
	);
`

// BaselineRepository stores reference population counts per dashboard, overriding
// the counts of the dashboards file when present.
type BaselineRepository struct {
	db *sql.DB
}

func NewBaselineRepository(db *sql.DB) *BaselineRepository {
	return &BaselineRepository{db: db}
}

// GetBaseline returns the counts of a dashboard keyed by bucket. A dashboard
// with no rows yields an empty map.
func (s *BaselineRepository) GetBaseline(ctx context.Context, dashboard string) (map[string]float64, error) {
	const query = `
		SELECT bucket, count
		FROM baseline_populations
		WHERE dashboard = ?
		ORDER BY bucket
	`

	rows, err := s.db.QueryContext(ctx, query, dashboard)
	if err != nil {
		return nil, fmt.Errorf("query GetBaseline: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var r models.BaselineRow
		if err := rows.Scan(&r.Bucket, &r.Count); err != nil {
			return nil, fmt.Errorf("scan GetBaseline: %w", err)
		}
		out[r.Bucket] = r.Count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows GetBaseline: %w", err)
	}
	return out, nil
}

// ReplaceBaseline swaps every count of a dashboard in one transaction.
func (s *BaselineRepository) ReplaceBaseline(ctx context.Context, dashboard string, counts map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ReplaceBaseline: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_populations WHERE dashboard = ?`, dashboard); err != nil {
		return fmt.Errorf("delete ReplaceBaseline: %w", err)
	}
	for bucket, count := range counts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO baseline_populations (dashboard, bucket, count) VALUES (?, ?, ?)`,
			dashboard, bucket, count); err != nil {
			return fmt.Errorf("insert ReplaceBaseline %q: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ReplaceBaseline: %w", err)
	}
	return nil
}
