// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package region

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jalanku/jalanku/spatial"
)

// SQLRepository persists the administrative hierarchy in DuckDB.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a repository on top of an open database.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// DB returns the underlying database connection.
func (r *SQLRepository) DB() *sql.DB {
	return r.db
}

// CreateSchema creates the admin_nodes table.
func (r *SQLRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS admin_nodes (
			level TINYINT NOT NULL,
			code VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			parent_code VARCHAR,
			lat DOUBLE,
			lng DOUBLE,
			PRIMARY KEY (level, code)
		);
	`)

	return err
}

// Count returns the number of stored nodes.
func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_nodes`).Scan(&n)

	return n, err
}

// BulkInsert upserts nodes in a single transaction. progress, when not nil,
// is called after each row.
func (r *SQLRepository) BulkInsert(ctx context.Context, nodes []Node, progress func(int)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO admin_nodes(level, code, name, parent_code, lat, lng)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for i, n := range nodes {
		var parent, lat, lng any
		if n.ParentCode != "" {
			parent = n.ParentCode
		}

		if n.Centroid != nil {
			lat, lng = n.Centroid.Lat, n.Centroid.Lng
		}

		if _, err := stmt.ExecContext(ctx, int(n.Level), n.Code, n.Name, parent, lat, lng); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				return fmt.Errorf("inserting %s %s: %w (rollback: %w)", n.Level, n.Code, err, rErr)
			}

			return fmt.Errorf("inserting %s %s: %w", n.Level, n.Code, err)
		}

		if progress != nil {
			progress(i + 1)
		}
	}

	return tx.Commit()
}

// Import merges nodes with what is already stored, validates the combined
// hierarchy, and writes the new nodes. It returns the number of rows written.
func (r *SQLRepository) Import(ctx context.Context, nodes []Node, progress func(int)) (int, error) {
	existing, err := r.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading existing nodes: %w", err)
	}

	merged := make(map[levelKey]Node, len(existing)+len(nodes))
	for _, n := range existing {
		merged[levelKey{n.Level, n.Code}] = n
	}

	for _, n := range nodes {
		merged[levelKey{n.Level, n.Code}] = n
	}

	all := make([]Node, 0, len(merged))
	for _, n := range merged {
		all = append(all, n)
	}

	if _, err := NewCatalog(all); err != nil {
		return 0, fmt.Errorf("validating hierarchy: %w", err)
	}

	if err := r.BulkInsert(ctx, nodes, progress); err != nil {
		return 0, err
	}

	return len(nodes), nil
}

// All returns every node sorted by level then code.
func (r *SQLRepository) All(ctx context.Context) ([]Node, error) {
	return r.query(ctx, `
		SELECT level, code, name, parent_code, lat, lng
		FROM admin_nodes
		ORDER BY level, code
	`)
}

// ListProvinces implements Store.
func (r *SQLRepository) ListProvinces(ctx context.Context) ([]Node, error) {
	return r.query(ctx, `
		SELECT level, code, name, parent_code, lat, lng
		FROM admin_nodes
		WHERE level = ?
		ORDER BY code
	`, int(LevelProvince))
}

// ListRegencies implements Store.
func (r *SQLRepository) ListRegencies(ctx context.Context, provinceCode string) ([]Node, error) {
	return r.children(ctx, LevelRegency, provinceCode)
}

// ListDistricts implements Store.
func (r *SQLRepository) ListDistricts(ctx context.Context, regencyCode string) ([]Node, error) {
	return r.children(ctx, LevelDistrict, regencyCode)
}

func (r *SQLRepository) children(ctx context.Context, level Level, parentCode string) ([]Node, error) {
	return r.query(ctx, `
		SELECT level, code, name, parent_code, lat, lng
		FROM admin_nodes
		WHERE level = ? AND parent_code = ?
		ORDER BY code
	`, int(level), parentCode)
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) ([]Node, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node

	for rows.Next() {
		var (
			n        Node
			level    int
			parent   sql.NullString
			lat, lng sql.NullFloat64
		)

		if err := rows.Scan(&level, &n.Code, &n.Name, &parent, &lat, &lng); err != nil {
			return nil, err
		}

		n.Level = Level(level)
		n.ParentCode = parent.String

		if lat.Valid && lng.Valid {
			n.Centroid = &spatial.Point{Lat: lat.Float64, Lng: lng.Float64}
		}

		nodes = append(nodes, n)
	}

	return nodes, rows.Err()
}
