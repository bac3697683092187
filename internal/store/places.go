package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"places-api/internal/logger"
)

const placeCols = "id, COALESCE(name, ''), COALESCE(category, ''), COALESCE(address, '')"

// ReplaceAll: delete every row, then insert places in the given order, all in one transaction.
// Constraint: the id counter is not reset; new ids continue after the highest id ever issued.
// On failure the transaction is rolled back and the previous content stays visible.
func (s *Store) ReplaceAll(ctx context.Context, places []Place) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistErr("replace_begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM places")
	if err != nil {
		return 0, persistErr("replace_delete", err)
	}
	deleted, _ := res.RowsAffected()

	stmt, err := tx.PrepareContext(ctx, s.rebind("INSERT INTO places(name, category, address) VALUES(?, ?, ?)"))
	if err != nil {
		return 0, persistErr("replace_prepare", err)
	}
	defer stmt.Close()
	for _, p := range places {
		if _, err := stmt.ExecContext(ctx, p.Name, p.Category, p.Address); err != nil {
			return 0, persistErr("replace_insert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, persistErr("replace_commit", err)
	}
	logger.L().Debug("store_replace_all", "deleted", deleted, "inserted", len(places))
	return len(places), nil
}

// Insert persists p verbatim and returns the assigned id.
func (s *Store) Insert(ctx context.Context, p Place) (int64, error) {
	var id int64
	err := s.queryRow(ctx, "INSERT INTO places(name, category, address) VALUES(?, ?, ?) RETURNING id",
		p.Name, p.Category, p.Address).Scan(&id)
	if err != nil {
		return 0, persistErr("insert", err)
	}
	logger.L().Debug("store_insert", "id", id, "name", p.Name)
	return id, nil
}

// ListAll returns every row in insertion order; an empty store yields an empty slice.
func (s *Store) ListAll(ctx context.Context) ([]Place, error) {
	rows, err := s.query(ctx, "SELECT "+placeCols+" FROM places ORDER BY id")
	if err != nil {
		return nil, persistErr("list_all", err)
	}
	return scanPlaces(rows, "list_all")
}

// FindByName: address of the first row whose name matches exactly.
func (s *Store) FindByName(ctx context.Context, name string) (string, error) {
	var addr string
	err := s.queryRow(ctx, "SELECT COALESCE(address, '') FROM places WHERE name = ? ORDER BY id LIMIT 1", name).Scan(&addr)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", persistErr("find_by_name", err)
	}
	return addr, nil
}

// FindByAddress: name of the first row whose address matches exactly.
func (s *Store) FindByAddress(ctx context.Context, address string) (string, error) {
	var name string
	err := s.queryRow(ctx, "SELECT COALESCE(name, '') FROM places WHERE address = ? ORDER BY id LIMIT 1", address).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", persistErr("find_by_address", err)
	}
	return name, nil
}

// ListByCategorySubstring: case-insensitive substring match against the raw comma-joined category
// string, in storage order. Folding happens here rather than in SQL: SQLite LOWER() only folds ASCII,
// so Cyrillic categories would never match.
func (s *Store) ListByCategorySubstring(ctx context.Context, token string) ([]Place, error) {
	rows, err := s.query(ctx, "SELECT "+placeCols+" FROM places ORDER BY id")
	if err != nil {
		return nil, persistErr("list_by_category", err)
	}
	all, err := scanPlaces(rows, "list_by_category")
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(token)
	out := []Place{}
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Category), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateAddressByName changes the address of the first row named name only, even when the name is
// shared. Returns the number of rows touched (0 or 1).
func (s *Store) UpdateAddressByName(ctx context.Context, name, address string) (int64, error) {
	res, err := s.exec(ctx, "UPDATE places SET address = ? WHERE id = (SELECT id FROM places WHERE name = ? ORDER BY id LIMIT 1)", address, name)
	if err != nil {
		return 0, persistErr("update_address", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistErr("update_address", err)
	}
	return n, nil
}

// DeleteByName removes the first row named name; reports whether one was removed.
func (s *Store) DeleteByName(ctx context.Context, name string) (bool, error) {
	res, err := s.exec(ctx, "DELETE FROM places WHERE id = (SELECT id FROM places WHERE name = ? ORDER BY id LIMIT 1)", name)
	if err != nil {
		return false, persistErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr("delete", err)
	}
	return n > 0, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.queryRow(ctx, "SELECT COUNT(1) FROM places").Scan(&n); err != nil {
		return 0, persistErr("count", err)
	}
	return n, nil
}

func scanPlaces(rows *sql.Rows, op string) ([]Place, error) {
	defer rows.Close()
	out := []Place{}
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Address); err != nil {
			return nil, persistErr(op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr(op, err)
	}
	return out, nil
}
