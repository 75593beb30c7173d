package secrets

import (
	"context"
	"database/sql"
	"strings"

	"github.com/credstore/credstore/internal/db"
	cserrors "github.com/credstore/credstore/internal/errors"
)

const secretColumns = "id, principal_id, name, key_name, encrypted_value, category, profile, created_at, updated_at"

// Store runs the SQL for the secrets table against whatever Querier the
// caller hands in. It holds no connection of its own.
type Store struct {
	dialect db.Dialect
}

// NewStore creates a store for the given dialect.
func NewStore(dialect db.Dialect) *Store {
	return &Store{dialect: dialect}
}

func (s *Store) rebind(query string) string {
	return db.Rebind(s.dialect, query)
}

func scanSecret(row interface{ Scan(dest ...interface{}) error }) (*Secret, error) {
	var sec Secret
	err := row.Scan(
		&sec.ID, &sec.PrincipalID, &sec.Name, &sec.Key, &sec.EncryptedValue,
		&sec.Category, &sec.Profile, &sec.CreatedAt, &sec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

// Insert persists a new secret row.
func (s *Store) Insert(ctx context.Context, q db.Querier, sec *Secret) error {
	query := s.rebind(`INSERT INTO secrets (` + secretColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := q.ExecContext(ctx, query,
		sec.ID, sec.PrincipalID, sec.Name, sec.Key, sec.EncryptedValue,
		sec.Category, sec.Profile, sec.CreatedAt, sec.UpdatedAt,
	)
	if err != nil {
		return cserrors.StoreError{Op: "insert secret", Err: err}
	}
	return nil
}

// GetByID returns the secret for (principal, id), or nil when absent.
func (s *Store) GetByID(ctx context.Context, q db.Querier, principalID, id string) (*Secret, error) {
	query := s.rebind(`SELECT ` + secretColumns + ` FROM secrets WHERE id = ? AND principal_id = ?`)
	sec, err := scanSecret(q.QueryRowContext(ctx, query, id, principalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, cserrors.StoreError{Op: "get secret", Err: err}
	}
	return sec, nil
}

// FindByNameProfile returns the secret matching the upsert natural key
// (principal, name, profile), or nil when absent.
func (s *Store) FindByNameProfile(ctx context.Context, q db.Querier, principalID, name string, profile Profile) (*Secret, error) {
	query := s.rebind(`SELECT ` + secretColumns + ` FROM secrets WHERE principal_id = ? AND name = ? AND profile = ?`)
	sec, err := scanSecret(q.QueryRowContext(ctx, query, principalID, name, profile))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, cserrors.StoreError{Op: "find secret by name", Err: err}
	}
	return sec, nil
}

// FindByKeyProfile returns the secret matching a credential key scoped to
// (principal, profile), or nil when absent. This is the store-backed
// loader's lookup.
func (s *Store) FindByKeyProfile(ctx context.Context, q db.Querier, principalID, key string, profile Profile) (*Secret, error) {
	query := s.rebind(`SELECT ` + secretColumns + ` FROM secrets WHERE principal_id = ? AND key_name = ? AND profile = ?`)
	sec, err := scanSecret(q.QueryRowContext(ctx, query, principalID, key, profile))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, cserrors.StoreError{Op: "find secret by key", Err: err}
	}
	return sec, nil
}

// NameInUse reports whether another secret already claims (principal, name,
// profile). excludeID skips the row being updated; pass "" on create.
func (s *Store) NameInUse(ctx context.Context, q db.Querier, principalID, name string, profile Profile, excludeID string) (bool, error) {
	query := `SELECT COUNT(1) FROM secrets WHERE principal_id = ? AND name = ? AND profile = ?`
	args := []interface{}{principalID, name, profile}
	if excludeID != "" {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}

	var count int
	if err := q.QueryRowContext(ctx, s.rebind(query), args...).Scan(&count); err != nil {
		return false, cserrors.StoreError{Op: "check name uniqueness", Err: err}
	}
	return count > 0, nil
}

// List returns the principal's secrets, newest created first, narrowed by
// the filter.
func (s *Store) List(ctx context.Context, q db.Querier, principalID string, f Filter) ([]Secret, error) {
	query := `SELECT ` + secretColumns + ` FROM secrets WHERE principal_id = ?`
	args := []interface{}{principalID}

	if f.Category != nil {
		query += ` AND category = ?`
		args = append(args, *f.Category)
	}
	if f.Profile != nil {
		query += ` AND profile = ?`
		args = append(args, *f.Profile)
	}
	if f.Search != "" {
		query += ` AND (LOWER(name) LIKE ? OR LOWER(key_name) LIKE ?)`
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, cserrors.StoreError{Op: "list secrets", Err: err}
	}
	defer rows.Close()

	var out []Secret
	for rows.Next() {
		sec, err := scanSecret(rows)
		if err != nil {
			return nil, cserrors.StoreError{Op: "scan secret", Err: err}
		}
		out = append(out, *sec)
	}
	if err := rows.Err(); err != nil {
		return nil, cserrors.StoreError{Op: "list secrets", Err: err}
	}
	return out, nil
}

// Update rewrites every mutable column of the row.
func (s *Store) Update(ctx context.Context, q db.Querier, sec *Secret) error {
	query := s.rebind(`UPDATE secrets SET name = ?, key_name = ?, encrypted_value = ?, category = ?, profile = ?, updated_at = ? WHERE id = ? AND principal_id = ?`)
	_, err := q.ExecContext(ctx, query,
		sec.Name, sec.Key, sec.EncryptedValue, sec.Category, sec.Profile,
		sec.UpdatedAt, sec.ID, sec.PrincipalID,
	)
	if err != nil {
		return cserrors.StoreError{Op: "update secret", Err: err}
	}
	return nil
}

// Delete removes the row for (principal, id).
func (s *Store) Delete(ctx context.Context, q db.Querier, principalID, id string) error {
	query := s.rebind(`DELETE FROM secrets WHERE id = ? AND principal_id = ?`)
	if _, err := q.ExecContext(ctx, query, id, principalID); err != nil {
		return cserrors.StoreError{Op: "delete secret", Err: err}
	}
	return nil
}
