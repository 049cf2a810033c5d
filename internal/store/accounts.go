package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateAccount inserts a new account and returns its id.
func (s *Store) CreateAccount(ctx context.Context, id, label string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, label) VALUES (?, ?)`, id, label)
	if err != nil {
		return "", fmt.Errorf("inserting account: %w", err)
	}
	return id, nil
}

// AccountLabels returns a map from account id to display label for the given
// ids. Unknown ids are simply absent from the result.
func (s *Store) AccountLabels(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label FROM accounts WHERE id IN (`+inPlaceholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying account labels: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, len(ids))
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, err
		}
		out[id] = label
	}
	return out, rows.Err()
}

// GrantShare records an owner→grantee share grant for a scope. approved=false
// rows model pending requests; the resolver only reads approved ones.
func (s *Store) GrantShare(ctx context.Context, ownerID, granteeID, scope string, approved bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO share_grants (id, owner_id, grantee_id, scope, approved)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, grantee_id, scope) DO UPDATE SET approved = excluded.approved`,
		uuid.NewString(), ownerID, granteeID, scope, boolInt(approved))
	if err != nil {
		return fmt.Errorf("recording share grant: %w", err)
	}
	return nil
}

// ApprovedOwnerIDs returns the owners that have an approved share grant
// toward granteeID for the given scope ("calendar" or "todo"). The grantee
// itself is not included.
func (s *Store) ApprovedOwnerIDs(ctx context.Context, granteeID, scope string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id FROM share_grants
		WHERE grantee_id = ? AND scope = ? AND approved = 1
		ORDER BY owner_id`, granteeID, scope)
	if err != nil {
		return nil, fmt.Errorf("querying share grants: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
