package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fieldwork/internal/domain"
)

// TenantResolver

// ResolveOrg returns the organization a principal belongs to. No fallback: a
// principal without a membership is an error, never a default org.
func (db *DB) ResolveOrg(ctx context.Context, principal string) (string, error) {
	if principal == "" {
		return "", &domain.ValidationError{Field: "principal", Message: "must not be empty"}
	}
	var orgID string
	err := db.Pool.QueryRow(ctx, `
        SELECT org_id FROM org_memberships WHERE user_id = $1 ORDER BY created_at LIMIT 1
    `, principal).Scan(&orgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", &domain.NotFoundError{Kind: "org membership for user", ID: principal}
	}
	return orgID, err
}
