package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fieldwork/internal/domain"
)

// PolicyRepository
func (db *DB) CreateDraft(ctx context.Context, orgID string) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO compliance_policies (org_id, status)
        VALUES ($1, 'draft')
        RETURNING id
    `, orgID).Scan(&id)
	return id, err
}

func (db *DB) InsertItem(ctx context.Context, item domain.PolicyItem) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO compliance_policy_items (policy_id, requirement_id, required, weight, min_valid_days)
        VALUES ($1, $2, $3, $4, $5)
    `, item.PolicyID, item.RequirementID, item.Required, item.Weight, item.MinValidDays)
	return err
}

func (db *DB) AttachJob(ctx context.Context, policyID, jobID string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `UPDATE compliance_policies SET job_id = $2 WHERE id = $1`, policyID, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (db *DB) GetPolicy(ctx context.Context, policyID string) (domain.Policy, error) {
	var p domain.Policy
	err := db.Pool.QueryRow(ctx, `
        SELECT id, org_id, status, job_id FROM compliance_policies WHERE id = $1
    `, policyID).Scan(&p.ID, &p.OrgID, &p.Status, &p.JobID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Policy{}, &domain.NotFoundError{Kind: "policy", ID: policyID}
	}
	return p, err
}

// ItemsForPolicy returns a policy's items joined with their requirement's type
// and enforcement. The stable ordering here backs the evaluator's determinism
// guarantee.
func (db *DB) ItemsForPolicy(ctx context.Context, policyID string) ([]domain.PolicyItem, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT i.policy_id, i.requirement_id, r.requirement_type, i.required, i.weight, i.min_valid_days, r.enforcement
        FROM compliance_policy_items i
        JOIN compliance_requirements r ON r.id = i.requirement_id
        WHERE i.policy_id = $1
        ORDER BY r.requirement_type, r.id
    `, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.PolicyItem
	for rows.Next() {
		var it domain.PolicyItem
		if err := rows.Scan(&it.PolicyID, &it.RequirementID, &it.RequirementType, &it.Required, &it.Weight, &it.MinValidDays, &it.Enforcement); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
