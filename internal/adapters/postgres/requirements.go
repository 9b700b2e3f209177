package postgres

import (
	"context"
	"strings"

	"fieldwork/internal/domain"
)

// RequirementRepository
func (db *DB) UpsertRequirement(ctx context.Context, orgID, requirementType string, weight float64, minValidDays int) (domain.Requirement, error) {
	requirementType = strings.ToUpper(requirementType)
	var req domain.Requirement
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO compliance_requirements (org_id, requirement_type, weight, min_valid_days, enforcement)
        VALUES ($1, $2, $3, $4, 'ENABLED')
        ON CONFLICT (org_id, requirement_type)
        DO UPDATE SET weight = EXCLUDED.weight, min_valid_days = EXCLUDED.min_valid_days
        RETURNING id, org_id, requirement_type, weight, min_valid_days, enforcement
    `, orgID, requirementType, weight, minValidDays).
		Scan(&req.ID, &req.OrgID, &req.Type, &req.Weight, &req.MinValidDays, &req.Enforcement)
	return req, err
}
