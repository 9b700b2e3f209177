package postgres

import (
	"context"

	"fieldwork/internal/domain"
)

// TechnicianRepository
func (db *DB) FactsFor(ctx context.Context, technicianIDs []string) (map[string]domain.TechnicianFacts, error) {
	if len(technicianIDs) == 0 {
		return map[string]domain.TechnicianFacts{}, nil
	}
	rows, err := db.Pool.Query(ctx, `
        SELECT id, COALESCE(coi_state, 'missing'), coi_valid_until,
               COALESCE(license_status, 'unverified'), COALESCE(license_state, ''), average_rating
        FROM technicians
        WHERE id = ANY($1)
    `, technicianIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.TechnicianFacts, len(technicianIDs))
	for rows.Next() {
		var f domain.TechnicianFacts
		if err := rows.Scan(&f.TechnicianID, &f.COIState, &f.COIValidUntil, &f.LicenseStatus, &f.LicenseState, &f.AverageRating); err != nil {
			return nil, err
		}
		out[f.TechnicianID] = f
	}
	return out, rows.Err()
}
