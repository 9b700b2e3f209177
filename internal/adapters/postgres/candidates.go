package postgres

import (
	"context"

	"fieldwork/internal/domain"
)

// CandidateRepository

// RunMatch invokes the find_matching_technicians procedure, which repopulates
// job_candidates for the job. The procedure is a black box to this adapter;
// results are read back with ListForJob.
func (db *DB) RunMatch(ctx context.Context, jobID string, loc domain.GeoPoint, trade, state string, maxDistanceM float64) error {
	_, err := db.Pool.Exec(ctx, `
        SELECT find_matching_technicians($1, $2, $3, $4, $5, $6)
    `, jobID, loc.Lat, loc.Lng, trade, state, maxDistanceM)
	return err
}

func (db *DB) ListForJob(ctx context.Context, jobID string) ([]domain.CandidateMatch, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT technician_id, distance_m, duration_sec
        FROM job_candidates
        WHERE job_id = $1
        ORDER BY distance_m ASC NULLS LAST, technician_id
    `, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CandidateMatch
	for rows.Next() {
		var c domain.CandidateMatch
		if err := rows.Scan(&c.TechnicianID, &c.DistanceM, &c.DurationSec); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
