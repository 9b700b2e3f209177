package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fieldwork/internal/domain"
)

// JobRepository
func (db *DB) CreateJob(ctx context.Context, job domain.Job) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO jobs (org_id, job_title, description, trade_needed, address_text,
                          city, state, lat, lng, scheduled_at, urgency, duration,
                          budget_min, budget_max, pay_rate,
                          contact_name, contact_phone, contact_email, job_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
        RETURNING id
    `, job.OrgID, job.Title, job.Description, job.Trade, job.AddressText,
		job.City, job.State, job.Lat, job.Lng, job.ScheduledAt, job.Urgency, job.Duration,
		job.BudgetMin, job.BudgetMax, job.PayRate,
		job.ContactName, job.ContactPhone, job.ContactEmail, job.Status).Scan(&id)
	return id, err
}

func (db *DB) GetJob(ctx context.Context, jobID string) (domain.Job, error) {
	var j domain.Job
	err := db.Pool.QueryRow(ctx, `
        SELECT id, org_id, job_title, description, trade_needed, address_text,
               city, state, lat, lng, scheduled_at, urgency, duration,
               budget_min, budget_max, pay_rate,
               contact_name, contact_phone, contact_email, job_status, created_at
        FROM jobs WHERE id = $1
    `, jobID).Scan(&j.ID, &j.OrgID, &j.Title, &j.Description, &j.Trade, &j.AddressText,
		&j.City, &j.State, &j.Lat, &j.Lng, &j.ScheduledAt, &j.Urgency, &j.Duration,
		&j.BudgetMin, &j.BudgetMax, &j.PayRate,
		&j.ContactName, &j.ContactPhone, &j.ContactEmail, &j.Status, &j.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, &domain.NotFoundError{Kind: "job", ID: jobID}
	}
	return j, err
}
