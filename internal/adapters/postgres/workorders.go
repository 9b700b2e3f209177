package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"fieldwork/internal/domain"
)

// WorkOrderRepository
func (db *DB) InsertWorkOrder(ctx context.Context, orgID, rawText, source string) (domain.RawWorkOrder, error) {
	var o domain.RawWorkOrder
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO raw_work_orders (org_id, raw_text, source, status)
        VALUES ($1, $2, $3, 'pending')
        RETURNING id, org_id, raw_text, source, status, parsed_data, job_id, error_message, created_at, updated_at
    `, orgID, rawText, source).
		Scan(&o.ID, &o.OrgID, &o.RawText, &o.Source, &o.Status, &o.ParsedData, &o.JobID, &o.ErrorMessage, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (db *DB) GetWorkOrder(ctx context.Context, id string) (domain.RawWorkOrder, error) {
	var o domain.RawWorkOrder
	err := db.Pool.QueryRow(ctx, `
        SELECT id, org_id, raw_text, source, status, parsed_data, job_id, error_message, created_at, updated_at
        FROM raw_work_orders WHERE id = $1
    `, id).Scan(&o.ID, &o.OrgID, &o.RawText, &o.Source, &o.Status, &o.ParsedData, &o.JobID, &o.ErrorMessage, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RawWorkOrder{}, &domain.NotFoundError{Kind: "raw work order", ID: id}
	}
	return o, err
}

func (db *DB) MarkParsed(ctx context.Context, id string, parsed *domain.ParsedWorkOrder) error {
	_, err := db.Pool.Exec(ctx, `
        UPDATE raw_work_orders SET status = 'parsed', parsed_data = $2, updated_at = now() WHERE id = $1
    `, id, parsed)
	return err
}

func (db *DB) MarkFailed(ctx context.Context, id, reason string) error {
	_, err := db.Pool.Exec(ctx, `
        UPDATE raw_work_orders SET status = 'failed', error_message = $2, updated_at = now() WHERE id = $1
    `, id, reason)
	return err
}

func (db *DB) LinkJob(ctx context.Context, id, jobID string) error {
	_, err := db.Pool.Exec(ctx, `
        UPDATE raw_work_orders SET status = 'job_created', job_id = $2, updated_at = now() WHERE id = $1
    `, id, jobID)
	return err
}

func (db *DB) ListByOrg(ctx context.Context, orgID, status string) ([]domain.RawWorkOrder, error) {
	query := `
        SELECT id, org_id, raw_text, source, status, parsed_data, job_id, error_message, created_at, updated_at
        FROM raw_work_orders
        WHERE org_id = $1
        ORDER BY created_at DESC
    `
	args := []any{orgID}
	if status != "" {
		query = `
        SELECT id, org_id, raw_text, source, status, parsed_data, job_id, error_message, created_at, updated_at
        FROM raw_work_orders
        WHERE org_id = $1 AND status = $2
        ORDER BY created_at DESC
    `
		args = append(args, status)
	}
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RawWorkOrder
	for rows.Next() {
		var o domain.RawWorkOrder
		if err := rows.Scan(&o.ID, &o.OrgID, &o.RawText, &o.Source, &o.Status, &o.ParsedData, &o.JobID, &o.ErrorMessage, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ClaimNextPending locks the oldest claimable pending work order with SKIP
// LOCKED and takes a five-minute lease on it, so a crashed worker's claim
// expires rather than wedging the order.
func (db *DB) ClaimNextPending(ctx context.Context) (order domain.RawWorkOrder, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return order, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id, org_id, raw_text, source, status, parsed_data, job_id, error_message, created_at, updated_at
        FROM raw_work_orders
        WHERE status = 'pending'
          AND (claimed_at IS NULL OR claimed_at < now() - interval '5 minutes')
        ORDER BY created_at
        FOR UPDATE SKIP LOCKED
        LIMIT 1
    `).Scan(&order.ID, &order.OrgID, &order.RawText, &order.Source, &order.Status, &order.ParsedData, &order.JobID, &order.ErrorMessage, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return order, false, nil
	}
	if err != nil {
		return order, false, err
	}

	if _, err = tx.Exec(ctx, `UPDATE raw_work_orders SET claimed_at = now() WHERE id = $1`, order.ID); err != nil {
		return order, false, err
	}
	return order, true, nil
}
