package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/cidrfence/cidrfence/internal/model"
)

// SQL kept as constants for clarity and reuse, ported from the reference
// service's CONSUME_JOB_QUERY / job_queue DDL. consumeJobsSQL dequeues and
// removes up to $1 ready rows atomically: the DELETE...USING...RETURNING
// shape means a row is only gone from the queue once it is actually
// returned to the caller, inside the same transaction the caller commits.
const (
	insertJobSQL = `INSERT INTO job_queue (job_id, payload) VALUES ($1, $2::jsonb)`

	consumeJobsSQL = `
DELETE FROM job_queue
USING (
    SELECT * FROM job_queue ORDER BY id FOR UPDATE SKIP LOCKED LIMIT $1
) q
WHERE q.id = job_queue.id
RETURNING job_queue.id, job_queue.job_id, job_queue.payload`
)

type queue struct{ db *sql.DB }

func (q *queue) Enqueue(ctx context.Context, job model.CidrJob) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := enqueueTx(ctx, tx, job); err != nil {
		return err
	}
	return tx.Commit()
}

// enqueueTx inserts job inside an already-open transaction. Used by
// Lists.Update to enqueue a cleanup job in the same transaction as the
// SAFE-list enable transition.
func enqueueTx(ctx context.Context, tx *sql.Tx, job model.CidrJob) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, insertJobSQL, job.JobID, payload)
	return err
}

// ProcessBatch dequeues up to batchSize ready jobs and applies handle to
// each, all inside a single transaction: the dequeuing DELETE and every
// processor's writes share one commit. If any job in the batch fails, the
// whole transaction rolls back — the failing job and all of its siblings
// remain on the queue, unmodified, to be retried verbatim next tick. There
// is deliberately no per-job attempt counter or backoff: a batch either
// fully drains or fully doesn't, matching the reference service's
// single-transaction _process_jobs loop. Returns the number of jobs
// successfully processed and committed.
func ProcessBatch(ctx context.Context, db *sql.DB, batchSize int, handle func(context.Context, *sql.Tx, model.CidrJob) error) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, consumeJobsSQL, batchSize)
	if err != nil {
		return 0, err
	}

	var jobs []model.CidrJob
	for rows.Next() {
		var id int64
		var jobID string
		var raw []byte
		if err := rows.Scan(&id, &jobID, &raw); err != nil {
			rows.Close()
			return 0, err
		}
		var job model.CidrJob
		if err := json.Unmarshal(raw, &job); err != nil {
			rows.Close()
			return 0, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, job := range jobs {
		if err := handle(ctx, tx, job); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(jobs), nil
}
