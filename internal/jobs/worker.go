// Package jobs implements the asynchronous CIDR mutation pipeline: a
// SKIP LOCKED job-queue worker that applies add/delete/update-cleanup
// actions to the cidr table, ported from the reference CidrWorker.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cidrfence/cidrfence/internal/cidrnet"
	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/rangealg"
	"github.com/cidrfence/cidrfence/internal/store/postgres"
)

// Config controls batch size and polling cadence.
type Config struct {
	BatchSize int
	Interval  time.Duration
}

// Worker drains job_queue and applies CIDR mutations.
type Worker struct {
	db  *sql.DB
	log zerolog.Logger
	cfg Config
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(db *sql.DB, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Worker{db: db, log: log, cfg: cfg}
}

// Run polls job_queue until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("cidr job worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("cidr job worker stopping")
			return ctx.Err()
		case <-ticker.C:
			n, err := postgres.ProcessBatch(ctx, w.db, w.cfg.BatchSize, w.handle)
			if err != nil {
				w.log.Error().Err(err).Msg("process batch")
				continue
			}
			if n > 0 {
				w.log.Debug().Int("count", n).Msg("processed job batch")
			}
		}
	}
}

// RunOnce processes a single batch and returns, used by tests.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	return postgres.ProcessBatch(ctx, w.db, w.cfg.BatchSize, w.handle)
}

func (w *Worker) handle(ctx context.Context, tx *sql.Tx, job model.CidrJob) error {
	switch job.Action {
	case model.JobActionAdd:
		return w.addCidrs(ctx, tx, job)
	case model.JobActionDelete:
		return w.deleteCidrs(ctx, tx, job)
	case model.JobActionUpdate:
		return w.updateCleanup(ctx, tx, job)
	default:
		return fmt.Errorf("unknown job action: %s", job.Action)
	}
}

// addCidrs inserts cidr_job.Cidrs into the target list. DENY-list adds are
// filtered against current SAFE-list carve-outs before insert; SAFE-list
// adds (when the list is enabled) trigger a deny-list cleanup pass so
// existing DENY entries immediately respect the new carve-out.
func (w *Worker) addCidrs(ctx context.Context, tx *sql.Tx, job model.CidrJob) error {
	res := cidrnet.ParseBatch(job.Cidrs, true)
	if len(res.Accepted) == 0 {
		w.log.Info().Str("list_id", job.ListID).Int("total", res.TotalJobs).Int("malformed", res.Malformed).
			Int("non_global", res.NonGlobal).Msg("add: nothing accepted")
		return nil
	}

	accepted := res.Accepted
	if job.ListType == model.ListTypeDeny {
		filtered, err := filterSafeCidrs(ctx, tx, accepted, job.UserID)
		if err != nil {
			return err
		}
		accepted = filtered
	} else if job.ListEnabled {
		if err := deleteExcludedCidrs(ctx, tx, accepted, "", model.ListTypeDeny, job.UserID); err != nil {
			return err
		}
	}

	var expiresAt *time.Time
	if job.TTL != nil {
		t := time.Now().UTC().Add(time.Duration(*job.TTL) * time.Second)
		expiresAt = &t
	}

	for _, p := range rangealg.Collapse(accepted) {
		if err := upsertCidr(ctx, tx, p, job.ListID, expiresAt); err != nil {
			return err
		}
	}
	w.log.Info().Str("list_id", job.ListID).Int("accepted", len(accepted)).Msg("add: applied")
	return nil
}

// deleteCidrs removes cidr_job.Cidrs from the target list, splitting
// stored rows as needed rather than requiring an exact address match.
// Unlike addCidrs, parsing here does not filter non-globally-routable
// input: any stored row can be removed, whether or not it would pass the
// non-global filter that addCidrs applies.
func (w *Worker) deleteCidrs(ctx context.Context, tx *sql.Tx, job model.CidrJob) error {
	res := cidrnet.ParseBatch(job.Cidrs, false)
	if len(res.Accepted) == 0 {
		return nil
	}
	return deleteExcludedCidrs(ctx, tx, res.Accepted, job.ListID, "", job.UserID)
}

// updateCleanup re-derives the DENY cross-section for a SAFE list that was
// just enabled. The job itself carries no CIDRs; the SAFE list's current
// contents are read fresh from storage.
func (w *Worker) updateCleanup(ctx context.Context, tx *sql.Tx, job model.CidrJob) error {
	if job.ListType != model.ListTypeSafe {
		return fmt.Errorf("update job for non-SAFE list %s", job.ListID)
	}
	addrs, err := selectEnabledCidrsByListID(ctx, tx, job.ListID)
	if err != nil {
		return err
	}
	collapsed := rangealg.Collapse(addrs)
	return deleteExcludedCidrs(ctx, tx, collapsed, "", model.ListTypeDeny, job.UserID)
}
