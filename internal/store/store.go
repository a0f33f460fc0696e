package store

import (
	"context"

	"github.com/cidrfence/cidrfence/internal/model"
)

// Store defines the persistence surface used by the application services.
// It provides typed accessors for each resource area (users, lists, cidrs,
// job queue) and hides concrete database details behind simple method
// contracts. Drivers (e.g., Postgres) live under internal/store/<driver>/
// and implement these interfaces.
//
// Goals:
// - Keep business logic free of SQL/driver specifics
// - Centralize data validation and not-found handling
// - Provide clear, minimal methods for the operations the app needs
// - Make it straightforward to test services using mocks
type Store interface {
	Users() Users
	Lists() Lists
	Cidrs() Cidrs
	Queue() Queue
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	UpdatePassword(ctx context.Context, login, passwordHash string) error
	Delete(ctx context.Context, userID string) error
}

// Lists manages list rows, every method scoped to a single owning user.
// Update, specifically, wraps the SAFE-list enable transition: updating a
// disabled SAFE list to enabled enqueues a cleanup job in the same
// transaction as the row update.
type Lists interface {
	Create(ctx context.Context, l *model.List) (*model.List, error)
	Get(ctx context.Context, userID, listID string) (*model.List, error)
	List(ctx context.Context, userID string, listType model.ListType) ([]*model.List, error)
	Update(ctx context.Context, userID, listID string, patch ListPatch) (*model.List, error)
	Delete(ctx context.Context, userID, listID string) error
}

// ListPatch carries optional field updates for Lists.Update; nil fields
// are left unchanged.
type ListPatch struct {
	Description *string
	Enabled     *bool
	Tags        []string
}

type Cidrs interface {
	Query(ctx context.Context, q model.CidrQuery) ([]*model.CidrRow, error)
	// QueryAll is Query without the enabled-list restriction: a list's owner
	// can always see its own rows regardless of the list's enabled state.
	QueryAll(ctx context.Context, q model.CidrQuery) ([]*model.CidrRow, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// Queue is the job_queue accessor. Enqueue appends a job for asynchronous
// processing. Dequeuing is not exposed here: draining the queue is an
// atomic delete-and-process-in-one-transaction operation (so a failing job
// rolls back its whole batch, siblings included, rather than being
// individually retried) that needs the transaction handle itself; see
// internal/jobs.Worker and internal/store/postgres.ProcessBatch.
type Queue interface {
	Enqueue(ctx context.Context, job model.CidrJob) error
}
