package jobs

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/store/postgres"
)

func TestWorker_AddThenDeleteCidrs(t *testing.T) {
	dsn := os.Getenv("CIDRFENCE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CIDRFENCE_POSTGRES_DSN not set; skipping job worker integration test")
	}
	db, err := postgres.Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := postgres.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := postgres.NewWithDB(db)
	ctx := context.Background()

	user, err := s.Users().Create(ctx, &model.User{Login: "job-worker-test", PasswordHash: "x", Role: model.UserRoleUser})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	defer func() { _ = s.Users().Delete(ctx, user.ID) }()

	_, err = s.Lists().Create(ctx, &model.List{ID: "JOBTESTDENY1", UserID: user.ID, Type: model.ListTypeDeny, Enabled: true})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	defer func() { _ = s.Lists().Delete(ctx, user.ID, "JOBTESTDENY1") }()

	w := NewWorker(db, Config{BatchSize: 10, Interval: time.Second}, zerolog.Nop())

	if err := s.Queue().Enqueue(ctx, model.CidrJob{
		ListID:   "JOBTESTDENY1",
		ListType: model.ListTypeDeny,
		UserID:   user.ID,
		Action:   model.JobActionAdd,
		Cidrs:    []string{"203.0.113.0/24"},
	}); err != nil {
		t.Fatalf("enqueue add: %v", err)
	}
	if _, err := w.RunOnce(ctx); err != nil {
		t.Fatalf("run add: %v", err)
	}

	rows, err := s.Cidrs().Query(ctx, model.CidrQuery{ListID: "JOBTESTDENY1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 || rows[0].Address != "203.0.113.0/24" {
		t.Fatalf("expected one stored cidr, got %+v", rows)
	}

	if err := s.Queue().Enqueue(ctx, model.CidrJob{
		ListID:   "JOBTESTDENY1",
		ListType: model.ListTypeDeny,
		UserID:   user.ID,
		Action:   model.JobActionDelete,
		Cidrs:    []string{"203.0.113.0/24"},
	}); err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}
	if _, err := w.RunOnce(ctx); err != nil {
		t.Fatalf("run delete: %v", err)
	}

	rows, err = s.Cidrs().Query(ctx, model.CidrQuery{ListID: "JOBTESTDENY1"})
	if err != nil {
		t.Fatalf("query after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows after delete, got %+v", rows)
	}
}
