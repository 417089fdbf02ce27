package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/services"
)

var _ ReceiptApplier = (*services.ReceiptService)(nil)

type fakeApplier struct {
	calls int
	n     int64
	err   error
}

func (f *fakeApplier) ApplyPending(context.Context) (int64, error) {
	f.calls++
	return f.n, f.err
}

func TestRunner_RegisterValidatesSpec(t *testing.T) {
	r := NewRunner(nil, 0)
	if r.timeout != DefaultTimeout {
		t.Fatalf("timeout = %v", r.timeout)
	}
	if err := r.Register("bad", "every minute", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := r.Register("ok", "@every 1m", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("ok", "*/5 * * * *", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if err := r.RunNow("missing"); err == nil {
		t.Fatalf("expected error for unknown job")
	}
}

func TestRunner_RunNowAppliesTimeout(t *testing.T) {
	r := NewRunner(time.UTC, 50*time.Millisecond)
	var deadline bool
	if err := r.Register("tick", "@every 1h", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return errors.New("logged, not returned")
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.RunNow("tick"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if !deadline {
		t.Fatalf("job context must carry a deadline")
	}
}

func TestRunner_StartStop(t *testing.T) {
	r := NewRunner(time.UTC, time.Second)
	if err := r.Register("tick", "@every 1h", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	r.Start()
	r.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	deadline := time.Now().Add(time.Second)
	for r.Next("tick").IsZero() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if next := r.Next("tick"); next.IsZero() || next.Before(time.Now()) {
		t.Fatalf("unexpected next run: %v", next)
	}
	r.Stop(ctx)
	r.Stop(ctx)
}

func TestReceiptSweep(t *testing.T) {
	f := &fakeApplier{n: 3}
	if err := ReceiptSweep(f)(context.Background()); err != nil || f.calls != 1 {
		t.Fatalf("sweep: calls=%d err=%v", f.calls, err)
	}
	f.err = errors.New("db locked")
	if err := ReceiptSweep(f)(context.Background()); err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestIdempotencyPurge(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "jobs.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	now := time.Now().UTC()
	rows := []domain.Idempotency{
		{ID: "old", Scope: "archive:e1", Key: "k1", ResourceID: "a1", Status: 201, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{ID: "live", Scope: "archive:e1", Key: "k2", ResourceID: "a2", Status: 201, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := IdempotencyPurge(db)(context.Background()); err != nil {
		t.Fatalf("purge: %v", err)
	}
	var left []domain.Idempotency
	db.Find(&left)
	if len(left) != 1 || left[0].ID != "live" {
		t.Fatalf("unexpected rows after purge: %+v", left)
	}
}
