package runs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/callable"
	"github.com/aschepis/backscratcher/chains/chain"
	"github.com/aschepis/backscratcher/chains/migrations"
)

// setupTestDB creates an in-memory database and runs migrations.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Run(db, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func completedRun(t *testing.T) chain.RunResult {
	t.Helper()

	reg := callable.NewRegistry(zerolog.Nop())
	reg.MustRegister(callable.Func("shout", func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		return "HELLO", nil
	}))

	c := chain.New(reg, zerolog.Nop())
	if err := c.AddStep(chain.Step{Key: "greeting", Callable: "shout"}); err != nil {
		t.Fatal(err)
	}

	cctx, err := c.Run(context.Background(), map[string]any{"who": "world"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return chain.RunResult{Context: cctx}
}

func TestRecordRunCompleted(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, zerolog.Nop())
	ctx := context.Background()

	started := time.Now().Add(-time.Second)
	runID, err := store.RecordRun(ctx, "greeter", started, completedRun(t))
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.ChainName != "greeter" {
		t.Errorf("ChainName = %q, want %q", run.ChainName, "greeter")
	}
	if run.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", run.Status, StatusCompleted)
	}
	if run.Error != "" {
		t.Errorf("Error = %q, want empty", run.Error)
	}
	if run.FinalKey != "greeting" {
		t.Errorf("FinalKey = %q, want %q", run.FinalKey, "greeting")
	}

	values, err := store.RunValues(ctx, runID)
	if err != nil {
		t.Fatalf("RunValues() error = %v", err)
	}
	if values["greeting"] != "HELLO" {
		t.Errorf("values[greeting] = %v, want HELLO", values["greeting"])
	}
	if values["who"] != "world" {
		t.Errorf("values[who] = %v, want world", values["who"])
	}
}

func TestRecordRunFailed(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, zerolog.Nop())
	ctx := context.Background()

	res := chain.RunResult{Err: errors.New("step broke")}
	runID, err := store.RecordRun(ctx, "flaky", time.Now(), res)
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", run.Status, StatusFailed)
	}
	if run.Error != "step broke" {
		t.Errorf("Error = %q, want %q", run.Error, "step broke")
	}

	values, err := store.RunValues(ctx, runID)
	if err != nil {
		t.Fatalf("RunValues() error = %v", err)
	}
	if len(values) != 0 {
		t.Errorf("expected no stored values for failed run, got %v", values)
	}
}

func TestRecordRunRollsBackOnValueFailure(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, zerolog.Nop())
	ctx := context.Background()

	// Sabotage the values table so the second half of the write fails.
	if _, err := db.Exec("DROP TABLE run_values"); err != nil {
		t.Fatalf("drop run_values: %v", err)
	}

	if _, err := store.RecordRun(ctx, "greeter", time.Now(), completedRun(t)); err == nil {
		t.Fatal("expected RecordRun to fail without the run_values table")
	}

	// The runs insert must have rolled back with it.
	all, err := store.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("found %d orphan run rows after failed record, want 0", len(all))
	}
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, zerolog.Nop())
	ctx := context.Background()

	res := completedRun(t)
	for _, name := range []string{"alpha", "beta", "alpha"} {
		if _, err := store.RecordRun(ctx, name, time.Now(), res); err != nil {
			t.Fatalf("RecordRun(%s) error = %v", name, err)
		}
	}

	all, err := store.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListRuns() returned %d runs, want 3", len(all))
	}
	// Newest first.
	if all[0].ID < all[1].ID || all[1].ID < all[2].ID {
		t.Errorf("runs not ordered newest first: %v", all)
	}

	alphas, err := store.ListRuns(ctx, "alpha", 0)
	if err != nil {
		t.Fatalf("ListRuns(alpha) error = %v", err)
	}
	if len(alphas) != 2 {
		t.Errorf("ListRuns(alpha) returned %d runs, want 2", len(alphas))
	}

	limited, err := store.ListRuns(ctx, "", 1)
	if err != nil {
		t.Fatalf("ListRuns(limit) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListRuns(limit 1) returned %d runs, want 1", len(limited))
	}
}

func TestGetRunNotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, zerolog.Nop())

	if _, err := store.GetRun(context.Background(), 999); err == nil {
		t.Fatal("expected error for missing run")
	}
}
