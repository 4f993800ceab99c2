package persist

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hordesim/simcore/internal/config"
	"github.com/hordesim/simcore/internal/sim"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := config.Defaults().Database
	cfg.Driver = "sqlite"
	cfg.DSN = "file:" + filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestOpenDisabled(t *testing.T) {
	cfg := config.Defaults().Database
	cfg.Driver = "none"
	if _, err := Open(context.Background(), cfg, zap.NewNop()); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
	cfg.Driver = "mysql"
	if _, err := Open(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Error("unknown driver accepted")
	}
}

func TestRunRepoRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if db.Dialect() != "sqlite" {
		t.Fatalf("dialect = %s", db.Dialect())
	}
	repo := NewRunRepo(db)
	ctx := context.Background()

	start := time.UnixMilli(time.Now().UnixMilli())
	want := sim.RunSummary{
		ID:            uuid.New(),
		StartedAt:     start,
		EndedAt:       start.Add(90 * time.Second),
		Ticks:         5400,
		EnemiesKilled: 212,
		ShotsSpent:    640,
		OrbsCollected: 198,
		PlayerDeaths:  1,
		PeakLive:      431,
		MaxLevel:      9,
		Culled:        12,
		HandlerFaults: 0,
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, want); err == nil {
		t.Error("duplicate id accepted")
	}

	got, err := repo.Load(ctx, want.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("saved run not found")
	}
	if !got.StartedAt.Equal(want.StartedAt) || !got.EndedAt.Equal(want.EndedAt) {
		t.Errorf("times = %v..%v, want %v..%v", got.StartedAt, got.EndedAt, want.StartedAt, want.EndedAt)
	}
	got.StartedAt, got.EndedAt = want.StartedAt, want.EndedAt
	if *got != want {
		t.Errorf("loaded %+v\nwant   %+v", *got, want)
	}

	missing, err := repo.Load(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("Load(unknown) = %v, %v", missing, err)
	}
}

func TestRunRepoRecentOrder(t *testing.T) {
	repo := NewRunRepo(openTestDB(t))
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	var ids []uuid.UUID
	for i := range 3 {
		s := sim.RunSummary{ID: uuid.New(), StartedAt: base, EndedAt: base.Add(time.Duration(i) * time.Minute), MaxLevel: 1}
		ids = append(ids, s.ID)
		if err := repo.Save(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != ids[2] || recent[1].ID != ids[1] {
		t.Errorf("recent = %+v", recent)
	}
	if err := repo.Save(ctx, sim.RunSummary{}); err == nil {
		t.Error("summary without id accepted")
	}
}

func TestSQLiteDSNAddsPragmas(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"file:runs.db", "file:runs.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"file:runs.db?mode=rwc", "file:runs.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"file:runs.db?_pragma=busy_timeout(100)", "file:runs.db?_pragma=busy_timeout(100)&_pragma=journal_mode(WAL)"},
	}
	for _, tc := range cases {
		if got := sqliteDSN(tc.in); got != tc.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSQLitePragmasOnEveryConnection(t *testing.T) {
	cfg := config.Defaults().Database
	cfg.Driver = "sqlite"
	cfg.DSN = "file:" + filepath.Join(t.TempDir(), "runs.db")
	cfg.MaxOpenConns = 3
	db, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		conn, err := db.SQL.Conn(ctx)
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		var timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatal(err)
		}
		var mode string
		if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatal(err)
		}
		if timeout != 5000 || !strings.EqualFold(mode, "wal") {
			t.Errorf("conn %d: busy_timeout=%d journal_mode=%s", i, timeout, mode)
		}
	}
}
