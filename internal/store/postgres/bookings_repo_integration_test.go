package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"agendaki/internal/domain"
	"agendaki/internal/store"
)

func TestPostgresIntegration_BookingCreateConflictAndPatch(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("AGENDAKI_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("AGENDAKI_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "agendaki_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer ccancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(cctx)
	})

	date, err := domain.ParseDate("2026-01-05")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	at := func(s string) domain.TimeOfDay {
		tod, err := domain.ParseTimeOfDay(s)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) error: %v", s, err)
		}
		return tod
	}

	var serviceID, bookingID int64

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		if err := applyMigrations(ctx, tx); err != nil {
			return err
		}

		svc := domain.Service{Name: "Corte Feminino", Price: 80, DurationMinutes: 60}
		if _, err := tx.NewInsert().Model(&svc).Exec(ctx); err != nil {
			return err
		}
		serviceID = svc.ID

		s := scheduleTx{tx: tx}

		if err := lockDaySchedule(ctx, tx, date); err != nil {
			return err
		}

		if err := ensureNoBookingConflict(ctx, s, date, at("10:00"), at("11:00"), 0); err != nil {
			return err
		}
		b1, err := s.InsertBooking(ctx, domain.Booking{
			ClientName:    "Maria",
			ClientContact: "11999990000",
			ServiceID:     serviceID,
			Date:          date,
			StartTime:     at("10:00"),
			EndTime:       at("11:00"),
		})
		if err != nil {
			return err
		}
		if b1.ID == 0 {
			return fmt.Errorf("expected generated id")
		}
		if b1.Status != domain.StatusPending {
			return fmt.Errorf("status = %q, want %q", b1.Status, domain.StatusPending)
		}
		bookingID = b1.ID

		// Overlap is caught by the in-transaction check before any insert.
		err = ensureNoBookingConflict(ctx, s, date, at("10:30"), at("11:30"), 0)
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("overlap err = %v, want %v", err, store.ErrConflict)
		}

		// Touching intervals do not conflict.
		if err := ensureNoBookingConflict(ctx, s, date, at("11:00"), at("12:00"), 0); err != nil {
			return fmt.Errorf("touching err = %v, want nil", err)
		}

		// Rescheduling over its own slot is allowed.
		if err := ensureNoBookingConflict(ctx, s, date, at("10:00"), at("10:30"), b1.ID); err != nil {
			return fmt.Errorf("self-exclusion err = %v, want nil", err)
		}

		existing, err := s.GetBookingForUpdate(ctx, b1.ID)
		if err != nil {
			return err
		}
		newEnd := at("10:30")
		merged := applyBookingPatch(existing, store.BookingPatch{EndTime: &newEnd})
		if err := s.UpdateBooking(ctx, merged); err != nil {
			return err
		}

		day, err := s.ListActiveByDate(ctx, date)
		if err != nil {
			return err
		}
		if len(day) != 1 || day[0].EndTime != newEnd {
			return fmt.Errorf("day = %+v after patch", day)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}

	// MaxOpenConns is 1, so a session-level SET pins the test schema for the
	// repo calls below, which run outside an explicit transaction.
	if _, err := db.NewRaw("SET search_path TO " + schema).Exec(ctx); err != nil {
		t.Fatalf("set search_path error: %v", err)
	}

	svc2 := domain.Service{Name: "Alisamento", Price: 120, DurationMinutes: 90}
	if _, err := db.NewInsert().Model(&svc2).Exec(ctx); err != nil {
		t.Fatalf("insert second service error: %v", err)
	}

	services, err := NewServiceRepo(db).List(ctx)
	if err != nil {
		t.Fatalf("ServiceRepo.List error: %v", err)
	}
	if len(services) != 2 || services[0].Name != "Alisamento" || services[1].Name != "Corte Feminino" {
		t.Fatalf("catalog not ordered by nome: %+v", services)
	}

	repo := NewBookingRepo(db)
	laterDate, err := domain.ParseDate("2026-01-06")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	for _, interval := range []struct{ start, end string }{
		{"09:00", "10:00"},
		{"11:00", "12:00"},
	} {
		_, err := repo.Create(ctx, domain.Booking{
			ClientName:    "Joana",
			ClientContact: "11777770000",
			ServiceID:     svc2.ID,
			Date:          laterDate,
			StartTime:     at(interval.start),
			EndTime:       at(interval.end),
		})
		if err != nil {
			t.Fatalf("Create(%s) error: %v", interval.start, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	// Newest day first, later start first within a day.
	if !list[0].Date.Equal(laterDate) || list[0].StartTime != at("11:00") {
		t.Fatalf("list[0] = %s %s", list[0].Date.Format(domain.DateLayout), list[0].StartTime)
	}
	if !list[1].Date.Equal(laterDate) || list[1].StartTime != at("09:00") {
		t.Fatalf("list[1] = %s %s", list[1].Date.Format(domain.DateLayout), list[1].StartTime)
	}
	if !list[2].Date.Equal(date) || list[2].StartTime != at("10:00") {
		t.Fatalf("list[2] = %s %s", list[2].Date.Format(domain.DateLayout), list[2].StartTime)
	}
	if list[0].Service == nil || list[0].Service.Name != "Alisamento" {
		t.Fatalf("list[0].Service = %+v, want joined service", list[0].Service)
	}

	// A write that skips the conflict check still hits the exclusion
	// constraint, which must surface as the conflict sentinel.
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}

		s := scheduleTx{tx: tx}
		_, err := s.InsertBooking(ctx, domain.Booking{
			ClientName:    "Ana",
			ClientContact: "11888880000",
			ServiceID:     serviceID,
			Date:          date,
			StartTime:     at("10:00"),
			EndTime:       at("10:15"),
		})
		return err
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("constraint err = %v, want %v", err, store.ErrConflict)
	}

	if bookingID == 0 {
		t.Fatalf("booking id was not captured")
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

func applyMigrations(ctx context.Context, exec rawExecutor) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type mig struct {
		name string
		path string
	}
	migs := make([]mig, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		migs = append(migs, mig{name: e.Name(), path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].name < migs[j].name })

	for _, m := range migs {
		b, err := os.ReadFile(m.path)
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return err
		}
		stmts := splitSQLStatements(upSQL)
		for _, stmt := range stmts {
			if normalized, ok := normalizeExtensionStatement(stmt); ok {
				stmt = normalized
			}
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

func migrationsDir() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller failed")
	}
	base := filepath.Dir(file)
	return filepath.Clean(filepath.Join(base, "..", "..", "..", "migrations")), nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

func normalizeExtensionStatement(stmt string) (string, bool) {
	s := strings.TrimSpace(stmt)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "CREATE EXTENSION") {
		return "", false
	}
	if !strings.Contains(upper, "BTREE_GIST") {
		return "", false
	}
	if strings.Contains(upper, " SCHEMA ") {
		return "", false
	}
	return s + " SCHEMA public", true
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
