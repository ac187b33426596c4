package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// ============================================================
// StatsRepository Tests
// ============================================================

func TestStatsRepositoryGetByDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "date", "total_volume", "hold_weighted_volume", "num_trades",
		"realized_pnl", "fees_paid", "rh_points_estimated",
	}).AddRow(3, date, 1523.75, 17083.2, 16, -0.42, 0.61, 170832.0)

	mock.ExpectQuery(`SELECT (.+) FROM daily_stats`).
		WithArgs(date).
		WillReturnRows(rows)

	repo := NewStatsRepository(db)
	stats, err := repo.GetByDate(date)
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}

	if stats.TotalVolume != 1523.75 {
		t.Errorf("TotalVolume = %v", stats.TotalVolume)
	}
	if stats.NumTrades != 16 {
		t.Errorf("NumTrades = %d", stats.NumTrades)
	}
	if stats.TargetReached(15000) {
		t.Error("daily target should not be reached at 1523.75 of 15000")
	}
}

func TestStatsRepositoryGetByDateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM daily_stats`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewStatsRepository(db)
	_, err = repo.GetByDate(time.Now())

	if !errors.Is(err, ErrStatsNotFound) {
		t.Errorf("err = %v, want ErrStatsNotFound", err)
	}
}

func TestStatsRepositoryApplyTrade(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Сделка наращивает и объём, и volume-компонент оценки баллов
	mock.ExpectExec(`INSERT INTO daily_stats (.+) ON CONFLICT \(date\) DO UPDATE (.+)rh_points_estimated = daily_stats\.rh_points_estimated \+ EXCLUDED\.rh_points_estimated`).
		WithArgs(date, 93.1552, 0.0, 0.018).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewStatsRepository(db)
	if err := repo.ApplyTrade(date, 93.1552, 0, 0.018); err != nil {
		t.Fatalf("ApplyTrade: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStatsRepositoryApplyHoldReward(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO daily_stats (.+) ON CONFLICT \(date\) DO UPDATE`).
		WithArgs(date, 17083.2, 170832.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewStatsRepository(db)
	if err := repo.ApplyHoldReward(date, 17083.2, 170832.0); err != nil {
		t.Fatalf("ApplyHoldReward: %v", err)
	}
}

func TestStatsRepositoryGetRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	from := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	rows := sqlmock.NewRows([]string{
		"id", "date", "total_volume", "hold_weighted_volume", "num_trades",
		"realized_pnl", "fees_paid", "rh_points_estimated",
	}).
		AddRow(1, from, 15120.0, 160000.0, 18, 0.2, 6.0, 1600000.0).
		AddRow(2, from.AddDate(0, 0, 1), 14890.5, 158000.0, 16, -0.3, 5.9, 1580000.0)

	mock.ExpectQuery(`SELECT (.+) FROM daily_stats`).
		WithArgs(from, to).
		WillReturnRows(rows)

	repo := NewStatsRepository(db)
	stats, err := repo.GetRange(from, to)
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}

	if len(stats) != 2 {
		t.Fatalf("got %d days, want 2", len(stats))
	}
	if !stats[0].TargetReached(15000) {
		t.Error("first day reached the target")
	}
	if stats[1].TargetReached(15000) {
		t.Error("second day did not reach the target")
	}
}
