package service

import (
	"math"
	"testing"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

func newTestLedger(t *testing.T, minHold time.Duration) (*LedgerService, *MockTradeRepository, *MockPositionRepository, *MockStatsRepository) {
	t.Helper()

	tradeRepo := NewMockTradeRepository()
	positionRepo := NewMockPositionRepository()
	statsRepo := NewMockStatsRepository()
	logger := utils.InitLogger(utils.LogConfig{Level: "error", Format: "console"})

	svc := NewLedgerService(tradeRepo, positionRepo, statsRepo, minHold, logger)
	return svc, tradeRepo, positionRepo, statsRepo
}

func pairFills(price float64, at time.Time) []Fill {
	return []Fill{
		{
			Symbol:       "BTCUSDT",
			Side:         models.SideBuy,
			PositionSide: models.PositionSideLong,
			Quantity:     0.001,
			Price:        price,
			OrderID:      "1001",
			Commission:   0.018,
			Timestamp:    at,
		},
		{
			Symbol:       "BTCUSDT",
			Side:         models.SideSell,
			PositionSide: models.PositionSideShort,
			Quantity:     0.001,
			Price:        price,
			OrderID:      "1002",
			Commission:   0.018,
			Timestamp:    at,
		},
	}
}

func closeFills(price float64, at time.Time) []Fill {
	return []Fill{
		{
			Symbol:       "BTCUSDT",
			Side:         models.SideSell,
			PositionSide: models.PositionSideLong,
			Quantity:     0.001,
			Price:        price,
			OrderID:      "1003",
			Commission:   0.018,
			Timestamp:    at,
		},
		{
			Symbol:       "BTCUSDT",
			Side:         models.SideBuy,
			PositionSide: models.PositionSideShort,
			Quantity:     0.001,
			Price:        price,
			OrderID:      "1004",
			Commission:   0.018,
			Timestamp:    at,
		},
	}
}

func TestRecordPairOpen(t *testing.T) {
	svc, tradeRepo, positionRepo, statsRepo := newTestLedger(t, 90*time.Minute)

	openedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	pairID := "6f1c2a9e-1111-4222-8333-944455566677"

	if err := svc.RecordPairOpen(pairID, 15, pairFills(93000, openedAt)); err != nil {
		t.Fatalf("RecordPairOpen: %v", err)
	}

	if len(tradeRepo.trades) != 2 {
		t.Errorf("got %d trades, want 2", len(tradeRepo.trades))
	}
	if len(positionRepo.positions) != 2 {
		t.Errorf("got %d positions, want 2", len(positionRepo.positions))
	}

	day := utils.GetDayStartFrom(openedAt)
	stats, err := statsRepo.GetByDate(day)
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	// Две ноги по 0.001 BTC на 93000
	if math.Abs(stats.TotalVolume-186.0) > 1e-9 {
		t.Errorf("TotalVolume = %v, want 186.0", stats.TotalVolume)
	}
	if stats.NumTrades != 2 {
		t.Errorf("NumTrades = %d, want 2", stats.NumTrades)
	}
}

func TestRecordPairCloseDeltaNeutralPnl(t *testing.T) {
	svc, _, positionRepo, statsRepo := newTestLedger(t, 90*time.Minute)

	openedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	closedAt := openedAt.Add(95 * time.Minute)
	pairID := "6f1c2a9e-1111-4222-8333-944455566677"

	if err := svc.RecordPairOpen(pairID, 15, pairFills(93000, openedAt)); err != nil {
		t.Fatalf("RecordPairOpen: %v", err)
	}
	pairPnl, err := svc.RecordPairClose(pairID, closeFills(94000, closedAt), "rotation")
	if err != nil {
		t.Fatalf("RecordPairClose: %v", err)
	}
	if math.Abs(pairPnl) > 1e-9 {
		t.Errorf("pair pnl = %v, want 0", pairPnl)
	}

	active, _ := positionRepo.GetActive()
	if len(active) != 0 {
		t.Errorf("got %d active legs after close, want 0", len(active))
	}

	day := utils.GetDayStartFrom(closedAt)
	stats, err := statsRepo.GetByDate(day)
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}

	// LONG +1, SHORT -1: дельта-нейтральная пара закрывается около нуля
	if math.Abs(stats.RealizedPnl) > 1e-9 {
		t.Errorf("RealizedPnl = %v, want 0", stats.RealizedPnl)
	}
	if stats.NumTrades != 4 {
		t.Errorf("NumTrades = %d, want 4", stats.NumTrades)
	}
}

func TestRecordPairCloseHoldReward(t *testing.T) {
	tests := []struct {
		name           string
		holdMinutes    float64
		wantMultiplier float64
	}{
		{"held past threshold", 95, HoldRewardMultiplier},
		{"closed early", 45, BaseRewardMultiplier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, statsRepo := newTestLedger(t, 90*time.Minute)

			openedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			closedAt := openedAt.Add(time.Duration(tt.holdMinutes * float64(time.Minute)))
			pairID := "7a2d3b0f-2222-4333-9444-a55566677788"

			if err := svc.RecordPairOpen(pairID, 15, pairFills(93000, openedAt)); err != nil {
				t.Fatalf("RecordPairOpen: %v", err)
			}
			if _, err := svc.RecordPairClose(pairID, closeFills(93000, closedAt), "rotation"); err != nil {
				t.Fatalf("RecordPairClose: %v", err)
			}

			stats, err := statsRepo.GetByDate(utils.GetDayStartFrom(closedAt))
			if err != nil {
				t.Fatalf("GetByDate: %v", err)
			}

			// Обе ноги по 93 USDT номинала
			wantWeighted := 2 * 93.0 * tt.holdMinutes
			if math.Abs(stats.HoldWeightedVolume-wantWeighted) > 1e-6 {
				t.Errorf("HoldWeightedVolume = %v, want %v", stats.HoldWeightedVolume, wantWeighted)
			}
			// Баллы = объём четырёх сделок x1 плюс hold points
			wantPoints := 4*93.0 + wantWeighted*tt.wantMultiplier
			if math.Abs(stats.RhPointsEstimated-wantPoints) > 1e-6 {
				t.Errorf("RhPointsEstimated = %v, want %v", stats.RhPointsEstimated, wantPoints)
			}
		})
	}
}

func TestRecordPairCloseIgnoresUnknownLeg(t *testing.T) {
	svc, tradeRepo, _, _ := newTestLedger(t, 90*time.Minute)

	// Закрытие без открытых ног: fill'ы пропускаются, ошибки нет
	if _, err := svc.RecordPairClose("dead-beef", closeFills(93000, time.Now()), "close_all"); err != nil {
		t.Fatalf("RecordPairClose: %v", err)
	}
	if len(tradeRepo.trades) != 0 {
		t.Errorf("got %d trades, want 0", len(tradeRepo.trades))
	}
}

func TestRhPointsSumVolumeAndHoldComponents(t *testing.T) {
	svc, _, _, statsRepo := newTestLedger(t, 90*time.Minute)

	openedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	closedAt := openedAt.Add(100 * time.Minute)
	pairID := "8b3e4c1a-3333-4444-a555-b66677788899"

	// Ноги по 20 USDT номинала: 0.001 BTC на 20000
	open := []Fill{
		{Symbol: "BTCUSDT", Side: models.SideBuy, PositionSide: models.PositionSideLong, Quantity: 0.001, Price: 20000, Timestamp: openedAt},
		{Symbol: "BTCUSDT", Side: models.SideSell, PositionSide: models.PositionSideShort, Quantity: 0.001, Price: 20000, Timestamp: openedAt},
	}
	closing := []Fill{
		{Symbol: "BTCUSDT", Side: models.SideSell, PositionSide: models.PositionSideLong, Quantity: 0.001, Price: 20000, Timestamp: closedAt},
		{Symbol: "BTCUSDT", Side: models.SideBuy, PositionSide: models.PositionSideShort, Quantity: 0.001, Price: 20000, Timestamp: closedAt},
	}

	if err := svc.RecordPairOpen(pairID, 15, open); err != nil {
		t.Fatalf("RecordPairOpen: %v", err)
	}
	if _, err := svc.RecordPairClose(pairID, closing, "rotation"); err != nil {
		t.Fatalf("RecordPairClose: %v", err)
	}

	stats, err := statsRepo.GetByDate(utils.GetDayStartFrom(closedAt))
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}

	if math.Abs(stats.TotalVolume-80.0) > 1e-9 {
		t.Errorf("TotalVolume = %v, want 80", stats.TotalVolume)
	}
	// 2 ноги x 20 USDT x 100 минут
	if math.Abs(stats.HoldWeightedVolume-4000.0) > 1e-9 {
		t.Errorf("HoldWeightedVolume = %v, want 4000", stats.HoldWeightedVolume)
	}
	// Volume points 80 плюс hold points 4000 x 10
	if math.Abs(stats.RhPointsEstimated-40080.0) > 1e-9 {
		t.Errorf("RhPointsEstimated = %v, want 40080", stats.RhPointsEstimated)
	}
}

func TestTodayVolume(t *testing.T) {
	svc, _, _, _ := newTestLedger(t, 90*time.Minute)

	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	// Пустой день отдаёт ноль без ошибки
	volume, err := svc.TodayVolume(now)
	if err != nil {
		t.Fatalf("TodayVolume: %v", err)
	}
	if volume != 0 {
		t.Errorf("volume = %v, want 0", volume)
	}

	if err := svc.RecordPairOpen("aa", 15, pairFills(93000, now)); err != nil {
		t.Fatalf("RecordPairOpen: %v", err)
	}

	volume, err = svc.TodayVolume(now)
	if err != nil {
		t.Fatalf("TodayVolume: %v", err)
	}
	if math.Abs(volume-186.0) > 1e-9 {
		t.Errorf("volume = %v, want 186.0", volume)
	}
}

func TestRecordRejected(t *testing.T) {
	svc, tradeRepo, _, _ := newTestLedger(t, 90*time.Minute)

	fill := Fill{
		Symbol:       "BTCUSDT",
		Side:         models.SideBuy,
		PositionSide: models.PositionSideLong,
		Quantity:     0.001,
		Price:        93000,
		Timestamp:    time.Now(),
	}
	if err := svc.RecordRejected("pair-x", fill); err != nil {
		t.Fatalf("RecordRejected: %v", err)
	}

	if len(tradeRepo.trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(tradeRepo.trades))
	}
	if tradeRepo.trades[0].Status != models.TradeStatusRejected {
		t.Errorf("Status = %s, want rejected", tradeRepo.trades[0].Status)
	}
}
