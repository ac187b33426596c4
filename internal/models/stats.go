package models

import "time"

// DailyStats представляет дневную статистику торговли.
// День биржи начинается в 00:00 UTC; Date хранится как начало дня.
type DailyStats struct {
	ID                 int       `json:"id" db:"id"`
	Date               time.Time `json:"date" db:"date"`
	TotalVolume        float64   `json:"total_volume" db:"total_volume"` // суммарный номинал сделок, USDT
	HoldWeightedVolume float64   `json:"hold_weighted_volume" db:"hold_weighted_volume"`
	NumTrades          int       `json:"num_trades" db:"num_trades"`
	RealizedPnl        float64   `json:"realized_pnl" db:"realized_pnl"`
	FeesPaid           float64   `json:"fees_paid" db:"fees_paid"`
	RhPointsEstimated  float64   `json:"rh_points_estimated" db:"rh_points_estimated"`
}

// VolumeRemaining возвращает остаток до дневной цели объёма
func (s *DailyStats) VolumeRemaining(target float64) float64 {
	remaining := target - s.TotalVolume
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TargetReached сообщает, достигнута ли дневная цель объёма
func (s *DailyStats) TargetReached(target float64) bool {
	return target > 0 && s.TotalVolume >= target
}
