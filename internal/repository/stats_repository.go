package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
)

// Ошибки репозитория статистики
var (
	ErrStatsNotFound = errors.New("daily stats not found")
)

// StatsRepository - работа с таблицей daily_stats.
// Одна строка на UTC-день, счётчики наращиваются upsert'ом,
// чтобы перезапуск процесса не обнулял прогресс дня.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository создает новый экземпляр репозитория
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetByDate возвращает статистику за день
func (r *StatsRepository) GetByDate(date time.Time) (*models.DailyStats, error) {
	query := `
		SELECT id, date, total_volume, hold_weighted_volume, num_trades, realized_pnl, fees_paid, rh_points_estimated
		FROM daily_stats
		WHERE date = $1`

	stats := &models.DailyStats{}
	err := r.db.QueryRow(query, date).Scan(
		&stats.ID,
		&stats.Date,
		&stats.TotalVolume,
		&stats.HoldWeightedVolume,
		&stats.NumTrades,
		&stats.RealizedPnl,
		&stats.FeesPaid,
		&stats.RhPointsEstimated,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatsNotFound
		}
		return nil, err
	}

	return stats, nil
}

// ApplyTrade наращивает дневные счётчики на одну исполненную сделку.
// Номинал сделки входит в оценку RH баллов как volume points (x1),
// hold points добавляет ApplyHoldReward при закрытии пары.
func (r *StatsRepository) ApplyTrade(date time.Time, notional, realizedPnl, fees float64) error {
	query := `
		INSERT INTO daily_stats (date, total_volume, hold_weighted_volume, num_trades, realized_pnl, fees_paid, rh_points_estimated)
		VALUES ($1, $2, 0, 1, $3, $4, $2)
		ON CONFLICT (date) DO UPDATE SET
			total_volume = daily_stats.total_volume + EXCLUDED.total_volume,
			num_trades = daily_stats.num_trades + 1,
			realized_pnl = daily_stats.realized_pnl + EXCLUDED.realized_pnl,
			fees_paid = daily_stats.fees_paid + EXCLUDED.fees_paid,
			rh_points_estimated = daily_stats.rh_points_estimated + EXCLUDED.rh_points_estimated`

	_, err := r.db.Exec(query, date, notional, realizedPnl, fees)
	return err
}

// ApplyHoldReward наращивает hold-weighted объём и оценку RH баллов.
// Вызывается при закрытии пары, когда известно время удержания.
func (r *StatsRepository) ApplyHoldReward(date time.Time, holdWeightedVolume, rhPoints float64) error {
	query := `
		INSERT INTO daily_stats (date, total_volume, hold_weighted_volume, num_trades, realized_pnl, fees_paid, rh_points_estimated)
		VALUES ($1, 0, $2, 0, 0, 0, $3)
		ON CONFLICT (date) DO UPDATE SET
			hold_weighted_volume = daily_stats.hold_weighted_volume + EXCLUDED.hold_weighted_volume,
			rh_points_estimated = daily_stats.rh_points_estimated + EXCLUDED.rh_points_estimated`

	_, err := r.db.Exec(query, date, holdWeightedVolume, rhPoints)
	return err
}

// GetRange возвращает статистику за диапазон дней
func (r *StatsRepository) GetRange(from, to time.Time) ([]*models.DailyStats, error) {
	query := `
		SELECT id, date, total_volume, hold_weighted_volume, num_trades, realized_pnl, fees_paid, rh_points_estimated
		FROM daily_stats
		WHERE date >= $1 AND date < $2
		ORDER BY date ASC`

	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.DailyStats
	for rows.Next() {
		stats := &models.DailyStats{}
		err := rows.Scan(
			&stats.ID,
			&stats.Date,
			&stats.TotalVolume,
			&stats.HoldWeightedVolume,
			&stats.NumTrades,
			&stats.RealizedPnl,
			&stats.FeesPaid,
			&stats.RhPointsEstimated,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, stats)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteOlderThan удаляет статистику старше указанной даты
func (r *StatsRepository) DeleteOlderThan(date time.Time) (int64, error) {
	query := `DELETE FROM daily_stats WHERE date < $1`

	result, err := r.db.Exec(query, date)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
