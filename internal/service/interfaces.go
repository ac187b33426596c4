package service

import (
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
	"github.com/algo-traders-club/aster-operator/internal/repository"
)

// TradeRepositoryInterface определяет интерфейс репозитория сделок
type TradeRepositoryInterface interface {
	Create(trade *models.Trade) error
	GetByPairID(pairID string) ([]*models.Trade, error)
	GetRecent(limit int) ([]*models.Trade, error)
	GetInTimeRange(from, to time.Time) ([]*models.Trade, error)
	SumNotionalInRange(from, to time.Time) (float64, error)
	Count() (int, error)
	DeleteOlderThan(timestamp time.Time) (int64, error)
}

// PositionRepositoryInterface определяет интерфейс репозитория позиций
type PositionRepositoryInterface interface {
	Create(position *models.Position) error
	GetByPairID(pairID string) ([]*models.Position, error)
	GetActive() ([]*models.Position, error)
	GetRecentClosed(limit int) ([]*models.Position, error)
	Close(id int, exitPrice, realizedPnl float64, closedAt time.Time, holdTimeMinutes float64) error
	Deactivate(id int) error
	CountActive() (int, error)
	SumHoldWeightedVolumeInRange(from, to time.Time) (float64, error)
}

// StatsRepositoryInterface определяет интерфейс репозитория статистики
type StatsRepositoryInterface interface {
	GetByDate(date time.Time) (*models.DailyStats, error)
	ApplyTrade(date time.Time, notional, realizedPnl, fees float64) error
	ApplyHoldReward(date time.Time, holdWeightedVolume, rhPoints float64) error
	GetRange(from, to time.Time) ([]*models.DailyStats, error)
	DeleteOlderThan(date time.Time) (int64, error)
}

// LedgerServiceInterface - читающая часть журнала для API handlers
type LedgerServiceInterface interface {
	GetDailyStats(date time.Time) (*models.DailyStats, error)
	GetWeeklyStats(now time.Time) ([]*models.DailyStats, error)
	GetActivePositions() ([]*models.Position, error)
	GetRecentTrades(limit int) ([]*models.Trade, error)
	TodayVolume(now time.Time) (float64, error)
}

// Проверяем, что реальные реализации соответствуют интерфейсам
var _ TradeRepositoryInterface = (*repository.TradeRepository)(nil)
var _ PositionRepositoryInterface = (*repository.PositionRepository)(nil)
var _ StatsRepositoryInterface = (*repository.StatsRepository)(nil)
var _ LedgerServiceInterface = (*LedgerService)(nil)
