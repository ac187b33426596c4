package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
	"github.com/algo-traders-club/aster-operator/internal/repository"
	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

// Множители начисления баллов за удержание позиции.
// Пара, удержанная не меньше минимального времени, получает
// десятикратный множитель на взвешенный объём.
const (
	BaseRewardMultiplier = 1.0
	HoldRewardMultiplier = 10.0
)

// Fill - исполненный ордер, как его видит журнал
type Fill struct {
	Symbol       string
	Side         string // BUY или SELL
	PositionSide string // LONG или SHORT
	Quantity     float64
	Price        float64
	OrderID      string
	Commission   float64
	Timestamp    time.Time
}

// Notional возвращает номинал исполнения в USDT
func (f Fill) Notional() float64 {
	return f.Quantity * f.Price
}

// LedgerService ведёт журнал сделок и позиций и дневную статистику.
//
// Функции:
// - RecordPairOpen: записать открытие обеих ног пары
// - RecordLegOpen: записать открытие одной ноги (частичное открытие)
// - RecordPairClose: записать закрытие пары, посчитать PNL и баллы удержания
// - GetDailyStats / TodayVolume: прогресс дневной цели объёма
// - GetActivePositions: активные ноги для startup recovery
type LedgerService struct {
	tradeRepo    TradeRepositoryInterface
	positionRepo PositionRepositoryInterface
	statsRepo    StatsRepositoryInterface

	minHoldTime time.Duration
	logger      *utils.Logger
}

// NewLedgerService создает новый экземпляр LedgerService
func NewLedgerService(
	tradeRepo TradeRepositoryInterface,
	positionRepo PositionRepositoryInterface,
	statsRepo StatsRepositoryInterface,
	minHoldTime time.Duration,
	logger *utils.Logger,
) *LedgerService {
	return &LedgerService{
		tradeRepo:    tradeRepo,
		positionRepo: positionRepo,
		statsRepo:    statsRepo,
		minHoldTime:  minHoldTime,
		logger:       logger.WithComponent("ledger"),
	}
}

// RecordLegOpen записывает открытие одной ноги: сделку, позицию
// и вклад в дневной объём
func (s *LedgerService) RecordLegOpen(pairID string, leverage int, fill Fill) error {
	trade := &models.Trade{
		PairID:       pairID,
		Symbol:       fill.Symbol,
		Side:         fill.Side,
		PositionSide: fill.PositionSide,
		OrderType:    "MARKET",
		Quantity:     fill.Quantity,
		Price:        fill.Price,
		Notional:     fill.Notional(),
		OrderID:      fill.OrderID,
		Commission:   fill.Commission,
		Status:       models.TradeStatusFilled,
		Timestamp:    fill.Timestamp,
	}
	if err := s.tradeRepo.Create(trade); err != nil {
		return fmt.Errorf("record open trade: %w", err)
	}

	position := &models.Position{
		PairID:       pairID,
		Symbol:       fill.Symbol,
		PositionSide: fill.PositionSide,
		EntryPrice:   fill.Price,
		Quantity:     fill.Quantity,
		Leverage:     leverage,
		Notional:     fill.Notional(),
		OpenedAt:     fill.Timestamp,
	}
	if err := s.positionRepo.Create(position); err != nil {
		return fmt.Errorf("record open position: %w", err)
	}

	day := utils.GetDayStartFrom(fill.Timestamp)
	if err := s.statsRepo.ApplyTrade(day, fill.Notional(), 0, fill.Commission); err != nil {
		return fmt.Errorf("apply open trade to stats: %w", err)
	}

	s.logger.Info("leg opened",
		utils.PairID(pairID),
		utils.Side(fill.PositionSide),
		utils.Quantity(fill.Quantity),
		utils.Price(fill.Price),
		utils.Notional(fill.Notional()))

	return nil
}

// RecordPairOpen записывает открытие обеих ног пары
func (s *LedgerService) RecordPairOpen(pairID string, leverage int, fills []Fill) error {
	for _, fill := range fills {
		if err := s.RecordLegOpen(pairID, leverage, fill); err != nil {
			return err
		}
	}
	return nil
}

// RecordPairClose записывает закрытие пары: сделки закрытия, фиксацию PNL
// по каждой ноге и начисление hold-weighted объёма с баллами удержания.
// Возвращает реализованный PNL пары. reason попадает только в лог,
// журнал хранит числа.
func (s *LedgerService) RecordPairClose(pairID string, fills []Fill, reason string) (float64, error) {
	positions, err := s.positionRepo.GetByPairID(pairID)
	if err != nil {
		return 0, fmt.Errorf("load pair legs: %w", err)
	}

	byLegSide := make(map[string]*models.Position, 2)
	for _, p := range positions {
		if p.IsActive {
			byLegSide[p.PositionSide] = p
		}
	}

	var pairPnl, holdWeightedVolume float64
	var holdMinutes float64

	for _, fill := range fills {
		leg, ok := byLegSide[fill.PositionSide]
		if !ok {
			s.logger.Warn("close fill without active leg",
				utils.PairID(pairID), utils.Side(fill.PositionSide))
			continue
		}

		realizedPnl := utils.CalculatePNL(leg.PositionSide, leg.EntryPrice, fill.Price, fill.Quantity)
		held := fill.Timestamp.Sub(leg.OpenedAt).Minutes()

		trade := &models.Trade{
			PairID:       pairID,
			Symbol:       fill.Symbol,
			Side:         fill.Side,
			PositionSide: fill.PositionSide,
			OrderType:    "MARKET",
			Quantity:     fill.Quantity,
			Price:        fill.Price,
			Notional:     fill.Notional(),
			OrderID:      fill.OrderID,
			RealizedPnl:  realizedPnl,
			Commission:   fill.Commission,
			Status:       models.TradeStatusFilled,
			Timestamp:    fill.Timestamp,
		}
		if err := s.tradeRepo.Create(trade); err != nil {
			return pairPnl, fmt.Errorf("record close trade: %w", err)
		}

		if err := s.positionRepo.Close(leg.ID, fill.Price, realizedPnl, fill.Timestamp, held); err != nil {
			return pairPnl, fmt.Errorf("close leg %d: %w", leg.ID, err)
		}

		day := utils.GetDayStartFrom(fill.Timestamp)
		if err := s.statsRepo.ApplyTrade(day, fill.Notional(), realizedPnl, fill.Commission); err != nil {
			return pairPnl, fmt.Errorf("apply close trade to stats: %w", err)
		}

		pairPnl += realizedPnl
		holdWeightedVolume += leg.Notional * held
		if held > holdMinutes {
			holdMinutes = held
		}
	}

	// Hold points: взвешенный объём с множителем удержания.
	// Volume points (номинал x1) уже начислены через ApplyTrade.
	multiplier := BaseRewardMultiplier
	if time.Duration(holdMinutes*float64(time.Minute)) >= s.minHoldTime {
		multiplier = HoldRewardMultiplier
	}
	holdPoints := holdWeightedVolume * multiplier

	if holdWeightedVolume > 0 {
		day := utils.GetDayStartFrom(fills[0].Timestamp)
		if err := s.statsRepo.ApplyHoldReward(day, holdWeightedVolume, holdPoints); err != nil {
			return pairPnl, fmt.Errorf("apply hold reward: %w", err)
		}
	}

	s.logger.Info("pair closed",
		utils.PairID(pairID),
		utils.Reason(reason),
		utils.PNL(pairPnl),
		utils.Float64("hold_minutes", holdMinutes),
		utils.Float64("hold_points", holdPoints))

	return pairPnl, nil
}

// RecordRejected записывает отклонённый биржей ордер
func (s *LedgerService) RecordRejected(pairID string, fill Fill) error {
	trade := &models.Trade{
		PairID:       pairID,
		Symbol:       fill.Symbol,
		Side:         fill.Side,
		PositionSide: fill.PositionSide,
		OrderType:    "MARKET",
		Quantity:     fill.Quantity,
		Price:        fill.Price,
		Notional:     fill.Notional(),
		OrderID:      fill.OrderID,
		Status:       models.TradeStatusRejected,
		Timestamp:    fill.Timestamp,
	}
	return s.tradeRepo.Create(trade)
}

// GetDailyStats возвращает статистику дня.
// Для дня без записей возвращает нулевую статистику, а не ошибку.
func (s *LedgerService) GetDailyStats(date time.Time) (*models.DailyStats, error) {
	day := utils.GetDayStartFrom(date)
	stats, err := s.statsRepo.GetByDate(day)
	if err != nil {
		if errors.Is(err, repository.ErrStatsNotFound) {
			return &models.DailyStats{Date: day}, nil
		}
		return nil, err
	}
	return stats, nil
}

// TodayVolume возвращает накопленный за текущий UTC-день объём
func (s *LedgerService) TodayVolume(now time.Time) (float64, error) {
	stats, err := s.GetDailyStats(now)
	if err != nil {
		return 0, err
	}
	return stats.TotalVolume, nil
}

// GetActivePositions возвращает активные ноги журнала
func (s *LedgerService) GetActivePositions() ([]*models.Position, error) {
	return s.positionRepo.GetActive()
}

// DeactivatePosition снимает активность с ноги, которую биржа не подтверждает
func (s *LedgerService) DeactivatePosition(id int) error {
	return s.positionRepo.Deactivate(id)
}

// GetRecentTrades возвращает последние сделки для операторского API
func (s *LedgerService) GetRecentTrades(limit int) ([]*models.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.tradeRepo.GetRecent(limit)
}

// GetWeeklyStats возвращает статистику текущей ISO-недели
func (s *LedgerService) GetWeeklyStats(now time.Time) ([]*models.DailyStats, error) {
	from := utils.GetWeekStartFrom(now)
	return s.statsRepo.GetRange(from, from.AddDate(0, 0, 7))
}

// CleanupOlderThan удаляет сделки и статистику старше указанной даты
func (s *LedgerService) CleanupOlderThan(cutoff time.Time) (int64, error) {
	deleted, err := s.tradeRepo.DeleteOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	if _, err := s.statsRepo.DeleteOlderThan(utils.GetDayStartFrom(cutoff)); err != nil {
		return deleted, err
	}
	return deleted, nil
}
