package service

import (
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
	"github.com/algo-traders-club/aster-operator/internal/repository"
)

// ============ Mock TradeRepository ============

type MockTradeRepository struct {
	trades    []*models.Trade
	createErr error
	nextID    int
}

func NewMockTradeRepository() *MockTradeRepository {
	return &MockTradeRepository{nextID: 1}
}

func (m *MockTradeRepository) Create(trade *models.Trade) error {
	if m.createErr != nil {
		return m.createErr
	}
	trade.ID = m.nextID
	m.nextID++
	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now()
	}
	m.trades = append(m.trades, trade)
	return nil
}

func (m *MockTradeRepository) GetByPairID(pairID string) ([]*models.Trade, error) {
	var result []*models.Trade
	for _, t := range m.trades {
		if t.PairID == pairID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockTradeRepository) GetRecent(limit int) ([]*models.Trade, error) {
	if len(m.trades) <= limit {
		return m.trades, nil
	}
	return m.trades[len(m.trades)-limit:], nil
}

func (m *MockTradeRepository) GetInTimeRange(from, to time.Time) ([]*models.Trade, error) {
	var result []*models.Trade
	for _, t := range m.trades {
		if !t.Timestamp.Before(from) && t.Timestamp.Before(to) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockTradeRepository) SumNotionalInRange(from, to time.Time) (float64, error) {
	var total float64
	for _, t := range m.trades {
		if t.Status == models.TradeStatusFilled && !t.Timestamp.Before(from) && t.Timestamp.Before(to) {
			total += t.Notional
		}
	}
	return total, nil
}

func (m *MockTradeRepository) Count() (int, error) {
	return len(m.trades), nil
}

func (m *MockTradeRepository) DeleteOlderThan(timestamp time.Time) (int64, error) {
	var kept []*models.Trade
	var deleted int64
	for _, t := range m.trades {
		if t.Timestamp.Before(timestamp) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.trades = kept
	return deleted, nil
}

// ============ Mock PositionRepository ============

type MockPositionRepository struct {
	positions []*models.Position
	createErr error
	closeErr  error
	nextID    int
}

func NewMockPositionRepository() *MockPositionRepository {
	return &MockPositionRepository{nextID: 1}
}

func (m *MockPositionRepository) Create(position *models.Position) error {
	if m.createErr != nil {
		return m.createErr
	}
	position.ID = m.nextID
	m.nextID++
	if position.OpenedAt.IsZero() {
		position.OpenedAt = time.Now()
	}
	position.IsActive = true
	m.positions = append(m.positions, position)
	return nil
}

func (m *MockPositionRepository) GetByPairID(pairID string) ([]*models.Position, error) {
	var result []*models.Position
	for _, p := range m.positions {
		if p.PairID == pairID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockPositionRepository) GetActive() ([]*models.Position, error) {
	var result []*models.Position
	for _, p := range m.positions {
		if p.IsActive {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockPositionRepository) GetRecentClosed(limit int) ([]*models.Position, error) {
	var result []*models.Position
	for _, p := range m.positions {
		if !p.IsActive {
			result = append(result, p)
		}
	}
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (m *MockPositionRepository) Close(id int, exitPrice, realizedPnl float64, closedAt time.Time, holdTimeMinutes float64) error {
	if m.closeErr != nil {
		return m.closeErr
	}
	for _, p := range m.positions {
		if p.ID == id && p.IsActive {
			p.ExitPrice = &exitPrice
			p.RealizedPnl = &realizedPnl
			p.ClosedAt = &closedAt
			p.HoldTimeMinutes = &holdTimeMinutes
			p.IsActive = false
			return nil
		}
	}
	return repository.ErrPositionNotFound
}

func (m *MockPositionRepository) Deactivate(id int) error {
	for _, p := range m.positions {
		if p.ID == id {
			p.IsActive = false
			return nil
		}
	}
	return repository.ErrPositionNotFound
}

func (m *MockPositionRepository) CountActive() (int, error) {
	count := 0
	for _, p := range m.positions {
		if p.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *MockPositionRepository) SumHoldWeightedVolumeInRange(from, to time.Time) (float64, error) {
	var total float64
	for _, p := range m.positions {
		if p.IsActive || p.ClosedAt == nil || p.HoldTimeMinutes == nil {
			continue
		}
		if !p.ClosedAt.Before(from) && p.ClosedAt.Before(to) {
			total += p.Notional * *p.HoldTimeMinutes
		}
	}
	return total, nil
}

// ============ Mock StatsRepository ============

type MockStatsRepository struct {
	byDate   map[time.Time]*models.DailyStats
	applyErr error
	nextID   int
}

func NewMockStatsRepository() *MockStatsRepository {
	return &MockStatsRepository{
		byDate: make(map[time.Time]*models.DailyStats),
		nextID: 1,
	}
}

func (m *MockStatsRepository) getOrCreate(date time.Time) *models.DailyStats {
	if s, ok := m.byDate[date]; ok {
		return s
	}
	s := &models.DailyStats{ID: m.nextID, Date: date}
	m.nextID++
	m.byDate[date] = s
	return s
}

func (m *MockStatsRepository) GetByDate(date time.Time) (*models.DailyStats, error) {
	if s, ok := m.byDate[date]; ok {
		return s, nil
	}
	return nil, repository.ErrStatsNotFound
}

func (m *MockStatsRepository) ApplyTrade(date time.Time, notional, realizedPnl, fees float64) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	s := m.getOrCreate(date)
	s.TotalVolume += notional
	s.NumTrades++
	s.RealizedPnl += realizedPnl
	s.FeesPaid += fees
	s.RhPointsEstimated += notional
	return nil
}

func (m *MockStatsRepository) ApplyHoldReward(date time.Time, holdWeightedVolume, rhPoints float64) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	s := m.getOrCreate(date)
	s.HoldWeightedVolume += holdWeightedVolume
	s.RhPointsEstimated += rhPoints
	return nil
}

func (m *MockStatsRepository) GetRange(from, to time.Time) ([]*models.DailyStats, error) {
	var result []*models.DailyStats
	for date, s := range m.byDate {
		if !date.Before(from) && date.Before(to) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *MockStatsRepository) DeleteOlderThan(date time.Time) (int64, error) {
	var deleted int64
	for d := range m.byDate {
		if d.Before(date) {
			delete(m.byDate, d)
			deleted++
		}
	}
	return deleted, nil
}
