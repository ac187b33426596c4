package handlers

import (
	"errors"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
)

// ErrMockDatabase - общая ошибка БД для тестов
var ErrMockDatabase = errors.New("mock database error")

// ============ Mock LedgerService ============

type MockLedgerService struct {
	dailyStats  *models.DailyStats
	weeklyStats []*models.DailyStats
	positions   []*models.Position
	trades      []*models.Trade

	errs map[string]error
}

func NewMockLedgerService() *MockLedgerService {
	return &MockLedgerService{
		errs: make(map[string]error),
	}
}

func (m *MockLedgerService) SetError(op string, err error) {
	m.errs[op] = err
}

func (m *MockLedgerService) GetDailyStats(date time.Time) (*models.DailyStats, error) {
	if err := m.errs["daily"]; err != nil {
		return nil, err
	}
	if m.dailyStats != nil {
		return m.dailyStats, nil
	}
	return &models.DailyStats{Date: date}, nil
}

func (m *MockLedgerService) GetWeeklyStats(now time.Time) ([]*models.DailyStats, error) {
	if err := m.errs["weekly"]; err != nil {
		return nil, err
	}
	return m.weeklyStats, nil
}

func (m *MockLedgerService) GetActivePositions() ([]*models.Position, error) {
	if err := m.errs["positions"]; err != nil {
		return nil, err
	}
	return m.positions, nil
}

func (m *MockLedgerService) GetRecentTrades(limit int) ([]*models.Trade, error) {
	if err := m.errs["trades"]; err != nil {
		return nil, err
	}
	if limit < len(m.trades) {
		return m.trades[:limit], nil
	}
	return m.trades, nil
}

func (m *MockLedgerService) TodayVolume(now time.Time) (float64, error) {
	if err := m.errs["volume"]; err != nil {
		return 0, err
	}
	if m.dailyStats != nil {
		return m.dailyStats.TotalVolume, nil
	}
	return 0, nil
}

// ============ Mock StatusProvider ============

type MockStatusProvider struct {
	runtime models.PairRuntime
}

func (m *MockStatusProvider) Status() models.PairRuntime {
	return m.runtime
}

// ============ Mock StreamProvider ============

type MockStreamProvider struct {
	connected bool
}

func (m *MockStreamProvider) Connected() bool {
	return m.connected
}
