package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
)

// Ошибки репозитория сделок
var (
	ErrTradeNotFound = errors.New("trade not found")
)

// TradeRepository - работа с таблицей trades
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create создает запись о сделке
func (r *TradeRepository) Create(trade *models.Trade) error {
	query := `
		INSERT INTO trades (pair_id, symbol, side, position_side, order_type, quantity, price, notional, order_id, realized_pnl, commission, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	if trade.Timestamp.IsZero() {
		trade.Timestamp = time.Now()
	}

	err := r.db.QueryRow(
		query,
		trade.PairID,
		trade.Symbol,
		trade.Side,
		trade.PositionSide,
		trade.OrderType,
		trade.Quantity,
		trade.Price,
		trade.Notional,
		trade.OrderID,
		trade.RealizedPnl,
		trade.Commission,
		trade.Status,
		trade.Timestamp,
	).Scan(&trade.ID)

	if err != nil {
		return err
	}

	return nil
}

// GetByID возвращает сделку по ID
func (r *TradeRepository) GetByID(id int) (*models.Trade, error) {
	query := `
		SELECT id, pair_id, symbol, side, position_side, order_type, quantity, price, notional, order_id, realized_pnl, commission, status, timestamp
		FROM trades
		WHERE id = $1`

	trade := &models.Trade{}
	err := r.db.QueryRow(query, id).Scan(
		&trade.ID,
		&trade.PairID,
		&trade.Symbol,
		&trade.Side,
		&trade.PositionSide,
		&trade.OrderType,
		&trade.Quantity,
		&trade.Price,
		&trade.Notional,
		&trade.OrderID,
		&trade.RealizedPnl,
		&trade.Commission,
		&trade.Status,
		&trade.Timestamp,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	return trade, nil
}

// GetByPairID возвращает все сделки пары в порядке исполнения
func (r *TradeRepository) GetByPairID(pairID string) ([]*models.Trade, error) {
	query := `
		SELECT id, pair_id, symbol, side, position_side, order_type, quantity, price, notional, order_id, realized_pnl, commission, status, timestamp
		FROM trades
		WHERE pair_id = $1
		ORDER BY timestamp ASC`

	return r.queryTrades(query, pairID)
}

// GetRecent возвращает последние N сделок
func (r *TradeRepository) GetRecent(limit int) ([]*models.Trade, error) {
	query := `
		SELECT id, pair_id, symbol, side, position_side, order_type, quantity, price, notional, order_id, realized_pnl, commission, status, timestamp
		FROM trades
		ORDER BY timestamp DESC
		LIMIT $1`

	return r.queryTrades(query, limit)
}

// GetInTimeRange возвращает исполненные сделки за период
func (r *TradeRepository) GetInTimeRange(from, to time.Time) ([]*models.Trade, error) {
	query := `
		SELECT id, pair_id, symbol, side, position_side, order_type, quantity, price, notional, order_id, realized_pnl, commission, status, timestamp
		FROM trades
		WHERE status = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC`

	return r.queryTrades(query, models.TradeStatusFilled, from, to)
}

// SumNotionalInRange возвращает сумму номиналов исполненных сделок за период
func (r *TradeRepository) SumNotionalInRange(from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(notional), 0)
		FROM trades
		WHERE status = $1 AND timestamp >= $2 AND timestamp < $3`

	var total float64
	err := r.db.QueryRow(query, models.TradeStatusFilled, from, to).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

// Count возвращает общее количество сделок
func (r *TradeRepository) Count() (int, error) {
	query := `SELECT COUNT(*) FROM trades`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteOlderThan удаляет сделки старше указанной даты
func (r *TradeRepository) DeleteOlderThan(timestamp time.Time) (int64, error) {
	query := `DELETE FROM trades WHERE timestamp < $1`

	result, err := r.db.Exec(query, timestamp)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// queryTrades выполняет запрос со стандартным набором колонок trades
func (r *TradeRepository) queryTrades(query string, args ...interface{}) ([]*models.Trade, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade := &models.Trade{}
		err := rows.Scan(
			&trade.ID,
			&trade.PairID,
			&trade.Symbol,
			&trade.Side,
			&trade.PositionSide,
			&trade.OrderType,
			&trade.Quantity,
			&trade.Price,
			&trade.Notional,
			&trade.OrderID,
			&trade.RealizedPnl,
			&trade.Commission,
			&trade.Status,
			&trade.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}
