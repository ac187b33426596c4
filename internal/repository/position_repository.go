package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")
)

// PositionRepository - работа с таблицей positions.
// Каждая строка - одна нога пары; две ноги делят pair_id.
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create создает запись об открытой ноге
func (r *PositionRepository) Create(position *models.Position) error {
	query := `
		INSERT INTO positions (pair_id, symbol, position_side, entry_price, quantity, leverage, notional, opened_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	if position.OpenedAt.IsZero() {
		position.OpenedAt = time.Now()
	}
	position.IsActive = true

	err := r.db.QueryRow(
		query,
		position.PairID,
		position.Symbol,
		position.PositionSide,
		position.EntryPrice,
		position.Quantity,
		position.Leverage,
		position.Notional,
		position.OpenedAt,
		position.IsActive,
	).Scan(&position.ID)

	if err != nil {
		return err
	}

	return nil
}

// GetByID возвращает ногу по ID
func (r *PositionRepository) GetByID(id int) (*models.Position, error) {
	query := `
		SELECT id, pair_id, symbol, position_side, entry_price, exit_price, quantity, leverage, notional, opened_at, closed_at, hold_time_minutes, realized_pnl, is_active
		FROM positions
		WHERE id = $1`

	position := &models.Position{}
	err := r.db.QueryRow(query, id).Scan(
		&position.ID,
		&position.PairID,
		&position.Symbol,
		&position.PositionSide,
		&position.EntryPrice,
		&position.ExitPrice,
		&position.Quantity,
		&position.Leverage,
		&position.Notional,
		&position.OpenedAt,
		&position.ClosedAt,
		&position.HoldTimeMinutes,
		&position.RealizedPnl,
		&position.IsActive,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	return position, nil
}

// GetByPairID возвращает обе ноги пары
func (r *PositionRepository) GetByPairID(pairID string) ([]*models.Position, error) {
	query := `
		SELECT id, pair_id, symbol, position_side, entry_price, exit_price, quantity, leverage, notional, opened_at, closed_at, hold_time_minutes, realized_pnl, is_active
		FROM positions
		WHERE pair_id = $1
		ORDER BY position_side ASC`

	return r.queryPositions(query, pairID)
}

// GetActive возвращает активные ноги (открытая пара или её остаток)
func (r *PositionRepository) GetActive() ([]*models.Position, error) {
	query := `
		SELECT id, pair_id, symbol, position_side, entry_price, exit_price, quantity, leverage, notional, opened_at, closed_at, hold_time_minutes, realized_pnl, is_active
		FROM positions
		WHERE is_active = true
		ORDER BY opened_at ASC`

	return r.queryPositions(query)
}

// GetRecentClosed возвращает последние закрытые ноги
func (r *PositionRepository) GetRecentClosed(limit int) ([]*models.Position, error) {
	query := `
		SELECT id, pair_id, symbol, position_side, entry_price, exit_price, quantity, leverage, notional, opened_at, closed_at, hold_time_minutes, realized_pnl, is_active
		FROM positions
		WHERE is_active = false
		ORDER BY closed_at DESC
		LIMIT $1`

	return r.queryPositions(query, limit)
}

// Close помечает ногу закрытой и фиксирует результат
func (r *PositionRepository) Close(id int, exitPrice, realizedPnl float64, closedAt time.Time, holdTimeMinutes float64) error {
	query := `
		UPDATE positions
		SET exit_price = $1, realized_pnl = $2, closed_at = $3, hold_time_minutes = $4, is_active = false
		WHERE id = $5 AND is_active = true`

	result, err := r.db.Exec(query, exitPrice, realizedPnl, closedAt, holdTimeMinutes, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// Deactivate снимает флаг активности без фиксации результата.
// Используется recovery, когда биржа не подтверждает позицию из журнала.
func (r *PositionRepository) Deactivate(id int) error {
	query := `
		UPDATE positions
		SET is_active = false
		WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// CountActive возвращает количество активных ног
func (r *PositionRepository) CountActive() (int, error) {
	query := `SELECT COUNT(*) FROM positions WHERE is_active = true`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// SumHoldWeightedVolumeInRange возвращает объём закрытых ног за период,
// взвешенный временем удержания (notional * hold_time_minutes)
func (r *PositionRepository) SumHoldWeightedVolumeInRange(from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(notional * hold_time_minutes), 0)
		FROM positions
		WHERE is_active = false AND closed_at >= $1 AND closed_at < $2`

	var total float64
	err := r.db.QueryRow(query, from, to).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

// queryPositions выполняет запрос со стандартным набором колонок positions
func (r *PositionRepository) queryPositions(query string, args ...interface{}) ([]*models.Position, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		position := &models.Position{}
		err := rows.Scan(
			&position.ID,
			&position.PairID,
			&position.Symbol,
			&position.PositionSide,
			&position.EntryPrice,
			&position.ExitPrice,
			&position.Quantity,
			&position.Leverage,
			&position.Notional,
			&position.OpenedAt,
			&position.ClosedAt,
			&position.HoldTimeMinutes,
			&position.RealizedPnl,
			&position.IsActive,
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}
