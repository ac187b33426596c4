package models

import "time"

// Position представляет одну ногу дельта-нейтральной пары в журнале.
// Две ноги одной пары связаны общим PairID, присвоенным при открытии.
type Position struct {
	ID              int        `json:"id" db:"id"`
	PairID          string     `json:"pair_id" db:"pair_id"` // uuid, общий для LONG и SHORT ноги
	Symbol          string     `json:"symbol" db:"symbol"`
	PositionSide    string     `json:"position_side" db:"position_side"` // LONG, SHORT
	EntryPrice      float64    `json:"entry_price" db:"entry_price"`
	ExitPrice       *float64   `json:"exit_price,omitempty" db:"exit_price"`
	Quantity        float64    `json:"quantity" db:"quantity"`
	Leverage        int        `json:"leverage" db:"leverage"`
	Notional        float64    `json:"notional" db:"notional"` // quantity * entry_price
	OpenedAt        time.Time  `json:"opened_at" db:"opened_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	HoldTimeMinutes *float64   `json:"hold_time_minutes,omitempty" db:"hold_time_minutes"`
	RealizedPnl     *float64   `json:"realized_pnl,omitempty" db:"realized_pnl"`
	IsActive        bool       `json:"is_active" db:"is_active"`
}

// Age возвращает возраст позиции относительно указанного момента
func (p *Position) Age(now time.Time) time.Duration {
	return now.Sub(p.OpenedAt)
}

// ExchangePosition представляет позицию по данным биржи (position risk)
type ExchangePosition struct {
	Symbol            string  `json:"symbol"`
	PositionSide      string  `json:"position_side"` // LONG, SHORT
	PositionAmt       float64 `json:"position_amt"`  // подписанный объём
	EntryPrice        float64 `json:"entry_price"`
	MarkPrice         float64 `json:"mark_price"`
	UnrealizedPnl     float64 `json:"unrealized_pnl"`
	LiquidationPrice  float64 `json:"liquidation_price"`
	Leverage          int     `json:"leverage"`
	AtLiquidationRisk bool    `json:"at_liquidation_risk"` // флаг близости к ликвидации
}

// Notional возвращает абсолютный номинал позиции по марк-цене
func (p *ExchangePosition) Notional() float64 {
	amt := p.PositionAmt
	if amt < 0 {
		amt = -amt
	}
	return amt * p.MarkPrice
}

// IsOpen сообщает, открыта ли позиция
func (p *ExchangePosition) IsOpen() bool {
	return p.PositionAmt != 0
}
