package models

import "time"

// Trade представляет запись об исполненном ордере (append-only журнал)
type Trade struct {
	ID           int       `json:"id" db:"id"`
	PairID       string    `json:"pair_id" db:"pair_id"`             // uuid пары позиций
	Symbol       string    `json:"symbol" db:"symbol"`               // BTCUSDT
	Side         string    `json:"side" db:"side"`                   // BUY, SELL
	PositionSide string    `json:"position_side" db:"position_side"` // LONG, SHORT
	OrderType    string    `json:"order_type" db:"order_type"`       // MARKET
	Quantity     float64   `json:"quantity" db:"quantity"`           // в монетах актива
	Price        float64   `json:"price" db:"price"`                 // средняя цена исполнения
	Notional     float64   `json:"notional" db:"notional"`           // quantity * price, USDT
	OrderID      string    `json:"order_id" db:"order_id"`           // биржевой идентификатор
	RealizedPnl  float64   `json:"realized_pnl" db:"realized_pnl"`   // для закрывающих сделок
	Commission   float64   `json:"commission" db:"commission"`       // комиссия в USDT
	Status       string    `json:"status" db:"status"`               // filled, rejected
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
}

// Стороны ордера
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Стороны позиции в hedge-режиме
const (
	PositionSideLong  = "LONG"
	PositionSideShort = "SHORT"
)

// Статусы сделки
const (
	TradeStatusFilled   = "filled"
	TradeStatusRejected = "rejected"
)
