package models

import "time"

// PairRuntime представляет runtime состояние позиционной пары
type PairRuntime struct {
	PairID        string    `json:"pair_id"` // uuid текущей пары, пусто в IDLE
	Symbol        string    `json:"symbol"`
	State         string    `json:"state"`          // IDLE, HOLDING, ELIGIBLE, ROTATING
	Legs          []Leg     `json:"legs"`           // открытые ноги
	OpenedAt      time.Time `json:"opened_at"`      // время открытия текущей пары
	Rotations     int       `json:"rotations"`      // ротаций за время работы
	UnrealizedPnl float64   `json:"unrealized_pnl"` // нереализованный PNL пары
	LastUpdate    time.Time `json:"last_update"`
}

// Leg представляет одну ногу дельта-нейтральной пары в runtime
type Leg struct {
	PositionSide  string  `json:"position_side"` // LONG, SHORT
	EntryPrice    float64 `json:"entry_price"`
	MarkPrice     float64 `json:"mark_price"`
	Quantity      float64 `json:"quantity"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
}

// Состояния пары (state machine)
const (
	StateIdle     = "IDLE"     // позиции нет, ожидание условий открытия
	StateHolding  = "HOLDING"  // пара открыта, минимальное удержание не истекло
	StateEligible = "ELIGIBLE" // удержание истекло, пара готова к ротации
	StateRotating = "ROTATING" // процесс закрытия и переоткрытия
)

// HoldAge возвращает время удержания текущей пары
func (pr *PairRuntime) HoldAge(now time.Time) time.Duration {
	if pr.State == StateIdle || pr.OpenedAt.IsZero() {
		return 0
	}
	return now.Sub(pr.OpenedAt)
}

// HasOpenPair сообщает, есть ли открытая пара
func (pr *PairRuntime) HasOpenPair() bool {
	return pr.State != StateIdle && len(pr.Legs) > 0
}
