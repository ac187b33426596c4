package bot

import (
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
)

// Action - решение цикла
type Action string

const (
	ActionHold     Action = "hold"      // ничего не делать
	ActionOpenPair Action = "open_pair" // открыть новую пару
	ActionRotate   Action = "rotate"    // закрыть и переоткрыть пару
	ActionCloseAll Action = "close_all" // принудительно закрыть всё
	ActionSkip     Action = "skip"      // пропустить цикл (нет свежих данных)
)

// Snapshot - данные одного цикла. Решение принимается только по снапшоту,
// повторный вызов с тем же снапшотом даёт тот же план.
type Snapshot struct {
	Now       time.Time
	DataAge   time.Duration // возраст mark price
	MarkPrice float64

	Positions []*models.ExchangePosition
	Available float64 // свободная маржа, USDT

	PairOpenedAt time.Time // нулевое время, если пары нет
	TodayVolume  float64   // накопленный объём текущего дня, USDT
}

// Plan - результат решения цикла
type Plan struct {
	Action Action
	Reason string
}

// PlanParams - параметры принятия решения
type PlanParams struct {
	MinHoldTime        time.Duration
	FreshnessThreshold time.Duration
	DailyVolumeTarget  float64
	Capital            float64
	Leverage           int
	LegNotional        float64 // плановый номинал одной ноги
}

// DecideCycle принимает решение одного цикла.
// Порядок проверок фиксирован: свежесть данных, затем риски открытой
// пары, затем форма пары, затем таймер удержания и дневная цель.
func DecideCycle(snap Snapshot, params PlanParams, rm *RiskManager) Plan {
	if params.FreshnessThreshold > 0 && snap.DataAge > params.FreshnessThreshold {
		return Plan{Action: ActionSkip, Reason: "stale_data"}
	}

	open := openLegs(snap.Positions)

	if len(open) > 0 {
		assessment := rm.AssessPair(open, params.Capital)
		if assessment.ShouldClose {
			return Plan{Action: ActionCloseAll, Reason: assessment.Reason}
		}

		// Пара цела. Ротация только после минимального удержания
		// и только пока дневная цель объёма не выполнена.
		if snap.PairOpenedAt.IsZero() {
			return Plan{Action: ActionHold, Reason: "hold_age_unknown"}
		}
		holdAge := snap.Now.Sub(snap.PairOpenedAt)
		if holdAge < params.MinHoldTime {
			return Plan{Action: ActionHold, Reason: "holding"}
		}
		if params.DailyVolumeTarget > 0 && snap.TodayVolume >= params.DailyVolumeTarget {
			return Plan{Action: ActionHold, Reason: "daily_target_reached"}
		}
		return Plan{Action: ActionRotate, Reason: "hold_time_elapsed"}
	}

	// Пары нет
	if params.DailyVolumeTarget > 0 && snap.TodayVolume >= params.DailyVolumeTarget {
		return Plan{Action: ActionHold, Reason: "daily_target_reached"}
	}

	if ok, reason := rm.CanOpen(params.LegNotional, params.Capital, params.Leverage, snap.Available, totalNotional(open)); !ok {
		return Plan{Action: ActionHold, Reason: reason}
	}

	return Plan{Action: ActionOpenPair, Reason: "no_open_pair"}
}

// openLegs отбрасывает нулевые позиции из снапшота
func openLegs(positions []*models.ExchangePosition) []*models.ExchangePosition {
	result := make([]*models.ExchangePosition, 0, len(positions))
	for _, p := range positions {
		if p.IsOpen() {
			result = append(result, p)
		}
	}
	return result
}

// totalNotional возвращает суммарный абсолютный номинал позиций
func totalNotional(positions []*models.ExchangePosition) float64 {
	var total float64
	for _, p := range positions {
		total += p.Notional()
	}
	return total
}
