package bot

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/algo-traders-club/aster-operator/internal/exchange"
	"github.com/algo-traders-club/aster-operator/internal/models"
	"github.com/algo-traders-club/aster-operator/internal/service"
	"github.com/algo-traders-club/aster-operator/pkg/retry"
	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

// Gateway - операции биржи, нужные движку
type Gateway interface {
	GetBalance(ctx context.Context) (*exchange.Balance, error)
	GetPositions(ctx context.Context, symbol string) ([]*models.ExchangePosition, error)
	GetMarkPrice(ctx context.Context, symbol string) (*exchange.MarkPrice, error)
	PlaceMarketOrder(ctx context.Context, req exchange.OrderRequest) (*exchange.OrderResult, error)
}

// Ledger - журнал сделок, нужный движку
type Ledger interface {
	RecordLegOpen(pairID string, leverage int, fill service.Fill) error
	RecordPairClose(pairID string, fills []service.Fill, reason string) (float64, error)
	RecordRejected(pairID string, fill service.Fill) error
	TodayVolume(now time.Time) (float64, error)
	GetActivePositions() ([]*models.Position, error)
	DeactivatePosition(id int) error
}

// MarkSource - кэш mark price из WebSocket потока
type MarkSource interface {
	Last() (*exchange.MarkPrice, bool)
	Connected() bool
}

// EngineConfig - параметры движка стратегии
type EngineConfig struct {
	Symbol        string
	CycleInterval time.Duration
	MinHoldTime   time.Duration

	Sizing SizingParams

	DailyVolumeTarget  float64
	FreshnessThreshold time.Duration

	LegDelayMin    time.Duration
	LegDelayMax    time.Duration
	RotateDelayMin time.Duration
	RotateDelayMax time.Duration
}

// Engine - движок стратегии hold-and-rotate.
//
// Каждый цикл движок собирает снапшот (баланс, позиции, mark price),
// отдает его чистой функции решения DecideCycle и выполняет план:
// открытие пары, ротацию или принудительное закрытие. Все ордера
// рыночные и последовательные, LONG нога всегда первой.
//
// Циклы однопоточные: тикер не запускает их параллельно. Runtime
// состояние при этом читает операторский API из HTTP горутин,
// поэтому доступ к нему идет через mu.
type Engine struct {
	gateway Gateway
	ledger  Ledger
	marks   MarkSource // nil допустим, тогда mark price только по REST
	rm      *RiskManager

	config EngineConfig
	logger *utils.Logger
	rng    *rand.Rand

	mu      sync.RWMutex
	runtime *models.PairRuntime

	now func() time.Time
}

// NewEngine создает движок стратегии
func NewEngine(gateway Gateway, ledger Ledger, marks MarkSource, rm *RiskManager, config EngineConfig, logger *utils.Logger) *Engine {
	return &Engine{
		gateway: gateway,
		ledger:  ledger,
		marks:   marks,
		rm:      rm,
		config:  config,
		logger:  logger.WithComponent("engine").WithSymbol(config.Symbol),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		runtime: &models.PairRuntime{
			Symbol: config.Symbol,
			State:  models.StateIdle,
		},
		now: time.Now,
	}
}

// Status возвращает копию runtime состояния для операторского API.
// Слайс Legs после копии разделяет массив с runtime, но syncRuntime
// всегда собирает новый слайс и старый не изменяет.
func (e *Engine) Status() models.PairRuntime {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return *e.runtime
}

// Run выполняет циклы стратегии до отмены контекста.
// Первый цикл выполняется сразу, не дожидаясь тикера.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started",
		utils.Any("cycle_interval", e.config.CycleInterval.String()),
		utils.Any("min_hold_time", e.config.MinHoldTime.String()))

	e.RunCycle(ctx)

	ticker := time.NewTicker(e.config.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped")
			return ctx.Err()
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle выполняет один цикл стратегии. Ошибка цикла логируется и
// не останавливает движок, следующий тик попробует снова.
func (e *Engine) RunCycle(ctx context.Context) Plan {
	started := e.now()

	snap, positions, err := e.snapshot(ctx)
	if err != nil {
		e.logger.Error("cycle snapshot failed", utils.Err(err))
		RecordCycle("error", e.now().Sub(started).Seconds())
		return Plan{Action: ActionSkip, Reason: "snapshot_failed"}
	}

	e.syncRuntime(positions, snap)

	plan := DecideCycle(snap, e.planParams(), e.rm)

	if plan.Action == ActionSkip && plan.Reason == "stale_data" {
		e.logger.Warn("skipping cycle on stale market data",
			utils.Err(&StaleDataError{Age: snap.DataAge, Threshold: e.config.FreshnessThreshold}))
	}

	e.logger.Info("cycle decision",
		utils.State(e.Status().State),
		utils.String("action", string(plan.Action)),
		utils.Reason(plan.Reason),
		utils.Price(snap.MarkPrice),
		utils.Float64("today_volume", snap.TodayVolume))

	if err := e.executePlan(ctx, plan, snap, positions); err != nil {
		e.logger.Error("cycle execution failed",
			utils.String("action", string(plan.Action)), utils.Err(err))
	}

	RecordCycle(string(plan.Action), e.now().Sub(started).Seconds())
	return plan
}

// planParams собирает параметры решения из конфигурации
func (e *Engine) planParams() PlanParams {
	s := e.config.Sizing
	return PlanParams{
		MinHoldTime:        e.config.MinHoldTime,
		FreshnessThreshold: e.config.FreshnessThreshold,
		DailyVolumeTarget:  e.config.DailyVolumeTarget,
		Capital:            s.Capital,
		Leverage:           s.Leverage,
		LegNotional:        s.Capital * s.MaxPositionSizePct / 100 * float64(s.Leverage),
	}
}

// snapshot собирает данные цикла: mark price из потока с REST как
// запасным путем, позиции и баланс по REST, объем дня из журнала
func (e *Engine) snapshot(ctx context.Context) (Snapshot, []*models.ExchangePosition, error) {
	now := e.now()
	snap := Snapshot{Now: now, PairOpenedAt: e.Status().OpenedAt}

	mark, ok := e.streamMark(now)
	if !ok {
		restMark, err := e.gateway.GetMarkPrice(ctx, e.config.Symbol)
		if err != nil {
			return snap, nil, fmt.Errorf("mark price: %w", err)
		}
		mark = restMark
	}
	snap.MarkPrice = mark.Price
	snap.DataAge = mark.Age(now)

	positions, err := e.gateway.GetPositions(ctx, e.config.Symbol)
	if err != nil {
		return snap, nil, fmt.Errorf("positions: %w", err)
	}
	snap.Positions = positions

	balance, err := e.gateway.GetBalance(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("balance: %w", err)
	}
	snap.Available = balance.Available
	UpdateBalance(balance.Total, balance.Available)

	volume, err := e.ledger.TodayVolume(now)
	if err != nil {
		return snap, nil, fmt.Errorf("today volume: %w", err)
	}
	snap.TodayVolume = volume
	DailyVolumeGauge.Set(volume)

	if e.marks != nil {
		if e.marks.Connected() {
			StreamConnected.Set(1)
		} else {
			StreamConnected.Set(0)
		}
	}

	return snap, positions, nil
}

// streamMark возвращает снапшот из потока, если он достаточно свежий
func (e *Engine) streamMark(now time.Time) (*exchange.MarkPrice, bool) {
	if e.marks == nil {
		return nil, false
	}
	mark, ok := e.marks.Last()
	if !ok {
		return nil, false
	}
	if e.config.FreshnessThreshold > 0 && mark.Age(now) > e.config.FreshnessThreshold {
		return nil, false
	}
	return mark, true
}

// syncRuntime сверяет runtime состояние с фактом биржи.
// Ноги, пропавшие с биржи вне нашего цикла, переводят пару в IDLE.
func (e *Engine) syncRuntime(positions []*models.ExchangePosition, snap Snapshot) {
	open := openLegs(positions)

	if len(open) == 0 {
		if st := e.Status(); HasOpenPosition(st.State) {
			e.logger.Warn("exchange reports no legs, resetting runtime",
				utils.PairID(st.PairID), utils.State(st.State))
			e.setIdle()
		}
	}

	var netNotional float64
	if len(open) > 0 {
		legs := make([]models.Leg, 0, len(open))
		var unrealized float64
		for _, p := range open {
			legs = append(legs, models.Leg{
				PositionSide:  p.PositionSide,
				EntryPrice:    p.EntryPrice,
				MarkPrice:     p.MarkPrice,
				Quantity:      utils.Abs(p.PositionAmt),
				UnrealizedPnl: p.UnrealizedPnl,
			})
			unrealized += p.UnrealizedPnl
			netNotional += p.PositionAmt * p.MarkPrice
		}

		e.mu.Lock()
		e.runtime.Legs = legs
		e.runtime.UnrealizedPnl = unrealized
		// Пара старше минимального удержания становится ELIGIBLE
		eligible := e.runtime.State == models.StateHolding && !e.runtime.OpenedAt.IsZero() &&
			snap.Now.Sub(e.runtime.OpenedAt) >= e.config.MinHoldTime
		e.mu.Unlock()

		if eligible {
			e.transition(models.StateEligible)
		}
	}

	e.mu.Lock()
	e.runtime.LastUpdate = snap.Now
	state := e.runtime.State
	e.mu.Unlock()

	NetNotionalGauge.Set(netNotional)
	OpenLegsGauge.Set(float64(len(open)))
	UpdatePairState(state)
}

// executePlan выполняет принятое решение
func (e *Engine) executePlan(ctx context.Context, plan Plan, snap Snapshot, positions []*models.ExchangePosition) error {
	switch plan.Action {
	case ActionOpenPair:
		return e.openPair(ctx, snap.MarkPrice)
	case ActionRotate:
		return e.rotatePair(ctx, positions, snap.MarkPrice)
	case ActionCloseAll:
		ForcedClosesTotal.WithLabelValues(plan.Reason).Inc()
		return e.closeAll(ctx, positions, plan.Reason)
	default:
		return nil
	}
}

// ============================================================
// Открытие пары
// ============================================================

// openPair открывает обе ноги пары последовательно, LONG первой.
// Отказ первой ноги прерывает открытие целиком. Отказ второй ноги
// оставляет одинокую LONG ногу: следующий цикл увидит неполную пару
// и закроет ее, откат внутри текущего цикла не выполняется.
func (e *Engine) openPair(ctx context.Context, markPrice float64) error {
	quantity, err := e.rm.CalculatePositionSize(e.config.Sizing, markPrice, e.rng)
	if err != nil {
		e.logger.Warn("position size below minimum", utils.Err(err))
		return err
	}

	pairID := uuid.NewString()
	e.logger.Info("opening pair",
		utils.PairID(pairID), utils.Quantity(quantity), utils.Price(markPrice))

	openedAt := e.now()

	if err := e.placeLeg(ctx, pairID, models.PositionSideLong, quantity, false); err != nil {
		return fmt.Errorf("open long leg: %w", err)
	}

	e.sleepBetween(ctx, e.config.LegDelayMin, e.config.LegDelayMax)

	if err := e.placeLeg(ctx, pairID, models.PositionSideShort, quantity, false); err != nil {
		// Вторая нога не открылась: пара неполная, чинит следующий цикл
		e.logger.Error("short leg failed, pair is partial",
			utils.PairID(pairID), utils.Err(err))
		e.adoptPair(pairID, openedAt)
		return fmt.Errorf("open short leg: %w", err)
	}

	e.adoptPair(pairID, openedAt)
	e.logger.Info("pair opened", utils.PairID(pairID), utils.Quantity(quantity))
	return nil
}

// adoptPair фиксирует открытую пару в runtime
func (e *Engine) adoptPair(pairID string, openedAt time.Time) {
	e.mu.Lock()
	e.runtime.PairID = pairID
	e.runtime.OpenedAt = openedAt
	e.mu.Unlock()
	e.transition(models.StateHolding)
}

// placeLeg размещает рыночный ордер одной ноги и пишет открытие в журнал
func (e *Engine) placeLeg(ctx context.Context, pairID, positionSide string, quantity float64, closing bool) error {
	side := legOrderSide(positionSide, closing)
	intent := "open"
	if closing {
		intent = "close"
	}

	started := e.now()
	result, err := e.gateway.PlaceMarketOrder(ctx, exchange.OrderRequest{
		Symbol:       e.config.Symbol,
		Side:         side,
		PositionSide: positionSide,
		Quantity:     quantity,
		ReduceOnly:   closing,
	})
	OrderExecutionLatency.WithLabelValues(positionSide, intent).
		Observe(float64(e.now().Sub(started).Milliseconds()))

	if err != nil {
		if exchange.IsOrderRejected(err) {
			RecordOrder(e.config.Symbol, "rejected")
			if recErr := e.ledger.RecordRejected(pairID, service.Fill{
				Symbol:       e.config.Symbol,
				Side:         side,
				PositionSide: positionSide,
				Quantity:     quantity,
				Timestamp:    e.now(),
			}); recErr != nil {
				e.logger.Error("failed to record rejected order", utils.Err(recErr))
			}
		} else {
			RecordOrder(e.config.Symbol, "failed")
		}
		return err
	}

	RecordOrder(e.config.Symbol, "filled")

	if closing {
		// Закрытия пишутся пачкой в closeAll, чтобы посчитать PNL пары
		return nil
	}
	return e.ledger.RecordLegOpen(pairID, e.config.Sizing.Leverage, fillFromResult(result))
}

// fillFromResult переводит результат ордера в запись журнала
func fillFromResult(result *exchange.OrderResult) service.Fill {
	return service.Fill{
		Symbol:       result.Symbol,
		Side:         result.Side,
		PositionSide: result.PositionSide,
		Quantity:     result.ExecutedQty,
		Price:        result.AvgPrice,
		OrderID:      result.OrderID,
		Timestamp:    result.Timestamp,
	}
}

// legOrderSide возвращает сторону ордера для ноги
func legOrderSide(positionSide string, closing bool) string {
	if (positionSide == models.PositionSideLong) != closing {
		return exchange.OrderSideBuy
	}
	return exchange.OrderSideSell
}

// ============================================================
// Закрытие и ротация
// ============================================================

// closeAll закрывает все открытые ноги рыночными ордерами.
// Закрытие критично, поэтому каждый ордер повторяется агрессивно.
func (e *Engine) closeAll(ctx context.Context, positions []*models.ExchangePosition, reason string) error {
	open := openLegs(positions)
	if len(open) == 0 {
		e.setIdle()
		return nil
	}

	pairID := e.Status().PairID
	fills := make([]service.Fill, 0, len(open))

	cfg := retry.AggressiveConfig()
	cfg.RetryIf = exchange.IsRetryable

	for _, p := range open {
		quantity := utils.Abs(p.PositionAmt)
		side := legOrderSide(p.PositionSide, true)

		var result *exchange.OrderResult
		err := retry.Do(ctx, func() error {
			var placeErr error
			result, placeErr = e.gateway.PlaceMarketOrder(ctx, exchange.OrderRequest{
				Symbol:       e.config.Symbol,
				Side:         side,
				PositionSide: p.PositionSide,
				Quantity:     quantity,
				ReduceOnly:   true,
			})
			return placeErr
		}, cfg)

		if err != nil {
			RecordOrder(e.config.Symbol, "failed")
			return fmt.Errorf("close %s leg: %w", p.PositionSide, err)
		}

		RecordOrder(e.config.Symbol, "filled")
		fills = append(fills, fillFromResult(result))
	}

	if pairID != "" {
		pairPnl, err := e.ledger.RecordPairClose(pairID, fills, reason)
		if err != nil {
			e.logger.Error("failed to record pair close",
				utils.PairID(pairID), utils.Err(err))
		} else {
			RealizedPnlTotal.Add(pairPnl)
		}
	}

	e.setIdle()
	e.logger.Info("pair closed",
		utils.PairID(pairID), utils.Reason(reason), utils.Int("legs", len(fills)))
	return nil
}

// rotatePair закрывает пару и открывает новую с паузой между фазами
func (e *Engine) rotatePair(ctx context.Context, positions []*models.ExchangePosition, markPrice float64) error {
	e.transition(models.StateRotating)

	if err := e.closeAll(ctx, positions, "rotation"); err != nil {
		return err
	}

	e.sleepBetween(ctx, e.config.RotateDelayMin, e.config.RotateDelayMax)

	if err := e.openPair(ctx, markPrice); err != nil {
		return fmt.Errorf("reopen after rotation: %w", err)
	}

	e.mu.Lock()
	e.runtime.Rotations++
	e.mu.Unlock()
	RotationsTotal.Inc()
	return nil
}

// ============================================================
// Runtime переходы
// ============================================================

// transition выполняет переход состояния с проверкой допустимости
func (e *Engine) transition(to string) {
	e.mu.Lock()
	from := e.runtime.State
	if from == to {
		e.mu.Unlock()
		return
	}
	e.runtime.State = to
	e.mu.Unlock()

	if !CanTransition(from, to) {
		e.logger.Warn("invalid state transition forced",
			utils.String("from", from), utils.String("to", to))
	}
	UpdatePairState(to)
}

// setIdle сбрасывает runtime в IDLE
func (e *Engine) setIdle() {
	e.mu.Lock()
	e.runtime.State = models.StateIdle
	e.runtime.PairID = ""
	e.runtime.OpenedAt = time.Time{}
	e.runtime.Legs = nil
	e.runtime.UnrealizedPnl = 0
	e.mu.Unlock()
	UpdatePairState(models.StateIdle)
}

// sleepBetween ждет случайное время в диапазоне, уважая контекст
func (e *Engine) sleepBetween(ctx context.Context, min, max time.Duration) {
	if max <= 0 {
		return
	}
	delay := min
	if max > min {
		delay = min + time.Duration(e.rng.Int63n(int64(max-min)))
	}
	if delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
