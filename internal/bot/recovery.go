package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

// RecoveryResult - итог сверки журнала с биржей при старте
type RecoveryResult struct {
	// PairAdopted - пара на бирже принята в runtime
	PairAdopted bool

	// PairID принятой пары, пусто если ничего не принято
	PairID string

	// OpenedAt принятой пары
	OpenedAt time.Time

	// LegsFound - ноги, найденные на бирже
	LegsFound int

	// Deactivated - записи журнала, закрытые как устаревшие
	// (журнал считал ногу открытой, биржа её не знает)
	Deactivated int

	// PartialPair - на бирже висит одинокая нога, её закроет
	// первый цикл через проверку рисков
	PartialPair bool
}

// Recover сверяет активные позиции журнала с фактом биржи после
// перезапуска и восстанавливает runtime состояние движка.
//
// Правила сверки:
//   - нога есть в журнале и на бирже: пара принимается в runtime
//     с исходным временем открытия, удержание не теряется
//   - нога есть в журнале, биржа её не знает: запись журнала
//     деактивируется, позиция закрылась вне бота
//   - нога есть на бирже, журнал её не знает: пара принимается
//     с временем открытия "сейчас", удержание отсчитывается заново
//   - на бирже одна нога: runtime принимает её, первый цикл закроет
//     неполную пару как аварийную
func (e *Engine) Recover(ctx context.Context) (*RecoveryResult, error) {
	result := &RecoveryResult{}
	now := e.now()

	active, err := e.ledger.GetActivePositions()
	if err != nil {
		return nil, fmt.Errorf("load active positions: %w", err)
	}

	onExchange, err := e.gateway.GetPositions(ctx, e.config.Symbol)
	if err != nil {
		return nil, fmt.Errorf("load exchange positions: %w", err)
	}
	open := openLegs(onExchange)
	result.LegsFound = len(open)

	exchangeSides := make(map[string]bool, len(open))
	for _, p := range open {
		exchangeSides[p.PositionSide] = true
	}

	// Записи журнала без ноги на бирже закрылись вне бота
	pairID, openedAt := "", time.Time{}
	for _, pos := range active {
		if !exchangeSides[pos.PositionSide] {
			e.logger.Warn("ledger position missing on exchange, deactivating",
				utils.PairID(pos.PairID),
				utils.Side(pos.PositionSide),
				utils.Int("position_id", pos.ID))
			if err := e.ledger.DeactivatePosition(pos.ID); err != nil {
				return nil, fmt.Errorf("deactivate position %d: %w", pos.ID, err)
			}
			result.Deactivated++
			continue
		}
		// Ноге на бирже соответствует запись журнала
		if pairID == "" || pos.OpenedAt.Before(openedAt) {
			pairID = pos.PairID
			openedAt = pos.OpenedAt
		}
	}

	if len(open) == 0 {
		e.setIdle()
		e.logger.Info("recovery complete, no open legs",
			utils.Int("deactivated", result.Deactivated))
		return result, nil
	}

	// Позиция на бирже без журнала принимается с отсчетом удержания заново
	if pairID == "" {
		pairID = uuid.NewString()
		openedAt = now
		e.logger.Warn("exchange position unknown to ledger, adopting",
			utils.PairID(pairID), utils.Int("legs", len(open)))
	}

	e.adoptPair(pairID, openedAt)
	e.syncRuntime(onExchange, Snapshot{Now: now})

	result.PairAdopted = true
	result.PairID = pairID
	result.OpenedAt = openedAt
	result.PartialPair = len(open) == 1

	e.logger.Info("recovery complete",
		utils.PairID(pairID),
		utils.Int("legs", len(open)),
		utils.Int("deactivated", result.Deactivated),
		utils.Bool("partial", result.PartialPair),
		utils.Any("opened_at", openedAt))
	return result, nil
}
