package bot

import (
	"math/rand"

	"github.com/algo-traders-club/aster-operator/internal/models"
	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

// RiskManager - чистые проверки рисков и расчёт размера позиции.
// Не держит соединений и не выполняет ордеров: получает снапшот
// данных и возвращает вердикт, действия выполняет движок.
type RiskManager struct {
	config RiskParams
}

// RiskParams - параметры риск-менеджера
type RiskParams struct {
	// Стоп-лосс ноги: закрыть пару, если PNL ноги опустился
	// ниже -StopLossPct процентов её входного номинала
	StopLossPct float64

	// Максимальный чистый перекос пары в процентах капитала.
	// У дельта-нейтральной пары чистый номинал около нуля;
	// рост перекоса означает расхождение ног.
	MaxPnlDriftPct float64

	// Потолок суммарного номинала: capital * leverage * множитель
	MaxExposureMultiplier float64

	// Запас свободной маржи при открытии
	MarginHeadroomBuffer float64
}

// NewRiskManager создает новый RiskManager
func NewRiskManager(config RiskParams) *RiskManager {
	return &RiskManager{config: config}
}

// ============================================================
// Проверки открытой пары
// ============================================================

// Причины принудительного закрытия
const (
	CloseReasonStopLoss        = "stop_loss"
	CloseReasonDrift           = "pnl_drift"
	CloseReasonLiquidationRisk = "liquidation_risk"
	CloseReasonPartialPair     = "partial_pair"
	CloseReasonShutdown        = "shutdown"
)

// Assessment - вердикт по открытой паре
type Assessment struct {
	ShouldClose bool
	Reason      string

	WorstLegPnlPct float64 // худший PNL ноги, % входного номинала
	NetNotional    float64 // подписанный чистый номинал пары, USDT
	DriftPct       float64 // |NetNotional| в процентах капитала
}

// AssessPair проверяет открытые ноги по всем стоп-условиям.
// Порядок проверок фиксирован: ликвидация важнее стоп-лосса,
// стоп-лосс важнее перекоса.
func (rm *RiskManager) AssessPair(positions []*models.ExchangePosition, capital float64) Assessment {
	result := Assessment{}

	if len(positions) == 0 {
		return result
	}

	var netAmt, markPrice float64
	for _, p := range positions {
		netAmt += p.PositionAmt
		markPrice = p.MarkPrice

		if p.AtLiquidationRisk {
			result.ShouldClose = true
			result.Reason = CloseReasonLiquidationRisk
		}

		pnlPct := legPnlPct(p)
		if pnlPct < result.WorstLegPnlPct {
			result.WorstLegPnlPct = pnlPct
		}
	}

	result.NetNotional = netAmt * markPrice
	if capital > 0 {
		result.DriftPct = utils.Abs(result.NetNotional) / capital * 100
	}

	if result.ShouldClose {
		return result
	}

	if rm.config.StopLossPct > 0 && result.WorstLegPnlPct <= -rm.config.StopLossPct {
		result.ShouldClose = true
		result.Reason = CloseReasonStopLoss
		return result
	}

	if rm.config.MaxPnlDriftPct > 0 && result.DriftPct > rm.config.MaxPnlDriftPct {
		result.ShouldClose = true
		result.Reason = CloseReasonDrift
		return result
	}

	// Одинокая нога - сломанная пара, закрываем и начинаем заново
	if len(positions) == 1 {
		result.ShouldClose = true
		result.Reason = CloseReasonPartialPair
	}

	return result
}

// legPnlPct возвращает PNL ноги в процентах её входного номинала
func legPnlPct(p *models.ExchangePosition) float64 {
	entryNotional := utils.Abs(p.PositionAmt) * p.EntryPrice
	if entryNotional == 0 {
		return 0
	}
	return p.UnrealizedPnl / entryNotional * 100
}

// ============================================================
// Проверки перед открытием
// ============================================================

// CanOpen проверяет, допустимо ли открыть пару заданного номинала.
// legNotional - номинал одной ноги; пара занимает два таких номинала.
func (rm *RiskManager) CanOpen(legNotional, capital float64, leverage int, available float64, openNotional float64) (bool, string) {
	pairNotional := 2 * legNotional

	// Потолок суммарной экспозиции
	maxExposure := capital * float64(leverage) * rm.config.MaxExposureMultiplier
	if rm.config.MaxExposureMultiplier > 0 && openNotional+pairNotional > maxExposure {
		return false, "exposure_cap"
	}

	// Запас маржи: нужная маржа пары с буфером должна помещаться
	// в свободный баланс
	if leverage <= 0 {
		leverage = 1
	}
	requiredMargin := pairNotional / float64(leverage) * rm.config.MarginHeadroomBuffer
	if available < requiredMargin {
		return false, "insufficient_margin"
	}

	return true, ""
}

// ============================================================
// Расчёт размера
// ============================================================

// SizingParams - параметры расчёта объёма ноги
type SizingParams struct {
	Capital            float64
	MaxPositionSizePct float64
	Leverage           int
	QuantityStep       float64
	MinQuantity        float64
	RoundMode          string // down или nearest
	JitterMin          float64
	JitterMax          float64
}

// CalculatePositionSize рассчитывает объём одной ноги в базовой валюте.
// Номинал ноги = капитал * доля * плечо; объём = номинал / mark price,
// умноженный на случайный джиттер и округлённый к шагу символа.
func (rm *RiskManager) CalculatePositionSize(params SizingParams, markPrice float64, rng *rand.Rand) (float64, error) {
	if markPrice <= 0 {
		return 0, &InsufficientSizeError{MinQuantity: params.MinQuantity, Step: params.QuantityStep}
	}

	notional := params.Capital * params.MaxPositionSizePct / 100 * float64(params.Leverage)
	quantity := notional / markPrice

	if params.JitterMax > params.JitterMin {
		quantity *= params.JitterMin + rng.Float64()*(params.JitterMax-params.JitterMin)
	}

	var rounded float64
	if params.RoundMode == "nearest" {
		rounded = utils.RoundToLotSizeNearest(quantity, params.QuantityStep)
	} else {
		rounded = utils.RoundToLotSize(quantity, params.QuantityStep)
	}

	if rounded < params.MinQuantity || rounded <= 0 {
		return 0, &InsufficientSizeError{
			Computed:    rounded,
			MinQuantity: params.MinQuantity,
			Step:        params.QuantityStep,
		}
	}

	return rounded, nil
}
