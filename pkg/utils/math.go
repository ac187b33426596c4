package utils

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// math.go - математические утилиты для позиционной торговли
//
// Назначение:
// Вспомогательные математические функции для торговых операций.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Округление до шага лота выполняется через decimal, чтобы исключить
// артефакты двоичной арифметики (0.000613 / 0.001 и т.п.).

// RoundToLotSize округляет значение ВНИЗ до ближайшего кратного lotSize.
//
// Используется для округления объёма ордера до минимального шага биржи.
// Округление вниз гарантирует, что мы не превысим доступные средства.
//
// Параметры:
//   - value: исходное значение (объём в монетах актива)
//   - lotSize: минимальный шаг изменения объёма на бирже
//
// Возвращает:
//   - Округлённое значение, кратное lotSize
//   - Если lotSize <= 0, возвращает исходное значение
//
// Примеры:
//   - RoundToLotSize(0.123456, 0.001) = 0.123
//   - RoundToLotSize(1.999, 0.01) = 1.99
func RoundToLotSize(value, lotSize float64) float64 {
	return roundToStep(value, lotSize, func(d decimal.Decimal) decimal.Decimal {
		return d.Floor()
	})
}

// RoundToLotSizeUp округляет значение ВВЕРХ до ближайшего кратного lotSize.
//
// Используется когда нужно гарантировать минимальный объём (например, для minQty).
func RoundToLotSizeUp(value, lotSize float64) float64 {
	return roundToStep(value, lotSize, func(d decimal.Decimal) decimal.Decimal {
		return d.Ceil()
	})
}

// RoundToLotSizeNearest округляет к ближайшему кратному lotSize.
//
// Стандартное математическое округление. Именно так округляла объёмы
// первая версия оператора: 0.000613 BTC при шаге 0.001 давала 0.001.
func RoundToLotSizeNearest(value, lotSize float64) float64 {
	return roundToStep(value, lotSize, func(d decimal.Decimal) decimal.Decimal {
		return d.Round(0)
	})
}

func roundToStep(value, lotSize float64, round func(decimal.Decimal) decimal.Decimal) float64 {
	if lotSize <= 0 {
		return value
	}
	v := decimal.NewFromFloat(value)
	step := decimal.NewFromFloat(lotSize)
	result, _ := round(v.Div(step)).Mul(step).Float64()
	return result
}

// CalculatePNL расчитывает прибыль/убыток по одной ноге позиции.
//
// Формулы:
//   - LONG PNL = (P_close - P_open) × qty
//   - SHORT PNL = (P_open - P_close) × qty
//
// Параметры:
//   - side: "LONG" или "SHORT" (регистр не важен)
//   - entryPrice: цена входа
//   - currentPrice: текущая/выходная цена
//   - quantity: объём позиции
//
// Возвращает:
//   - PNL в валюте котировки (обычно USDT)
func CalculatePNL(side string, entryPrice, currentPrice, quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}

	switch strings.ToUpper(side) {
	case "LONG":
		// Лонг: прибыль если цена выросла
		return (currentPrice - entryPrice) * quantity
	case "SHORT":
		// Шорт: прибыль если цена упала
		return (entryPrice - currentPrice) * quantity
	default:
		return 0
	}
}

// CalculatePNLPct расчитывает PNL ноги в процентах от входного номинала.
//
// Параметры:
//   - side: "LONG" или "SHORT"
//   - entryPrice: цена входа
//   - currentPrice: текущая цена
//
// Возвращает:
//   - PNL в процентах (например, -1.2 означает убыток 1.2%)
//   - 0 если entryPrice <= 0
func CalculatePNLPct(side string, entryPrice, currentPrice float64) float64 {
	if entryPrice <= 0 {
		return 0
	}
	return CalculatePNL(side, entryPrice, currentPrice, 1) / entryPrice * 100
}

// CalculatePairPNL расчитывает суммарный PNL дельта-нейтральной пары.
//
// Параметры:
//   - entryLong, entryShort: цены входа ног
//   - currentPrice: текущая марк-цена (общая для обеих ног)
//   - qtyLong, qtyShort: объёмы ног
//
// Возвращает:
//   - Суммарный PNL в валюте котировки
func CalculatePairPNL(entryLong, entryShort, currentPrice, qtyLong, qtyShort float64) float64 {
	longPNL := CalculatePNL("LONG", entryLong, currentPrice, qtyLong)
	shortPNL := CalculatePNL("SHORT", entryShort, currentPrice, qtyShort)
	return longPNL + shortPNL
}

// NetNotional расчитывает чистый подписанный номинал пары.
//
// Для идеально сбалансированной пары равен нулю; перекос появляется при
// частичном открытии или расхождении объёмов ног.
//
// Параметры:
//   - longQty, shortQty: объёмы ног (0 если нога отсутствует)
//   - markPrice: текущая марк-цена
//
// Возвращает:
//   - (longQty - shortQty) × markPrice, знак показывает сторону перекоса
func NetNotional(longQty, shortQty, markPrice float64) float64 {
	return (longQty - shortQty) * markPrice
}

// Abs возвращает абсолютное значение числа.
func Abs(x float64) float64 {
	return math.Abs(x)
}

// Clamp ограничивает значение диапазоном [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
