package utils

import (
	"math"
	"testing"
)

// ============================================================
// Тесты RoundToLotSize
// ============================================================

func TestRoundToLotSize(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		lotSize  float64
		expected float64
	}{
		// Базовые кейсы
		{"exact match", 0.123, 0.001, 0.123},
		{"round down", 0.123456, 0.001, 0.123},
		{"round down 2", 1.999, 0.01, 1.99},
		{"whole numbers", 100.5, 1.0, 100.0},

		// Граничные случаи
		{"zero value", 0, 0.001, 0},
		{"zero lotSize", 0.123, 0, 0.123},
		{"negative lotSize", 0.123, -0.001, 0.123},
		{"very small lotSize", 1.23456789, 0.00000001, 1.23456789},

		// BTC примеры
		{"BTC lot 0.001", 0.5, 0.001, 0.5},
		{"BTC lot 0.001 round", 0.1234, 0.001, 0.123},
		{"BTC sub-step truncates to zero", 0.000613, 0.001, 0.0},

		// Большие числа
		{"large number", 12345.6789, 0.01, 12345.67},
		{"very large", 1000000.999, 1.0, 1000000.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToLotSize(tt.value, tt.lotSize)
			if !floatEquals(result, tt.expected) {
				t.Errorf("RoundToLotSize(%v, %v) = %v, want %v",
					tt.value, tt.lotSize, result, tt.expected)
			}
		})
	}
}

func TestRoundToLotSizeUp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		lotSize  float64
		expected float64
	}{
		{"exact match", 0.123, 0.001, 0.123},
		{"round up", 0.1231, 0.001, 0.124},
		{"round up 2", 1.991, 0.01, 2.0},
		{"zero lotSize", 0.123, 0, 0.123},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToLotSizeUp(tt.value, tt.lotSize)
			if !floatEquals(result, tt.expected) {
				t.Errorf("RoundToLotSizeUp(%v, %v) = %v, want %v",
					tt.value, tt.lotSize, result, tt.expected)
			}
		})
	}
}

func TestRoundToLotSizeNearest(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		lotSize  float64
		expected float64
	}{
		{"exact match", 0.123, 0.001, 0.123},
		{"round down", 0.1234, 0.001, 0.123},
		{"round up", 0.1236, 0.001, 0.124},
		{"midpoint rounds up", 0.1235, 0.001, 0.124},
		// Первый боевой ордер: 0.000613 BTC при шаге 0.001
		{"sub-step rounds to full step", 0.000613, 0.001, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToLotSizeNearest(tt.value, tt.lotSize)
			if !floatEquals(result, tt.expected) {
				t.Errorf("RoundToLotSizeNearest(%v, %v) = %v, want %v",
					tt.value, tt.lotSize, result, tt.expected)
			}
		})
	}
}

// ============================================================
// Тесты CalculatePNL
// ============================================================

func TestCalculatePNL(t *testing.T) {
	tests := []struct {
		name         string
		side         string
		entryPrice   float64
		currentPrice float64
		quantity     float64
		expected     float64
	}{
		{"long profit", "LONG", 100.0, 110.0, 1.0, 10.0},
		{"long loss", "LONG", 100.0, 90.0, 1.0, -10.0},
		{"short profit", "SHORT", 100.0, 90.0, 1.0, 10.0},
		{"short loss", "SHORT", 100.0, 110.0, 1.0, -10.0},
		{"lowercase side", "long", 100.0, 105.0, 2.0, 10.0},
		{"zero quantity", "LONG", 100.0, 110.0, 0, 0},
		{"unknown side", "both", 100.0, 110.0, 1.0, 0},
		{"btc sized leg", "LONG", 93000.0, 93093.0, 0.001, 0.093},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculatePNL(tt.side, tt.entryPrice, tt.currentPrice, tt.quantity)
			if !floatEquals(result, tt.expected) {
				t.Errorf("CalculatePNL(%s, %v, %v, %v) = %v, want %v",
					tt.side, tt.entryPrice, tt.currentPrice, tt.quantity, result, tt.expected)
			}
		})
	}
}

func TestCalculatePNLPct(t *testing.T) {
	tests := []struct {
		name         string
		side         string
		entryPrice   float64
		currentPrice float64
		expected     float64
	}{
		{"long down 1.2pct", "LONG", 100.0, 98.8, -1.2},
		{"short down 1.2pct gains", "SHORT", 100.0, 98.8, 1.2},
		{"flat", "LONG", 95000.0, 95000.0, 0},
		{"zero entry", "LONG", 0, 100.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculatePNLPct(tt.side, tt.entryPrice, tt.currentPrice)
			if !floatEquals(result, tt.expected) {
				t.Errorf("CalculatePNLPct(%s, %v, %v) = %v, want %v",
					tt.side, tt.entryPrice, tt.currentPrice, result, tt.expected)
			}
		})
	}
}

func TestCalculatePairPNL_DeltaNeutral(t *testing.T) {
	// Симметричная пара: движение цены компенсируется между ногами
	pnl := CalculatePairPNL(94000.0, 94000.0, 95000.0, 0.001, 0.001)
	if !floatEquals(pnl, 0) {
		t.Errorf("expected zero pair PNL for symmetric legs, got %v", pnl)
	}

	// Перекошенная пара: лонг больше, рост цены даёт прибыль
	pnl = CalculatePairPNL(94000.0, 94000.0, 95000.0, 0.002, 0.001)
	if !floatEquals(pnl, 1.0) {
		t.Errorf("expected 1.0 PNL for skewed pair, got %v", pnl)
	}
}

// ============================================================
// Тесты NetNotional
// ============================================================

func TestNetNotional(t *testing.T) {
	tests := []struct {
		name      string
		longQty   float64
		shortQty  float64
		markPrice float64
		expected  float64
	}{
		{"balanced pair", 0.001, 0.001, 95000.0, 0},
		{"long only", 0.001, 0, 95000.0, 95.0},
		{"short only", 0, 0.001, 95000.0, -95.0},
		{"skewed", 0.003, 0.001, 50000.0, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NetNotional(tt.longQty, tt.shortQty, tt.markPrice)
			if !floatEquals(result, tt.expected) {
				t.Errorf("NetNotional(%v, %v, %v) = %v, want %v",
					tt.longQty, tt.shortQty, tt.markPrice, result, tt.expected)
			}
		})
	}
}

// ============================================================
// Тесты Clamp
// ============================================================

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{"within range", 1.0, 0.95, 1.05, 1.0},
		{"below min", 0.9, 0.95, 1.05, 0.95},
		{"above max", 1.1, 0.95, 1.05, 1.05},
		{"at min", 0.95, 0.95, 1.05, 0.95},
		{"at max", 1.05, 0.95, 1.05, 1.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clamp(tt.value, tt.min, tt.max)
			if result != tt.expected {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v",
					tt.value, tt.min, tt.max, result, tt.expected)
			}
		})
	}
}

// floatEquals сравнивает float64 с допуском на погрешность
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
