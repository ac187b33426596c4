package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики стратегии
// ============================================================

// ============ Метрики цикла ============

// CyclesTotal - количество циклов по принятым решениям
var CyclesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aster",
		Subsystem: "strategy",
		Name:      "cycles_total",
		Help:      "Total number of strategy cycles by resulting action",
	},
	[]string{"action"}, // hold, open_pair, rotate, close_all, skip, error
)

// CycleDuration - длительность цикла
var CycleDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "aster",
		Subsystem: "strategy",
		Name:      "cycle_duration_seconds",
		Help:      "Time to complete one strategy cycle",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	},
)

// OrderExecutionLatency - время исполнения ордера на бирже
var OrderExecutionLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "aster",
		Subsystem: "exchange",
		Name:      "order_execution_latency_ms",
		Help:      "Time to execute order on exchange in milliseconds",
		Buckets:   []float64{50, 100, 200, 300, 500, 1000, 2000, 5000},
	},
	[]string{"position_side", "intent"}, // intent: open, close
)

// ============ Счётчики торговли ============

// TradesTotal - количество ордеров по результату
var TradesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aster",
		Subsystem: "strategy",
		Name:      "trades_total",
		Help:      "Total number of orders by result",
	},
	[]string{"symbol", "result"}, // result: filled, rejected, failed
)

// RotationsTotal - количество выполненных ротаций
var RotationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "aster",
		Subsystem: "strategy",
		Name:      "rotations_total",
		Help:      "Total number of completed pair rotations",
	},
)

// ForcedClosesTotal - принудительные закрытия по причинам
var ForcedClosesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aster",
		Subsystem: "risk",
		Name:      "forced_closes_total",
		Help:      "Number of forced pair closes by reason",
	},
	[]string{"reason"}, // stop_loss, pnl_drift, liquidation_risk, partial_pair, shutdown
)

// RealizedPnlTotal - накопленный реализованный PNL в USDT.
// Gauge, а не counter: PNL пары бывает отрицательным.
var RealizedPnlTotal = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "aster",
		Subsystem: "strategy",
		Name:      "realized_pnl_usdt",
		Help:      "Cumulative realized PnL in USDT across all closed pairs",
	},
)

// ============ Метрики состояния ============

// PairStateGauge - текущее состояние пары (1 для активного состояния)
var PairStateGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "aster",
		Subsystem: "strategy",
		Name:      "pair_state",
		Help:      "Current pair state (1 = active state)",
	},
	[]string{"state"}, // IDLE, HOLDING, ELIGIBLE, ROTATING
)

// OpenLegsGauge - количество открытых ног
var OpenLegsGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "aster",
		Subsystem: "strategy",
		Name:      "open_legs",
		Help:      "Current number of open legs on the exchange",
	},
)

// DailyVolumeGauge - накопленный за день объём
var DailyVolumeGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "aster",
		Subsystem: "strategy",
		Name:      "daily_volume_usdt",
		Help:      "Accumulated trading volume for the current UTC day in USDT",
	},
)

// NetNotionalGauge - чистый перекос пары
var NetNotionalGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "aster",
		Subsystem: "risk",
		Name:      "net_notional_usdt",
		Help:      "Signed net notional of the open pair in USDT",
	},
)

// BalanceGauge - баланс фьючерсного аккаунта
var BalanceGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "aster",
		Subsystem: "exchange",
		Name:      "balance_usdt",
		Help:      "Futures account balance in USDT",
	},
	[]string{"kind"}, // total, available
)

// StreamConnected - статус WebSocket потока mark price
var StreamConnected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "aster",
		Subsystem: "exchange",
		Name:      "mark_stream_connected",
		Help:      "Mark price stream connection status (1=connected, 0=disconnected)",
	},
)

// ============ Вспомогательные функции ============

// RecordCycle записывает результат цикла
func RecordCycle(action string, durationSeconds float64) {
	CyclesTotal.WithLabelValues(action).Inc()
	CycleDuration.Observe(durationSeconds)
}

// RecordOrder записывает результат исполнения ордера
func RecordOrder(symbol, result string) {
	TradesTotal.WithLabelValues(symbol, result).Inc()
}

// UpdatePairState выставляет gauge состояния пары
func UpdatePairState(state string) {
	for _, s := range []string{"IDLE", "HOLDING", "ELIGIBLE", "ROTATING"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		PairStateGauge.WithLabelValues(s).Set(v)
	}
}

// UpdateBalance выставляет метрики баланса
func UpdateBalance(total, available float64) {
	BalanceGauge.WithLabelValues("total").Set(total)
	BalanceGauge.WithLabelValues("available").Set(available)
}
