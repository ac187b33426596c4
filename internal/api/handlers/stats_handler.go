package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
	"github.com/algo-traders-club/aster-operator/internal/service"
)

// StatsHandler обрабатывает HTTP запросы журнала сделок и статистики.
//
// Endpoints:
// - GET /api/v1/stats?date=YYYY-MM-DD - дневная статистика (по умолчанию сегодня)
// - GET /api/v1/stats/weekly - статистика за последние 7 дней
// - GET /api/v1/positions - активные позиции журнала
// - GET /api/v1/trades?limit=N - последние сделки
//
// Статистика включает:
// - Суммарный объём сделок за день (USDT)
// - Объём, взвешенный временем удержания
// - Количество сделок, реализованный PNL, комиссии
// - Оценку начисленных RH points
type StatsHandler struct {
	ledger           service.LedgerServiceInterface
	weeklyHoldTarget float64
}

// NewStatsHandler создает новый StatsHandler с внедрением зависимостей.
// weeklyHoldTarget - недельная цель hold-time-weighted объёма; ноль
// отключает отчёт о прогрессе.
func NewStatsHandler(ledger service.LedgerServiceInterface, weeklyHoldTarget float64) *StatsHandler {
	return &StatsHandler{
		ledger:           ledger,
		weeklyHoldTarget: weeklyHoldTarget,
	}
}

// GetDailyStats возвращает статистику одного дня.
//
// GET /api/v1/stats?date=2025-11-10
//
// Query Parameters:
// - date (optional): день в формате YYYY-MM-DD, по умолчанию текущий (UTC)
//
// Response 200 OK:
//
//	{
//	  "date": "2025-11-10T00:00:00Z",
//	  "total_volume": 1820.50,
//	  "hold_weighted_volume": 167200.0,
//	  "num_trades": 16,
//	  "realized_pnl": -0.84,
//	  "fees_paid": 1.27,
//	  "rh_points_estimated": 1672000.0
//	}
//
// Response 400 Bad Request:
//
//	{"error": "invalid date", "details": "..."}
func (h *StatsHandler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusInternalServerError, "ledger service not initialized", "")
		return
	}

	day := time.Now().UTC()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", "expected format YYYY-MM-DD")
			return
		}
		day = parsed
	}

	stats, err := h.ledger.GetDailyStats(day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// weeklyStatsResponse - прогресс недели к цели hold-time-weighted объёма
type weeklyStatsResponse struct {
	Days             []*models.DailyStats `json:"days"`
	HoldVolume       float64              `json:"hold_volume"`
	HoldVolumeTarget float64              `json:"hold_volume_target,omitempty"`
	TotalVolume      float64              `json:"total_volume"`
	RealizedPnl      float64              `json:"realized_pnl"`
}

// GetWeeklyStats возвращает статистику за последние 7 дней с прогрессом
// к недельной цели. Пустые дни опущены из days.
//
// GET /api/v1/stats/weekly
func (h *StatsHandler) GetWeeklyStats(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusInternalServerError, "ledger service not initialized", "")
		return
	}

	stats, err := h.ledger.GetWeeklyStats(time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get weekly stats", err.Error())
		return
	}

	// Пустой массив вместо null
	if stats == nil {
		stats = []*models.DailyStats{}
	}

	resp := weeklyStatsResponse{
		Days:             stats,
		HoldVolumeTarget: h.weeklyHoldTarget,
	}
	for _, day := range stats {
		resp.HoldVolume += day.HoldWeightedVolume
		resp.TotalVolume += day.TotalVolume
		resp.RealizedPnl += day.RealizedPnl
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetActivePositions возвращает активные позиции журнала.
//
// GET /api/v1/positions
//
// Response 200 OK: массив открытых ног, для целой пары их две.
func (h *StatsHandler) GetActivePositions(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusInternalServerError, "ledger service not initialized", "")
		return
	}

	positions, err := h.ledger.GetActivePositions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get positions", err.Error())
		return
	}

	if positions == nil {
		positions = []*models.Position{}
	}

	writeJSON(w, http.StatusOK, positions)
}

// GetRecentTrades возвращает последние сделки журнала.
//
// GET /api/v1/trades?limit=50
//
// Query Parameters:
// - limit (optional): количество сделок (по умолчанию 50, максимум 500)
func (h *StatsHandler) GetRecentTrades(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusInternalServerError, "ledger service not initialized", "")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", "expected positive integer")
			return
		}
		limit = parsed
		if limit > 500 {
			limit = 500
		}
	}

	trades, err := h.ledger.GetRecentTrades(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get trades", err.Error())
		return
	}

	if trades == nil {
		trades = []*models.Trade{}
	}

	writeJSON(w, http.StatusOK, trades)
}
