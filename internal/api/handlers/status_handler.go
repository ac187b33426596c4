package handlers

import (
	"net/http"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
)

// StatusProvider - runtime состояние движка стратегии
type StatusProvider interface {
	Status() models.PairRuntime
}

// StreamProvider - состояние WebSocket потока рыночных данных
type StreamProvider interface {
	Connected() bool
}

// StatusHandler обрабатывает запросы runtime состояния бота.
//
// Endpoints:
// - GET /api/v1/status - состояние пары, ноги, возраст удержания, поток данных
type StatusHandler struct {
	status StatusProvider
	stream StreamProvider
}

// NewStatusHandler создает новый StatusHandler с внедрением зависимостей.
func NewStatusHandler(status StatusProvider, stream StreamProvider) *StatusHandler {
	return &StatusHandler{
		status: status,
		stream: stream,
	}
}

// statusResponse - тело ответа GET /status
type statusResponse struct {
	Pair            models.PairRuntime `json:"pair"`
	HoldAgeMinutes  float64            `json:"hold_age_minutes"`
	StreamConnected bool               `json:"stream_connected"`
	ServerTime      time.Time          `json:"server_time"`
}

// GetStatus возвращает runtime состояние движка.
//
// GET /api/v1/status
//
// Response 200 OK:
//
//	{
//	  "pair": {
//	    "pair_id": "2f3a...",
//	    "symbol": "BTCUSDT",
//	    "state": "HOLDING",
//	    "legs": [...],
//	    "rotations": 4,
//	    "unrealized_pnl": -0.02
//	  },
//	  "hold_age_minutes": 42.5,
//	  "stream_connected": true,
//	  "server_time": "2025-11-10T12:00:00Z"
//	}
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeError(w, http.StatusInternalServerError, "status provider not initialized", "")
		return
	}

	now := time.Now().UTC()
	pair := h.status.Status()

	resp := statusResponse{
		Pair:           pair,
		HoldAgeMinutes: pair.HoldAge(now).Minutes(),
		ServerTime:     now,
	}
	if h.stream != nil {
		resp.StreamConnected = h.stream.Connected()
	}

	writeJSON(w, http.StatusOK, resp)
}
