package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/algo-traders-club/aster-operator/internal/api/handlers"
	"github.com/algo-traders-club/aster-operator/internal/api/middleware"
	"github.com/algo-traders-club/aster-operator/internal/service"
	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	// Status - runtime состояние движка стратегии
	Status handlers.StatusProvider

	// Stream - состояние WebSocket потока mark price, может быть nil
	Stream handlers.StreamProvider

	// Ledger - журнал сделок и дневная статистика
	Ledger service.LedgerServiceInterface

	// WeeklyHoldTarget - недельная цель hold-time-weighted объёма
	// для отчёта /stats/weekly, ноль отключает
	WeeklyHoldTarget float64

	// APITokenHash - bcrypt хэш операторского токена.
	// Пустой хэш отключает аутентификацию (локальный запуск).
	APITokenHash string

	Logger *utils.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /status    - runtime состояние пары и потока данных
//	├── /stats     - дневная статистика (?date=YYYY-MM-DD)
//	├── /stats/weekly - статистика за 7 дней
//	├── /positions - активные позиции журнала
//	└── /trades    - последние сделки (?limit=N)
//
// /metrics - Prometheus метрики
// /health  - liveness проверка
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Auth (только для /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	statusHandler := handlers.NewStatusHandler(deps.Status, deps.Stream)
	statsHandler := handlers.NewStatsHandler(deps.Ledger, deps.WeeklyHoldTarget)

	// API v1 routes, закрытые операторским токеном
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(deps.APITokenHash))

	api.HandleFunc("/status", statusHandler.GetStatus).Methods("GET")
	api.HandleFunc("/stats", statsHandler.GetDailyStats).Methods("GET")
	api.HandleFunc("/stats/weekly", statsHandler.GetWeeklyStats).Methods("GET")
	api.HandleFunc("/positions", statsHandler.GetActivePositions).Methods("GET")
	api.HandleFunc("/trades", statsHandler.GetRecentTrades).Methods("GET")

	// Prometheus метрики без auth: скрейпится изнутри сети
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
