package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/api"
	"github.com/algo-traders-club/aster-operator/internal/bot"
	"github.com/algo-traders-club/aster-operator/internal/config"
	"github.com/algo-traders-club/aster-operator/internal/exchange"
	"github.com/algo-traders-club/aster-operator/internal/repository"
	"github.com/algo-traders-club/aster-operator/internal/service"
	"github.com/algo-traders-club/aster-operator/pkg/utils"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// .env опционален: в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.InitLogger(utils.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		Development: cfg.Logging.Development,
	})
	utils.SetGlobalLogger(logger)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("operator stopped", utils.Err(err))
	}
}

func run(cfg *config.Config, logger *utils.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// База данных
	db, err := initDatabase(cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	logger.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	if err := repository.EnsureSchema(db); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	// Репозитории и леджер
	tradeRepo := repository.NewTradeRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	ledger := service.NewLedgerService(tradeRepo, positionRepo, statsRepo, cfg.Strategy.MinHoldTime, logger)

	// Клиент биржи: плечо и hedge mode выставляются до первого цикла
	aster := exchange.NewAster(exchange.AsterConfig{
		APIKey:      cfg.Exchange.APIKey,
		APISecret:   cfg.Exchange.APISecret,
		BaseURL:     cfg.Exchange.BaseURL,
		RecvWindow:  cfg.Exchange.RecvWindow,
		OrderRate:   cfg.Exchange.OrderRate,
		MarketRate:  cfg.Exchange.MarketRate,
		AccountRate: cfg.Exchange.AccountRate,
	}, logger)
	defer aster.Close()

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := aster.SetHedgeMode(setupCtx, true); err != nil {
		return fmt.Errorf("set hedge mode: %w", err)
	}
	if err := aster.SetLeverage(setupCtx, cfg.Strategy.Symbol, cfg.Strategy.Leverage); err != nil {
		return fmt.Errorf("set leverage: %w", err)
	}

	// Поток mark price; REST используется как запасной источник
	marks := exchange.NewMarkStream(cfg.Exchange.WSURL, cfg.Strategy.Symbol, logger)
	if err := marks.Start(); err != nil {
		logger.Warn("mark price stream unavailable, falling back to REST", utils.Err(err))
	}
	defer marks.Close()

	// Движок стратегии
	rm := bot.NewRiskManager(bot.RiskParams{
		StopLossPct:           cfg.Risk.StopLossPct,
		MaxPnlDriftPct:        cfg.Risk.MaxPnlDriftPct,
		MaxExposureMultiplier: cfg.Risk.MaxExposureMultiplier,
		MarginHeadroomBuffer:  cfg.Risk.MarginHeadroomBuffer,
	})

	engine := bot.NewEngine(aster, ledger, marks, rm, bot.EngineConfig{
		Symbol:        cfg.Strategy.Symbol,
		CycleInterval: cfg.Strategy.CycleInterval,
		MinHoldTime:   cfg.Strategy.MinHoldTime,
		Sizing: bot.SizingParams{
			Capital:            cfg.Strategy.CapitalUSDT,
			MaxPositionSizePct: cfg.Strategy.MaxPositionSizePct,
			Leverage:           cfg.Strategy.Leverage,
			QuantityStep:       cfg.Strategy.QuantityStep,
			MinQuantity:        cfg.Strategy.MinQuantity,
			RoundMode:          cfg.Strategy.QuantityRoundMode,
			JitterMin:          cfg.Strategy.JitterMin,
			JitterMax:          cfg.Strategy.JitterMax,
		},
		DailyVolumeTarget:  cfg.Strategy.DailyVolumeTarget,
		FreshnessThreshold: cfg.Strategy.FreshnessThreshold,
		LegDelayMin:        cfg.Strategy.LegDelayMin,
		LegDelayMax:        cfg.Strategy.LegDelayMax,
		RotateDelayMin:     cfg.Strategy.RotateDelayMin,
		RotateDelayMax:     cfg.Strategy.RotateDelayMax,
	}, logger)

	// Сверка состояния после рестарта: позиции на бирже переживают процесс
	recovery, err := engine.Recover(setupCtx)
	if err != nil {
		return fmt.Errorf("recovery: %w", err)
	}
	logger.Info("recovery complete",
		utils.Bool("pair_adopted", recovery.PairAdopted),
		utils.Int("legs_found", recovery.LegsFound),
		utils.Int("deactivated", recovery.Deactivated),
		utils.Bool("partial_pair", recovery.PartialPair),
	)

	// HTTP API оператора
	router := api.SetupRoutes(&api.Dependencies{
		Status:           engine,
		Stream:           marks,
		Ledger:           ledger,
		WeeklyHoldTarget: cfg.Strategy.WeeklyHoldTarget,
		APITokenHash:     cfg.Security.APITokenHash,
		Logger:           logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting operator API", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- engine.Run(ctx)
	}()

	var runErr error
	engineStopped := false

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	case err := <-engineDone:
		engineStopped = true
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("engine: %w", err)
		}
	}

	stop()

	// Позиции на бирже не закрываются: после рестарта их подберёт Recover
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", utils.Err(err))
	}
	if !engineStopped {
		<-engineDone
	}

	logger.Info("operator exited")
	return runErr
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
