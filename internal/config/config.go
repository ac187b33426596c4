package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/algo-traders-club/aster-operator/pkg/crypto"
	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

// Config содержит всю конфигурацию оператора
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Exchange ExchangeConfig
	Strategy StrategyConfig
	Risk     RiskConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера операторского API
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// ExchangeConfig - подключение к бирже
type ExchangeConfig struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	WSURL      string
	RecvWindow int64 // recvWindow подписанных запросов, мс

	// Rate limits по категориям запросов (req/sec)
	OrderRate   float64
	MarketRate  float64
	AccountRate float64
}

// StrategyConfig - параметры стратегии hold-and-rotate
type StrategyConfig struct {
	Symbol             string
	CapitalUSDT        float64       // рабочий капитал
	Leverage           int           // плечо
	CycleInterval      time.Duration // период цикла
	MinHoldTime        time.Duration // минимальное удержание до ротации
	MaxPositionSizePct float64       // % капитала на пару (до плеча)
	DailyVolumeTarget  float64       // дневная цель объёма, USDT
	WeeklyHoldTarget   float64       // недельная цель hold-time-weighted объёма, USDT
	QuantityStep       float64       // шаг объёма символа
	MinQuantity        float64       // минимальный объём ордера
	QuantityRoundMode  string        // down или nearest
	JitterMin          float64       // нижняя граница множителя объёма
	JitterMax          float64       // верхняя граница множителя объёма
	LegDelayMin        time.Duration // пауза между ногами при открытии
	LegDelayMax        time.Duration
	RotateDelayMin     time.Duration // пауза между закрытием и переоткрытием
	RotateDelayMax     time.Duration
	FreshnessThreshold time.Duration // максимальный возраст данных снапшота
}

// RiskConfig - лимиты риск-менеджера
type RiskConfig struct {
	StopLossPct           float64 // стоп-лосс ноги, % от входного номинала
	MaxPnlDriftPct        float64 // максимальный чистый перекос, % капитала
	MaxExposureMultiplier float64 // потолок суммарного номинала: capital*leverage*мультипликатор
	MarginHeadroomBuffer  float64 // запас свободной маржи при открытии
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	EncryptionKey string // 32 байта для AES-256; пусто - секреты в .env открытым текстом
	APITokenHash  string // bcrypt-хеш токена операторского API; пусто - API без авторизации
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level       string
	Format      string
	Output      string
	Development bool
}

// Load загружает конфигурацию из переменных окружения.
// Значения по умолчанию соответствуют консервативному профилю для BTCUSDT.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "aster_operator"),
			User:     getEnv("DB_USER", "operator"),
			Password: getEnv("DB_PASSWORD", "operator"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Exchange: ExchangeConfig{
			APIKey:     getEnv("ASTER_API_KEY", ""),
			APISecret:  getEnv("ASTER_API_SECRET", ""),
			BaseURL:    getEnv("ASTER_BASE_URL", "https://fapi.asterdex.com"),
			WSURL:      getEnv("ASTER_WS_URL", "wss://fstream.asterdex.com"),
			RecvWindow: int64(getEnvAsInt("ASTER_RECV_WINDOW_MS", 5000)),

			OrderRate:   getEnvAsFloat("RATE_LIMIT_ORDER", 5),
			MarketRate:  getEnvAsFloat("RATE_LIMIT_MARKET", 20),
			AccountRate: getEnvAsFloat("RATE_LIMIT_ACCOUNT", 10),
		},
		Strategy: StrategyConfig{
			Symbol:             utils.NormalizeSymbol(getEnv("SYMBOL", "BTCUSDT")),
			CapitalUSDT:        getEnvAsFloat("CAPITAL_USDT", 100),
			Leverage:           getEnvAsInt("LEVERAGE", 15),
			CycleInterval:      getEnvAsDuration("CYCLE_INTERVAL", 10*time.Minute),
			MinHoldTime:        getEnvAsDuration("MIN_HOLD_TIME", 90*time.Minute),
			MaxPositionSizePct: getEnvAsFloat("MAX_POSITION_SIZE_PCT", 1.5),
			DailyVolumeTarget:  getEnvAsFloat("DAILY_VOLUME_TARGET", 15000),
			WeeklyHoldTarget:   getEnvAsFloat("WEEKLY_HOLD_TARGET", 105000),
			QuantityStep:       getEnvAsFloat("QUANTITY_STEP", 0.001),
			MinQuantity:        getEnvAsFloat("MIN_QUANTITY", 0.001),
			QuantityRoundMode:  getEnv("QUANTITY_ROUND_MODE", "down"),
			JitterMin:          getEnvAsFloat("SIZE_JITTER_MIN", 0.95),
			JitterMax:          getEnvAsFloat("SIZE_JITTER_MAX", 1.05),
			LegDelayMin:        getEnvAsDuration("LEG_DELAY_MIN", 2*time.Second),
			LegDelayMax:        getEnvAsDuration("LEG_DELAY_MAX", 5*time.Second),
			RotateDelayMin:     getEnvAsDuration("ROTATE_DELAY_MIN", 5*time.Second),
			RotateDelayMax:     getEnvAsDuration("ROTATE_DELAY_MAX", 10*time.Second),
			FreshnessThreshold: getEnvAsDuration("DATA_FRESHNESS_THRESHOLD", 30*time.Second),
		},
		Risk: RiskConfig{
			StopLossPct:           getEnvAsFloat("STOP_LOSS_PCT", 1.0),
			MaxPnlDriftPct:        getEnvAsFloat("MAX_PNL_DRIFT_PCT", 0.8),
			MaxExposureMultiplier: getEnvAsFloat("MAX_EXPOSURE_MULTIPLIER", 0.5),
			MarginHeadroomBuffer:  getEnvAsFloat("MARGIN_HEADROOM_BUFFER", 1.2),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
			APITokenHash:  getEnv("API_TOKEN_HASH", ""),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "json"),
			Output:      getEnv("LOG_OUTPUT", ""),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Секреты могут храниться зашифрованными (base64 AES-256-GCM)
	if err := cfg.decryptSecrets(); err != nil {
		return nil, err
	}

	// Валидация критичных параметров
	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decryptSecrets расшифровывает API ключи, если задан ENCRYPTION_KEY
// и значения помечены префиксом enc:
func (c *Config) decryptSecrets() error {
	if c.Security.EncryptionKey == "" {
		return nil
	}

	if err := crypto.ValidateKey([]byte(c.Security.EncryptionKey)); err != nil {
		return fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}

	var err error
	if c.Exchange.APIKey, err = maybeDecrypt(c.Exchange.APIKey, c.Security.EncryptionKey); err != nil {
		return fmt.Errorf("ASTER_API_KEY: %w", err)
	}
	if c.Exchange.APISecret, err = maybeDecrypt(c.Exchange.APISecret, c.Security.EncryptionKey); err != nil {
		return fmt.Errorf("ASTER_API_SECRET: %w", err)
	}
	return nil
}

func maybeDecrypt(value, key string) (string, error) {
	const prefix = "enc:"
	if len(value) <= len(prefix) || value[:len(prefix)] != prefix {
		return value, nil
	}
	return crypto.DecryptWithKeyString(value[len(prefix):], key)
}

// validateSecurity проверяет учётные данные биржи
func (c *Config) validateSecurity() error {
	if c.Exchange.APIKey == "" {
		return fmt.Errorf("ASTER_API_KEY is required")
	}
	if c.Exchange.APISecret == "" {
		return fmt.Errorf("ASTER_API_SECRET is required")
	}
	if err := utils.ValidateAPIKey(c.Exchange.APIKey); err != nil {
		return fmt.Errorf("ASTER_API_KEY: %w", err)
	}
	if err := utils.ValidateAPISecret(c.Exchange.APISecret); err != nil {
		return fmt.Errorf("ASTER_API_SECRET: %w", err)
	}
	return nil
}

// validateRanges проверяет числовые диапазоны параметров.
// Ошибка любой проверки фатальна: оператор не должен дойти до первого
// цикла с противоречивой конфигурацией.
func (c *Config) validateRanges() error {
	var errs utils.ValidationErrors

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.Add("SERVER_PORT", fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		errs.Add("DB_PORT", fmt.Sprintf("must be between 1 and 65535, got %d", c.Database.Port))
	}

	errs.AddError("SYMBOL", utils.ValidateSymbol(c.Strategy.Symbol))
	errs.AddError("LEVERAGE", utils.ValidateLeverage(c.Strategy.Leverage))
	errs.AddError("STOP_LOSS_PCT", utils.ValidateStopLoss(c.Risk.StopLossPct))

	if c.Strategy.CapitalUSDT <= 0 {
		errs.Add("CAPITAL_USDT", fmt.Sprintf("must be positive, got %v", c.Strategy.CapitalUSDT))
	}
	if c.Strategy.CycleInterval <= 0 {
		errs.Add("CYCLE_INTERVAL", "must be positive")
	}
	if c.Strategy.MinHoldTime <= 0 {
		errs.Add("MIN_HOLD_TIME", "must be positive")
	}
	if c.Strategy.WeeklyHoldTarget < 0 {
		errs.Add("WEEKLY_HOLD_TARGET", fmt.Sprintf("must be non-negative, got %v", c.Strategy.WeeklyHoldTarget))
	}
	if c.Strategy.MaxPositionSizePct <= 0 || c.Strategy.MaxPositionSizePct > 100 {
		errs.Add("MAX_POSITION_SIZE_PCT", fmt.Sprintf("must be in (0, 100], got %v", c.Strategy.MaxPositionSizePct))
	}
	if c.Strategy.QuantityStep <= 0 {
		errs.Add("QUANTITY_STEP", fmt.Sprintf("must be positive, got %v", c.Strategy.QuantityStep))
	}
	if c.Strategy.MinQuantity <= 0 {
		errs.Add("MIN_QUANTITY", fmt.Sprintf("must be positive, got %v", c.Strategy.MinQuantity))
	}
	if c.Strategy.QuantityRoundMode != "down" && c.Strategy.QuantityRoundMode != "nearest" {
		errs.Add("QUANTITY_ROUND_MODE", fmt.Sprintf("must be down or nearest, got %q", c.Strategy.QuantityRoundMode))
	}
	if c.Strategy.JitterMin <= 0 || c.Strategy.JitterMax < c.Strategy.JitterMin {
		errs.Add("SIZE_JITTER", fmt.Sprintf("invalid bounds [%v, %v]", c.Strategy.JitterMin, c.Strategy.JitterMax))
	}
	if c.Strategy.FreshnessThreshold <= 0 {
		errs.Add("DATA_FRESHNESS_THRESHOLD", "must be positive")
	}

	if c.Risk.MaxPnlDriftPct <= 0 {
		errs.Add("MAX_PNL_DRIFT_PCT", fmt.Sprintf("must be positive, got %v", c.Risk.MaxPnlDriftPct))
	}
	if c.Risk.MaxExposureMultiplier <= 0 {
		errs.Add("MAX_EXPOSURE_MULTIPLIER", fmt.Sprintf("must be positive, got %v", c.Risk.MaxExposureMultiplier))
	}
	if c.Risk.MarginHeadroomBuffer < 1 {
		errs.Add("MARGIN_HEADROOM_BUFFER", fmt.Sprintf("must be >= 1, got %v", c.Risk.MarginHeadroomBuffer))
	}

	if errs.HasErrors() {
		return fmt.Errorf("invalid configuration: %s", errs.Error())
	}
	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
