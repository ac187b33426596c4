package utils

// logger.go - структурированное логирование на базе zap
//
// Назначение:
// Единая точка инициализации логгера для всех компонентов оператора.
// Поддерживает JSON и текстовый формат, вывод в файл или stdout/stderr,
// глобальный логгер для мест, где прокидывать экземпляр неудобно.

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig - параметры инициализации логгера
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json или text
	Output      string // путь к файлу; пусто - stderr, "stdout" - stdout
	Development bool   // режим разработки (caller, stacktrace на warn)
}

// Logger - обёртка над zap.Logger с sugar-вариантом
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// parseLevel - строковый уровень в zapcore.Level, по умолчанию info
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger - создать логгер по конфигурации.
// Никогда не возвращает nil: при недоступном файле вывода откатывается
// на stderr.
func InitLogger(config LogConfig) *Logger {
	level := parseLevel(config.Level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if config.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(config.Format) {
	case "text", "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var sink zapcore.WriteSyncer
	switch config.Output {
	case "", "stderr":
		sink = zapcore.Lock(os.Stderr)
	case "stdout":
		sink = zapcore.Lock(os.Stdout)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			sink = zapcore.Lock(os.Stderr)
		} else {
			sink = zapcore.AddSync(file)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{zap.AddCaller()}
	if config.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zl := zap.New(core, opts...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// With - дочерний логгер с дополнительными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{Logger: child, sugar: child.Sugar()}
}

// Sugar - sugar-вариант логгера
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// WithComponent - логгер компонента (engine, risk, gateway, ...)
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithExchange - логгер с полем биржи
func (l *Logger) WithExchange(exchange string) *Logger {
	return l.With(Exchange(exchange))
}

// WithSymbol - логгер с полем торговой пары
func (l *Logger) WithSymbol(symbol string) *Logger {
	return l.With(Symbol(symbol))
}

// WithPairID - логгер с идентификатором позиционной пары
func (l *Logger) WithPairID(pairID string) *Logger {
	return l.With(PairID(pairID))
}

// ============================================================
// Глобальный логгер
// ============================================================

// InitGlobalLogger - инициализировать и установить глобальный логгер
func InitGlobalLogger(config LogConfig) *Logger {
	logger := InitLogger(config)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger - установить глобальный логгер
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger - получить глобальный логгер, при отсутствии создать
// логгер по умолчанию
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	if globalLogger != nil {
		defer globalMu.RUnlock()
		return globalLogger
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L - короткий доступ к глобальному логгеру
func L() *Logger {
	return GetGlobalLogger()
}

// Debug - debug через глобальный логгер
func Debug(msg string, fields ...zap.Field) {
	GetGlobalLogger().Debug(msg, fields...)
}

// Info - info через глобальный логгер
func Info(msg string, fields ...zap.Field) {
	GetGlobalLogger().Info(msg, fields...)
}

// Warn - warn через глобальный логгер
func Warn(msg string, fields ...zap.Field) {
	GetGlobalLogger().Warn(msg, fields...)
}

// Error - error через глобальный логгер
func Error(msg string, fields ...zap.Field) {
	GetGlobalLogger().Error(msg, fields...)
}

// Fatal - fatal через глобальный логгер (завершает процесс)
func Fatal(msg string, fields ...zap.Field) {
	GetGlobalLogger().Fatal(msg, fields...)
}

// Debugf - форматированный debug
func Debugf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Debugf(template, args...)
}

// Infof - форматированный info
func Infof(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Infof(template, args...)
}

// Warnf - форматированный warn
func Warnf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Warnf(template, args...)
}

// Errorf - форматированный error
func Errorf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Errorf(template, args...)
}

// fieldsToInterface - zap.Field в плоский список ключ/значение
func fieldsToInterface(fields []zap.Field) []interface{} {
	result := make([]interface{}, 0, len(fields)*2)
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
		result = append(result, f.Key, enc.Fields[f.Key])
	}
	return result
}

// ============================================================
// Конструкторы доменных полей
// ============================================================

// Exchange - поле биржи
func Exchange(exchange string) zap.Field { return zap.String("exchange", exchange) }

// Symbol - поле торговой пары
func Symbol(symbol string) zap.Field { return zap.String("symbol", symbol) }

// PairID - идентификатор пары позиций
func PairID(pairID string) zap.Field { return zap.String("pair_id", pairID) }

// OrderID - идентификатор ордера
func OrderID(orderID string) zap.Field { return zap.String("order_id", orderID) }

// Price - цена
func Price(price float64) zap.Field { return zap.Float64("price", price) }

// Quantity - количество в базовой валюте
func Quantity(qty float64) zap.Field { return zap.Float64("quantity", qty) }

// Notional - объём в котируемой валюте
func Notional(notional float64) zap.Field { return zap.Float64("notional", notional) }

// PNL - прибыль/убыток
func PNL(pnl float64) zap.Field { return zap.Float64("pnl", pnl) }

// Side - сторона позиции (LONG/SHORT)
func Side(side string) zap.Field { return zap.String("side", side) }

// State - состояние цикла/пары
func State(state string) zap.Field { return zap.String("state", state) }

// Latency - задержка в миллисекундах
func Latency(ms float64) zap.Field { return zap.Float64("latency_ms", ms) }

// Reason - причина решения или закрытия
func Reason(reason string) zap.Field { return zap.String("reason", reason) }

// Component - имя компонента
func Component(name string) zap.Field { return zap.String("component", name) }

// Переэкспорт стандартных конструкторов, чтобы пакеты не тянули zap напрямую
var (
	String  = zap.String
	Int     = zap.Int
	Int64   = zap.Int64
	Float64 = zap.Float64
	Bool    = zap.Bool
	Err     = zap.Error
	Any     = zap.Any
)
