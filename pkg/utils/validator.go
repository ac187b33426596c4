package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// validator.go - валидация входных данных
//
// Назначение:
// Проверка корректности торговых параметров и учётных данных API.
// Используется конфигурацией при старте: некорректное значение должно
// останавливать процесс до первого цикла, а не всплывать посреди торговли.

var (
	ErrInvalidSymbol   = errors.New("invalid symbol format")
	ErrInvalidLeverage = errors.New("leverage must be between 1 and 100")
	ErrInvalidStopLoss = errors.New("stop loss must be between 0 and 100 percent")
	ErrInvalidAPIKey   = errors.New("api key is too short or contains invalid characters")
)

// symbolPattern - буквы, цифры и допустимые разделители, 2-30 символов
var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/_-]{1,29}$`)

// apiKeyPattern - минимум 16 символов из безопасного набора
var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

// ValidateSymbol проверяет формат торгового символа (BTCUSDT, BTC-USDT и т.п.)
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// NormalizeSymbol приводит символ к биржевому формату: верхний регистр,
// без разделителей (btc-usdt -> BTCUSDT)
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.NewReplacer("-", "", "_", "", "/", "").Replace(s)
	return s
}

// ValidateLeverage проверяет плечо (1..100)
func ValidateLeverage(leverage int) error {
	if leverage < 1 || leverage > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidLeverage, leverage)
	}
	return nil
}

// ValidateStopLoss проверяет стоп-лосс в процентах (0 < sl <= 100)
func ValidateStopLoss(sl float64) error {
	if sl <= 0 || sl > 100 {
		return fmt.Errorf("%w: got %v", ErrInvalidStopLoss, sl)
	}
	return nil
}

// ValidatePercentage проверяет процентное значение (0 <= pct <= 100)
func ValidatePercentage(pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("percentage out of range [0, 100]: %v", pct)
	}
	return nil
}

// ValidateAPIKey проверяет формат API ключа
func ValidateAPIKey(apiKey string) error {
	if !apiKeyPattern.MatchString(apiKey) {
		return ErrInvalidAPIKey
	}
	return nil
}

// ValidateAPISecret проверяет API секрет (минимальная длина, любые символы)
func ValidateAPISecret(secret string) error {
	if len(secret) < 16 {
		return errors.New("api secret is too short")
	}
	return nil
}

// IsValidSymbol - bool-вариант ValidateSymbol
func IsValidSymbol(symbol string) bool {
	return ValidateSymbol(symbol) == nil
}

// IsValidAPIKey - bool-вариант ValidateAPIKey
func IsValidAPIKey(apiKey string) bool {
	return ValidateAPIKey(apiKey) == nil
}

// ============================================================
// Накопитель ошибок валидации
// ============================================================

// ValidationError - одна ошибка валидации с именем поля
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors - набор ошибок валидации
type ValidationErrors []ValidationError

// Add добавляет ошибку с текстовым описанием
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// AddError добавляет ошибку, игнорируя nil
func (v *ValidationErrors) AddError(field string, err error) {
	if err == nil {
		return
	}
	v.Add(field, err.Error())
}

// HasErrors сообщает, накоплены ли ошибки
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Error объединяет все ошибки в одну строку
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}
