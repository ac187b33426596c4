package bot

import "github.com/algo-traders-club/aster-operator/internal/models"

// ValidTransitions определяет допустимые переходы между состояниями пары
var ValidTransitions = map[string][]string{
	models.StateIdle:     {models.StateHolding},
	models.StateHolding:  {models.StateEligible, models.StateIdle}, // Idle при аварийном закрытии
	models.StateEligible: {models.StateRotating, models.StateIdle},
	models.StateRotating: {models.StateHolding, models.StateIdle}, // Idle, если переоткрытие не удалось
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StateInfo возвращает описание состояния для операторского API
func StateInfo(s string) string {
	switch s {
	case models.StateIdle:
		return "Пара не открыта"
	case models.StateHolding:
		return "Пара открыта, удержание до минимального времени"
	case models.StateEligible:
		return "Минимальное удержание выполнено, пара готова к ротации"
	case models.StateRotating:
		return "Ротация: закрытие и переоткрытие пары"
	default:
		return "Неизвестное состояние"
	}
}

// HasOpenPosition возвращает true, если в состоянии есть открытая пара
func HasOpenPosition(s string) bool {
	return s == models.StateHolding || s == models.StateEligible || s == models.StateRotating
}
