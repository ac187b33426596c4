package bot

import (
	"testing"

	"github.com/algo-traders-club/aster-operator/internal/models"
)

// TestCanTransition_ValidTransitions проверяет все валидные переходы между состояниями
func TestCanTransition_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		// IDLE → HOLDING (pair opened)
		{
			name: "IDLE → HOLDING (pair opened)",
			from: models.StateIdle,
			to:   models.StateHolding,
			want: true,
		},

		// HOLDING → ELIGIBLE (min hold time elapsed)
		{
			name: "HOLDING → ELIGIBLE (hold time elapsed)",
			from: models.StateHolding,
			to:   models.StateEligible,
			want: true,
		},
		// HOLDING → IDLE (forced close)
		{
			name: "HOLDING → IDLE (forced close)",
			from: models.StateHolding,
			to:   models.StateIdle,
			want: true,
		},

		// ELIGIBLE → ROTATING (rotation started)
		{
			name: "ELIGIBLE → ROTATING (rotation started)",
			from: models.StateEligible,
			to:   models.StateRotating,
			want: true,
		},
		// ELIGIBLE → IDLE (forced close or daily target)
		{
			name: "ELIGIBLE → IDLE (forced close)",
			from: models.StateEligible,
			to:   models.StateIdle,
			want: true,
		},

		// ROTATING → HOLDING (new pair opened)
		{
			name: "ROTATING → HOLDING (new pair opened)",
			from: models.StateRotating,
			to:   models.StateHolding,
			want: true,
		},
		// ROTATING → IDLE (reopen failed)
		{
			name: "ROTATING → IDLE (reopen failed)",
			from: models.StateRotating,
			to:   models.StateIdle,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanTransition(tt.from, tt.to)
			if got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// TestCanTransition_InvalidTransitions проверяет, что невалидные переходы отклоняются
func TestCanTransition_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		// Из IDLE можно только в HOLDING
		{name: "IDLE → ELIGIBLE (invalid, skip HOLDING)", from: models.StateIdle, to: models.StateEligible},
		{name: "IDLE → ROTATING (invalid)", from: models.StateIdle, to: models.StateRotating},
		{name: "IDLE → IDLE (invalid)", from: models.StateIdle, to: models.StateIdle},

		// Из HOLDING нельзя сразу в ROTATING, только через ELIGIBLE
		{name: "HOLDING → ROTATING (invalid, skip ELIGIBLE)", from: models.StateHolding, to: models.StateRotating},
		{name: "HOLDING → HOLDING (invalid)", from: models.StateHolding, to: models.StateHolding},

		// Из ELIGIBLE нельзя назад в HOLDING без ротации
		{name: "ELIGIBLE → HOLDING (invalid)", from: models.StateEligible, to: models.StateHolding},
		{name: "ELIGIBLE → ELIGIBLE (invalid)", from: models.StateEligible, to: models.StateEligible},

		// Из ROTATING нельзя в ELIGIBLE
		{name: "ROTATING → ELIGIBLE (invalid)", from: models.StateRotating, to: models.StateEligible},
		{name: "ROTATING → ROTATING (invalid)", from: models.StateRotating, to: models.StateRotating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanTransition(tt.from, tt.to)
			if got != false {
				t.Errorf("CanTransition(%s, %s) = %v, want false (invalid transition)", tt.from, tt.to, got)
			}
		})
	}
}

// TestCanTransition_UnknownState проверяет поведение при неизвестном состоянии
func TestCanTransition_UnknownState(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		{name: "unknown → HOLDING", from: "UNKNOWN", to: models.StateHolding},
		{name: "IDLE → unknown", from: models.StateIdle, to: "UNKNOWN"},
		{name: "empty → HOLDING", from: "", to: models.StateHolding},
		{name: "lowercase idle → HOLDING", from: "idle", to: models.StateHolding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanTransition(tt.from, tt.to)
			if got != false {
				t.Errorf("CanTransition(%s, %s) = %v, want false for unknown states", tt.from, tt.to, got)
			}
		})
	}
}

// TestStateInfo_UnknownState проверяет обработку неизвестного состояния
func TestStateInfo_UnknownState(t *testing.T) {
	tests := []struct {
		name  string
		state string
	}{
		{name: "unknown state", state: "UNKNOWN"},
		{name: "empty state", state: ""},
		{name: "lowercase holding", state: "holding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StateInfo(tt.state)
			expected := "Неизвестное состояние"
			if got != expected {
				t.Errorf("StateInfo(%q) = %q, want %q", tt.state, got, expected)
			}
		})
	}
}

// TestHasOpenPosition проверяет определение состояний с открытой позицией
func TestHasOpenPosition(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		// Состояния с открытой позицией
		{state: models.StateHolding, want: true},
		{state: models.StateEligible, want: true},
		{state: models.StateRotating, want: true},

		// Состояния без открытой позиции
		{state: models.StateIdle, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := HasOpenPosition(tt.state)
			if got != tt.want {
				t.Errorf("HasOpenPosition(%s) = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}

// TestValidTransitions_Completeness проверяет полноту таблицы переходов
func TestValidTransitions_Completeness(t *testing.T) {
	allStates := []string{
		models.StateIdle,
		models.StateHolding,
		models.StateEligible,
		models.StateRotating,
	}

	// Все состояния присутствуют в ValidTransitions
	for _, state := range allStates {
		if _, ok := ValidTransitions[state]; !ok {
			t.Errorf("State %s is not defined in ValidTransitions", state)
		}
	}

	// Лишних состояний нет
	for state := range ValidTransitions {
		found := false
		for _, s := range allStates {
			if s == state {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Unknown state %s in ValidTransitions", state)
		}
	}
}

// TestValidTransitions_NoSelfLoops проверяет отсутствие переходов в себя
func TestValidTransitions_NoSelfLoops(t *testing.T) {
	for from, tos := range ValidTransitions {
		for _, to := range tos {
			if from == to {
				t.Errorf("Self-loop detected: %s -> %s", from, to)
			}
		}
	}
}

// TestStateFlow_NormalRotationCycle проверяет полный цикл удержания с ротацией
func TestStateFlow_NormalRotationCycle(t *testing.T) {
	// Нормальный цикл: IDLE → HOLDING → ELIGIBLE → ROTATING → HOLDING
	cycle := []string{
		models.StateIdle,
		models.StateHolding,
		models.StateEligible,
		models.StateRotating,
		models.StateHolding,
	}

	for i := 0; i < len(cycle)-1; i++ {
		from := cycle[i]
		to := cycle[i+1]
		if !CanTransition(from, to) {
			t.Errorf("Rotation cycle broken: cannot transition from %s to %s", from, to)
		}
	}
}

// TestStateFlow_ForcedCloseCycle проверяет аварийное закрытие из любой фазы
func TestStateFlow_ForcedCloseCycle(t *testing.T) {
	// Принудительное закрытие возвращает пару в IDLE
	from := []string{
		models.StateHolding,
		models.StateEligible,
		models.StateRotating,
	}

	for _, state := range from {
		if !CanTransition(state, models.StateIdle) {
			t.Errorf("Forced close broken: cannot transition from %s to IDLE", state)
		}
	}
}
