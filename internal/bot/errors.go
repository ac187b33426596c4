package bot

import (
	"fmt"
	"time"
)

// InsufficientSizeError возникает, когда рассчитанный объём после
// округления к шагу символа меньше минимально допустимого
type InsufficientSizeError struct {
	Computed    float64
	MinQuantity float64
	Step        float64
}

func (e *InsufficientSizeError) Error() string {
	return fmt.Sprintf("computed quantity %.8f below minimum %.8f (step %.8f)",
		e.Computed, e.MinQuantity, e.Step)
}

// StaleDataError возникает, когда снапшот рыночных данных старше
// допустимого порога. Цикл на таких данных не принимает решений.
type StaleDataError struct {
	Age       time.Duration
	Threshold time.Duration
}

func (e *StaleDataError) Error() string {
	return fmt.Sprintf("market data is stale: age %s exceeds threshold %s", e.Age, e.Threshold)
}
