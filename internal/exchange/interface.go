package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/algo-traders-club/aster-operator/internal/models"
)

// Gateway определяет интерфейс доступа к фьючерсной бирже.
// Все торговые операции выполняются в hedge mode: LONG и SHORT ноги
// одного символа существуют одновременно как отдельные позиции.
type Gateway interface {
	// GetBalance получает баланс фьючерсного аккаунта в USDT
	GetBalance(ctx context.Context) (*Balance, error)

	// GetPositions получает открытые позиции по символу (обе стороны)
	GetPositions(ctx context.Context, symbol string) ([]*models.ExchangePosition, error)

	// GetMarkPrice получает текущую mark price символа
	GetMarkPrice(ctx context.Context, symbol string) (*MarkPrice, error)

	// PlaceMarketOrder размещает рыночный ордер
	PlaceMarketOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)

	// SetLeverage устанавливает плечо для символа
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// SetHedgeMode включает или выключает hedge mode для аккаунта
	SetHedgeMode(ctx context.Context, enabled bool) error

	// Close закрывает соединения с биржей
	Close() error
}

// Balance содержит баланс фьючерсного аккаунта
type Balance struct {
	Asset     string    `json:"asset"`
	Total     float64   `json:"total"`     // баланс кошелька
	Available float64   `json:"available"` // свободная маржа
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkPrice содержит mark price и данные фандинга символа
type MarkPrice struct {
	Symbol          string    `json:"symbol"`
	Price           float64   `json:"price"`
	FundingRate     float64   `json:"funding_rate"`
	NextFundingTime time.Time `json:"next_funding_time"`
	Timestamp       time.Time `json:"timestamp"`
}

// Age возвращает возраст снапшота цены
func (m *MarkPrice) Age(now time.Time) time.Duration {
	return now.Sub(m.Timestamp)
}

// OrderRequest описывает параметры рыночного ордера
type OrderRequest struct {
	Symbol       string
	Side         string // BUY или SELL
	PositionSide string // LONG или SHORT
	Quantity     float64
	ReduceOnly   bool // закрытие ноги без возможности открыть противоположную
}

// OrderResult содержит результат исполнения ордера
type OrderResult struct {
	OrderID      string    `json:"order_id"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`
	PositionSide string    `json:"position_side"`
	Quantity     float64   `json:"quantity"`
	ExecutedQty  float64   `json:"executed_qty"`
	AvgPrice     float64   `json:"avg_price"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

// Notional возвращает исполненный номинал ордера в USDT
func (o *OrderResult) Notional() float64 {
	return o.ExecutedQty * o.AvgPrice
}

// Side constants для ордеров
const (
	OrderSideBuy  = "BUY"
	OrderSideSell = "SELL"
)

// Order status constants
const (
	OrderStatusNew             = "NEW"
	OrderStatusFilled          = "FILLED"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusRejected        = "REJECTED"
)

// ============================================================================
// Ошибки биржи
// ============================================================================

// Известные коды ошибок API
const (
	codeTooManyRequests    = -1003
	codeInvalidQuantity    = -1111
	codeOrderRejected      = -2010
	codeMarginInsufficient = -2019
	codeMinNotional        = -4164
	codeLeverageNotNeeded  = -4046
	codePositionSideSame   = -4059
)

// ExchangeError представляет ошибку, возвращённую API биржи
type ExchangeError struct {
	Exchange   string
	Code       int
	Message    string
	HTTPStatus int
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s: code=%d %s", e.Exchange, e.Code, e.Message)
}

// asExchangeError извлекает *ExchangeError из цепочки ошибок
func asExchangeError(err error) (*ExchangeError, bool) {
	var apiErr *ExchangeError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsRateLimited проверяет, является ли ошибка превышением лимита запросов.
// Биржа сигнализирует это кодом -1003 либо HTTP статусами 429/418.
func IsRateLimited(err error) bool {
	var apiErr *ExchangeError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeTooManyRequests ||
		apiErr.HTTPStatus == 429 ||
		apiErr.HTTPStatus == 418
}

// IsOrderRejected проверяет, отклонён ли ордер биржей по причине,
// которую повтор не исправит (размер, маржа, минимальный номинал).
func IsOrderRejected(err error) bool {
	var apiErr *ExchangeError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case codeInvalidQuantity, codeOrderRejected, codeMarginInsufficient, codeMinNotional:
		return true
	}
	return false
}

// IsRetryable сообщает, имеет ли смысл повторить запрос.
// Отклонённые ордера повторять бессмысленно, rate limit и сетевые
// ошибки проходят после паузы.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsOrderRejected(err) {
		return false
	}
	return true
}
