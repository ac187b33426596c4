package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/algo-traders-club/aster-operator/internal/models"
	"github.com/algo-traders-club/aster-operator/pkg/ratelimit"
	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AsterConfig - настройки подключения к Aster
type AsterConfig struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	RecvWindow int64 // мс

	// Rate limits по категориям запросов, req/sec
	OrderRate   float64
	MarketRate  float64
	AccountRate float64
}

// Aster - клиент фьючерсного REST API Aster.
// API совместим с Binance Futures: подпись HMAC-SHA256 строки запроса,
// ключ в заголовке X-MBX-APIKEY.
type Aster struct {
	apiKey     string
	secretKey  string
	baseURL    string
	recvWindow int64

	httpClient *http.Client
	limiter    *ratelimit.MultiLimiter
	logger     *utils.Logger
}

// NewAster создаёт клиент Aster.
// Использует глобальный HTTP клиент с connection pooling.
func NewAster(cfg AsterConfig, logger *utils.Logger) *Aster {
	limiter := ratelimit.NewMultiLimiter()
	limiter.Add(ratelimit.CategoryOrder, cfg.OrderRate, cfg.OrderRate+1)
	limiter.Add(ratelimit.CategoryMarket, cfg.MarketRate, cfg.MarketRate+1)
	limiter.Add(ratelimit.CategoryAccount, cfg.AccountRate, cfg.AccountRate+1)

	recvWindow := cfg.RecvWindow
	if recvWindow <= 0 {
		recvWindow = 5000
	}

	return &Aster{
		apiKey:     cfg.APIKey,
		secretKey:  cfg.APISecret,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		recvWindow: recvWindow,
		httpClient: GetGlobalHTTPClient().GetClient(),
		limiter:    limiter,
		logger:     logger.WithComponent("exchange"),
	}
}

// sign подписывает строку запроса ключом API
func (a *Aster) sign(query string) string {
	h := hmac.New(sha256.New, []byte(a.secretKey))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// parseFloat парсит строковое число из ответа API с логированием ошибок
func (a *Aster) parseFloat(value, field string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil && value != "" {
		a.logger.Warn("failed to parse numeric field",
			utils.String("field", field),
			utils.String("value", value),
			utils.Err(err))
	}
	return result
}

func (a *Aster) doRequest(ctx context.Context, method, endpoint, category string, params map[string]string, signed bool) ([]byte, error) {
	if err := a.limiter.Wait(ctx, category); err != nil {
		return nil, err
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	if signed {
		query.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		query.Set("recvWindow", strconv.FormatInt(a.recvWindow, 10))
		query.Set("signature", a.sign(query.Encode()))
	}

	reqURL := a.baseURL + endpoint
	var reqBody string
	if method == http.MethodGet || method == http.MethodDelete {
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}
	} else {
		reqBody = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, strings.NewReader(reqBody))
	if err != nil {
		return nil, err
	}

	if reqBody != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if signed {
		req.Header.Set("X-MBX-APIKEY", a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// Ошибки API приходят объектом {code, msg}; успешные ответы на
	// некоторые endpoint'ы - массивом, поэтому сначала смотрим статус
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return nil, &ExchangeError{
			Exchange:   "aster",
			Code:       apiErr.Code,
			Message:    apiErr.Msg,
			HTTPStatus: resp.StatusCode,
		}
	}

	return body, nil
}

// GetBalance возвращает баланс USDT фьючерсного аккаунта
func (a *Aster) GetBalance(ctx context.Context) (*Balance, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/fapi/v2/balance", ratelimit.CategoryAccount, nil, true)
	if err != nil {
		return nil, err
	}

	var resp []struct {
		Asset            string `json:"asset"`
		Balance          string `json:"balance"`
		AvailableBalance string `json:"availableBalance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	for _, b := range resp {
		if b.Asset == "USDT" {
			return &Balance{
				Asset:     b.Asset,
				Total:     a.parseFloat(b.Balance, "balance"),
				Available: a.parseFloat(b.AvailableBalance, "availableBalance"),
				UpdatedAt: time.Now(),
			}, nil
		}
	}

	return nil, fmt.Errorf("USDT balance not found in account")
}

// GetPositions возвращает открытые позиции символа.
// В hedge mode ответ содержит записи LONG и SHORT, нулевые отбрасываются.
func (a *Aster) GetPositions(ctx context.Context, symbol string) ([]*models.ExchangePosition, error) {
	params := map[string]string{"symbol": symbol}

	body, err := a.doRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", ratelimit.CategoryAccount, params, true)
	if err != nil {
		return nil, err
	}

	var resp []struct {
		Symbol           string `json:"symbol"`
		PositionSide     string `json:"positionSide"`
		PositionAmt      string `json:"positionAmt"`
		EntryPrice       string `json:"entryPrice"`
		MarkPrice        string `json:"markPrice"`
		UnRealizedProfit string `json:"unRealizedProfit"`
		LiquidationPrice string `json:"liquidationPrice"`
		Leverage         string `json:"leverage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	positions := make([]*models.ExchangePosition, 0, 2)
	for _, p := range resp {
		amt := a.parseFloat(p.PositionAmt, "positionAmt")
		if amt == 0 {
			continue
		}

		leverage, _ := strconv.Atoi(p.Leverage)
		positions = append(positions, &models.ExchangePosition{
			Symbol:           p.Symbol,
			PositionSide:     p.PositionSide,
			PositionAmt:      amt,
			EntryPrice:       a.parseFloat(p.EntryPrice, "entryPrice"),
			MarkPrice:        a.parseFloat(p.MarkPrice, "markPrice"),
			UnrealizedPnl:    a.parseFloat(p.UnRealizedProfit, "unRealizedProfit"),
			LiquidationPrice: a.parseFloat(p.LiquidationPrice, "liquidationPrice"),
			Leverage:         leverage,
		})
	}

	return positions, nil
}

// GetMarkPrice возвращает mark price символа через REST
func (a *Aster) GetMarkPrice(ctx context.Context, symbol string) (*MarkPrice, error) {
	params := map[string]string{"symbol": symbol}

	body, err := a.doRequest(ctx, http.MethodGet, "/fapi/v1/premiumIndex", ratelimit.CategoryMarket, params, false)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Symbol          string `json:"symbol"`
		MarkPrice       string `json:"markPrice"`
		LastFundingRate string `json:"lastFundingRate"`
		NextFundingTime int64  `json:"nextFundingTime"`
		Time            int64  `json:"time"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	return &MarkPrice{
		Symbol:          resp.Symbol,
		Price:           a.parseFloat(resp.MarkPrice, "markPrice"),
		FundingRate:     a.parseFloat(resp.LastFundingRate, "lastFundingRate"),
		NextFundingTime: time.UnixMilli(resp.NextFundingTime),
		Timestamp:       time.UnixMilli(resp.Time),
	}, nil
}

// PlaceMarketOrder размещает рыночный ордер в hedge mode
func (a *Aster) PlaceMarketOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	params := map[string]string{
		"symbol":           req.Symbol,
		"side":             req.Side,
		"positionSide":     req.PositionSide,
		"type":             "MARKET",
		"quantity":         strconv.FormatFloat(req.Quantity, 'f', -1, 64),
		"newOrderRespType": "RESULT",
	}
	// В hedge mode reduceOnly не передаётся: сторона закрытия
	// определяется комбинацией side и positionSide

	body, err := a.doRequest(ctx, http.MethodPost, "/fapi/v1/order", ratelimit.CategoryOrder, params, true)
	if err != nil {
		return nil, err
	}

	var resp struct {
		OrderID      int64  `json:"orderId"`
		Symbol       string `json:"symbol"`
		Side         string `json:"side"`
		PositionSide string `json:"positionSide"`
		OrigQty      string `json:"origQty"`
		ExecutedQty  string `json:"executedQty"`
		AvgPrice     string `json:"avgPrice"`
		Status       string `json:"status"`
		UpdateTime   int64  `json:"updateTime"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	result := &OrderResult{
		OrderID:      strconv.FormatInt(resp.OrderID, 10),
		Symbol:       resp.Symbol,
		Side:         resp.Side,
		PositionSide: resp.PositionSide,
		Quantity:     a.parseFloat(resp.OrigQty, "origQty"),
		ExecutedQty:  a.parseFloat(resp.ExecutedQty, "executedQty"),
		AvgPrice:     a.parseFloat(resp.AvgPrice, "avgPrice"),
		Status:       resp.Status,
		Timestamp:    time.UnixMilli(resp.UpdateTime),
	}

	if result.Status == OrderStatusRejected {
		return result, &ExchangeError{
			Exchange: "aster",
			Code:     codeOrderRejected,
			Message:  fmt.Sprintf("order %s rejected", result.OrderID),
		}
	}

	return result, nil
}

// SetLeverage устанавливает плечо символа.
// Код -4046 означает, что плечо уже установлено, это не ошибка.
func (a *Aster) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := map[string]string{
		"symbol":   symbol,
		"leverage": strconv.Itoa(leverage),
	}

	_, err := a.doRequest(ctx, http.MethodPost, "/fapi/v1/leverage", ratelimit.CategoryAccount, params, true)
	if apiErr, ok := asExchangeError(err); ok && apiErr.Code == codeLeverageNotNeeded {
		return nil
	}
	return err
}

// SetHedgeMode переключает аккаунт в hedge mode (dual position side).
// Код -4059 означает, что режим уже установлен, это не ошибка.
func (a *Aster) SetHedgeMode(ctx context.Context, enabled bool) error {
	params := map[string]string{
		"dualSidePosition": strconv.FormatBool(enabled),
	}

	_, err := a.doRequest(ctx, http.MethodPost, "/fapi/v1/positionSide/dual", ratelimit.CategoryAccount, params, true)
	if apiErr, ok := asExchangeError(err); ok && apiErr.Code == codePositionSideSame {
		return nil
	}
	return err
}

// Close закрывает idle соединения клиента
func (a *Aster) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}
