package exchange

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/algo-traders-club/aster-operator/pkg/utils"
)

// MarkStream кэширует mark price символа из публичного WebSocket потока.
// Поток <symbol>@markPrice@1s обновляет цену раз в секунду, снапшот
// хранится с отметкой времени для проверки свежести.
type MarkStream struct {
	symbol  string
	manager *WSReconnectManager
	logger  *utils.Logger

	mu   sync.RWMutex
	last *MarkPrice
}

// NewMarkStream создаёт кэш mark price для символа.
// wsURL - базовый адрес потоков, например wss://fstream.asterdex.com
func NewMarkStream(wsURL, symbol string, logger *utils.Logger) *MarkStream {
	s := &MarkStream{
		symbol: symbol,
		logger: logger.WithComponent("markstream").With(utils.Symbol(symbol)),
	}

	streamURL := strings.TrimRight(wsURL, "/") + "/ws/" + strings.ToLower(symbol) + "@markPrice@1s"
	s.manager = NewWSReconnectManager(streamURL, DefaultWSReconnectConfig(), s.logger)
	s.manager.SetOnMessage(s.handleMessage)

	return s
}

// Start подключается к потоку. Разрывы обрабатываются менеджером,
// кэш продолжает отдавать последний снапшот с его реальным возрастом.
func (s *MarkStream) Start() error {
	return s.manager.Connect()
}

// Last возвращает последний снапшот mark price.
// Второе значение false, пока не получено ни одного обновления.
func (s *MarkStream) Last() (*MarkPrice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	snapshot := *s.last
	return &snapshot, true
}

// Connected сообщает, активно ли WebSocket соединение
func (s *MarkStream) Connected() bool {
	return s.manager.IsConnected()
}

// Close останавливает поток
func (s *MarkStream) Close() error {
	return s.manager.Close()
}

func (s *MarkStream) handleMessage(message []byte) {
	var msg struct {
		EventType       string `json:"e"`
		EventTime       int64  `json:"E"`
		Symbol          string `json:"s"`
		MarkPrice       string `json:"p"`
		FundingRate     string `json:"r"`
		NextFundingTime int64  `json:"T"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if msg.EventType != "markPriceUpdate" || msg.Symbol != s.symbol {
		return
	}

	price, err := strconv.ParseFloat(msg.MarkPrice, 64)
	if err != nil {
		s.logger.Warn("bad mark price in stream",
			utils.String("value", msg.MarkPrice), utils.Err(err))
		return
	}
	fundingRate, _ := strconv.ParseFloat(msg.FundingRate, 64)

	s.mu.Lock()
	s.last = &MarkPrice{
		Symbol:          msg.Symbol,
		Price:           price,
		FundingRate:     fundingRate,
		NextFundingTime: time.UnixMilli(msg.NextFundingTime),
		Timestamp:       time.UnixMilli(msg.EventTime),
	}
	s.mu.Unlock()
}
