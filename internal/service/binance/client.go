package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/logger"
)

// Client implements a BarStream backed by Binance kline WebSocket streams.
// One connection carries every (symbol, timeframe) kline subscription.
type Client struct {
	websocketURL   string
	symbols        []string
	timeframes     []drepo.Timeframe
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
	subID     atomic.Int64
}

// New creates a new Binance BarStream for the symbol/timeframe grid.
func New(websocketURL string, symbols []string, timeframes []drepo.Timeframe, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.BarStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		websocketURL:   websocketURL,
		symbols:        symbols,
		timeframes:     timeframes,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("binance: connected", logger.String("url", c.websocketURL))
	return nil
}

// Subscribe subscribes to the kline stream of every configured symbol and
// timeframe.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("binance not connected")
	}
	params := make([]string, 0, len(c.symbols)*len(c.timeframes))
	for _, s := range c.symbols {
		for _, tf := range c.timeframes {
			params = append(params, fmt.Sprintf("%s@kline_%s", strings.ToLower(s), tf))
		}
	}
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     c.subID.Add(1),
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	c.log.Info("binance: subscribed", logger.Int("streams", len(params)))
	return nil
}

type wsKline struct {
	OpenTime int64  `json:"t"`
	Symbol   string `json:"s"`
	Interval string `json:"i"`
	Open     string `json:"o"`
	Close    string `json:"c"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Volume   string `json:"v"`
	Closed   bool   `json:"x"`
}

type wsMessage struct {
	Data struct {
		Event string  `json:"e"`
		Kline wsKline `json:"k"`
	} `json:"data"`
}

// Read streams bar events and errors until the context ends or the socket
// fails.
func (c *Client) Read(ctx context.Context) (<-chan *models.BarEvent, <-chan error) {
	events := make(chan *models.BarEvent, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PongMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(events)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// subscription acks and other non-kline frames
					continue
				}
				if m.Data.Event != "kline" {
					continue
				}
				ev, err := barEvent(m.Data.Kline)
				if err != nil {
					c.log.Debug("binance: unparsable kline", logger.Error(err))
					continue
				}
				select {
				case events <- ev:
				default:
					// drop on backpressure, a later update supersedes it
				}
			}
		}
	}()

	return events, errs
}

func barEvent(k wsKline) (*models.BarEvent, error) {
	parse := func(name, s string) (float64, error) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("kline %s %q: %w", name, s, err)
		}
		return v, nil
	}
	open, err := parse("open", k.Open)
	if err != nil {
		return nil, err
	}
	high, err := parse("high", k.High)
	if err != nil {
		return nil, err
	}
	low, err := parse("low", k.Low)
	if err != nil {
		return nil, err
	}
	cls, err := parse("close", k.Close)
	if err != nil {
		return nil, err
	}
	vol, err := parse("volume", k.Volume)
	if err != nil {
		return nil, err
	}
	return &models.BarEvent{
		Symbol:    k.Symbol,
		Timeframe: k.Interval,
		Bar: models.Bar{
			OpenTime: time.UnixMilli(k.OpenTime).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    cls,
			Volume:   vol,
			Closed:   k.Closed,
		},
	}, nil
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
