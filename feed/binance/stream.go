// Package binance streams closed one-minute klines from the Binance
// WebSocket API as price points.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rustyeddy/marginsim/market"
)

// DefaultURL is the public market data endpoint.
const DefaultURL = "wss://stream.binance.com:9443/ws"

// Stream follows the 1m kline channel of one pair and reconnects with
// exponential backoff whenever the connection drops.
type Stream struct {
	URL    string // base endpoint, DefaultURL when empty
	Pair   string
	Logger *slog.Logger
	Dialer *websocket.Dialer

	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	ReadDeadline time.Duration // zero disables the read deadline
}

func (s *Stream) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Stream) dialer() *websocket.Dialer {
	if s.Dialer != nil {
		return s.Dialer
	}
	return &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
}

// Endpoint is the full channel URL, e.g. .../ws/hbarusdc@kline_1m.
func (s *Stream) Endpoint() string {
	base := s.URL
	if base == "" {
		base = DefaultURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.ToLower(s.Pair) + "@kline_1m"
}

func (s *Stream) backoff() (lo, hi time.Duration) {
	lo, hi = s.MinBackoff, s.MaxBackoff
	if lo <= 0 {
		lo = time.Second
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Run sends one point per closed kline to out until ctx ends, which is the
// only way it returns; the error is then ctx.Err(). Points are strictly
// increasing in time, so klines repeated after a reconnect are dropped.
func (s *Stream) Run(ctx context.Context, out chan<- market.PricePoint) error {
	if s.Pair == "" {
		return errors.New("binance: pair is required")
	}
	log := s.logger().With("endpoint", s.Endpoint())
	minDelay, maxDelay := s.backoff()
	delay := minDelay

	var last int64 = -1
	for {
		received, err := s.session(ctx, out, &last)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if received {
			delay = minDelay
		}
		log.Warn("kline stream disconnected", "err", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// session runs one connection until it fails. received reports whether
// any message arrived.
func (s *Stream) session(ctx context.Context, out chan<- market.PricePoint, last *int64) (received bool, err error) {
	conn, _, err := s.dialer().DialContext(ctx, s.Endpoint(), nil)
	if err != nil {
		return false, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage when ctx ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	log := s.logger()
	log.Info("kline stream connected", "pair", s.Pair)

	for {
		if s.ReadDeadline > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.ReadDeadline))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return received, fmt.Errorf("websocket read: %w", err)
		}
		received = true

		p, closed, err := DecodeKline(msg)
		if err != nil {
			log.Debug("kline skipped", "err", err)
			continue
		}
		if !closed || p.Time <= *last {
			continue
		}

		select {
		case out <- p:
			*last = p.Time
		case <-ctx.Done():
			return received, ctx.Err()
		}
	}
}

type klineMessage struct {
	Kline *kline `json:"k"`
}

type kline struct {
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"` // declared so "T" does not land in OpenTime
	Close     string `json:"c"`
	Closed    bool   `json:"x"`
}

// DecodeKline parses a kline event. The point carries the open time in
// seconds and the close price; closed reports whether the candle is final.
func DecodeKline(msg []byte) (p market.PricePoint, closed bool, err error) {
	var m klineMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return market.PricePoint{}, false, fmt.Errorf("decode kline: %w", err)
	}
	if m.Kline == nil {
		return market.PricePoint{}, false, errors.New("decode kline: not a kline event")
	}
	price, err := strconv.ParseFloat(m.Kline.Close, 64)
	if err != nil {
		return market.PricePoint{}, false, fmt.Errorf("decode kline close %q: %w", m.Kline.Close, err)
	}
	return market.PricePoint{Time: m.Kline.OpenTime / 1000, Price: price}, m.Kline.Closed, nil
}
