package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamPingInterval  = 25 * time.Second
	streamStaleAfter    = 5 * time.Minute
	streamHealthTick    = 60 * time.Second
	streamMaxBackoff    = 2 * time.Minute
	streamInitialJitter = 2 * time.Second
)

// Quote is a single real-time price tick.
type Quote struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume,omitempty"`
	TS     int64   `json:"ts,omitempty"`
}

type subscribeRequest struct {
	Action  string   `json:"action"`
	Tickers []string `json:"tickers"`
}

// QuoteStream maintains a WebSocket connection to a real-time quote feed and
// invokes a callback per tick. It reconnects with backoff and monitors
// connection health through the last message timestamp.
type QuoteStream struct {
	url     string
	tickers []string
	onQuote func(Quote)

	mu          sync.Mutex
	conn        *websocket.Conn
	lastMsgTime time.Time
}

// NewQuoteStream creates a quote stream client. onQuote runs on the read
// goroutine and must not block.
func NewQuoteStream(url string, tickers []string, onQuote func(Quote)) *QuoteStream {
	return &QuoteStream{
		url:         url,
		tickers:     tickers,
		onQuote:     onQuote,
		lastMsgTime: time.Now(),
	}
}

// Run connects and processes quotes until the context is canceled,
// reconnecting with exponential backoff on failures.
func (qs *QuoteStream) Run(ctx context.Context) {
	go qs.runHealthMonitor(ctx)

	backoff := streamInitialJitter
	for {
		if ctx.Err() != nil {
			return
		}

		if err := qs.connect(); err != nil {
			log.Printf("❌ Quote stream connection failed: %v", err)
		} else {
			backoff = streamInitialJitter
			qs.readLoop(ctx)
		}

		if ctx.Err() != nil {
			return
		}

		log.Printf("🔄 Quote stream reconnecting in %v...", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > streamMaxBackoff {
			backoff = streamMaxBackoff
		}
	}
}

func (qs *QuoteStream) connect() error {
	header := make(http.Header)
	header.Set("User-Agent", "Mozilla/5.0")

	conn, _, err := websocket.DefaultDialer.Dial(qs.url, header)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", qs.url, err)
	}

	qs.mu.Lock()
	qs.conn = conn
	qs.lastMsgTime = time.Now()
	qs.mu.Unlock()

	log.Printf("✅ Connected to quote stream %s", qs.url)
	return qs.subscribe()
}

func (qs *QuoteStream) subscribe() error {
	req := subscribeRequest{Action: "subscribe", Tickers: qs.tickers}
	if len(req.Tickers) == 0 {
		req.Tickers = []string{"*"}
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}
	if err := qs.writeMessage(data); err != nil {
		return fmt.Errorf("failed to send subscription: %w", err)
	}

	log.Printf("📡 Subscribed to %d tickers", len(req.Tickers))
	return nil
}

func (qs *QuoteStream) readLoop(ctx context.Context) {
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go qs.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			qs.closeConn()
			return
		}

		qs.mu.Lock()
		conn := qs.conn
		qs.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("⚠️  Quote stream read error: %v", err)
			}
			qs.closeConn()
			return
		}

		qs.mu.Lock()
		qs.lastMsgTime = time.Now()
		qs.mu.Unlock()

		var quote Quote
		if err := json.Unmarshal(data, &quote); err != nil {
			continue
		}
		if quote.Ticker == "" || quote.Price <= 0 {
			continue
		}
		qs.onQuote(quote)
	}
}

func (qs *QuoteStream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			qs.mu.Lock()
			conn := qs.conn
			if conn != nil {
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					log.Println("Failed to send ping:", err)
				}
			}
			qs.mu.Unlock()
		}
	}
}

// runHealthMonitor closes the connection when no message arrives for too
// long, which kicks the read loop into a reconnect.
func (qs *QuoteStream) runHealthMonitor(ctx context.Context) {
	ticker := time.NewTicker(streamHealthTick)
	defer ticker.Stop()

	log.Println("💓 Quote stream health monitoring started")

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Quote stream health monitoring stopped")
			return
		case <-ticker.C:
			qs.mu.Lock()
			idle := time.Since(qs.lastMsgTime)
			connected := qs.conn != nil
			qs.mu.Unlock()

			if connected && idle > streamStaleAfter {
				log.Printf("⚠️  No quote received for %v, forcing reconnect...", idle.Round(time.Second))
				qs.closeConn()
			}
		}
	}
}

func (qs *QuoteStream) writeMessage(data []byte) error {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	if qs.conn == nil {
		return fmt.Errorf("connection is nil")
	}
	return qs.conn.WriteMessage(websocket.TextMessage, data)
}

func (qs *QuoteStream) closeConn() {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	if qs.conn != nil {
		_ = qs.conn.Close()
		qs.conn = nil
	}
}
