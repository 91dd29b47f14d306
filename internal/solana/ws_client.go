package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// Commitment is the level a signature must reach before WaitForSignature returns.
	Commitment string
	// DialTimeout bounds each (re)connect.
	DialTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		Commitment:   "confirmed",
		DialTimeout:  10 * time.Second,
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// WSClientImpl implements WSClient using gorilla/websocket.
// The connection is redialed lazily by the next WaitForSignature after a
// read failure; waiters on the lost connection get ErrConnectionLost.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *slog.Logger

	conn   *websocket.Conn
	lost   chan struct{} // closed when conn's reader exits
	connMu sync.Mutex

	closed    atomic.Bool
	requestID atomic.Uint64

	// pending is keyed by request ID until the subscribe reply arrives,
	// subs by subscription ID afterwards.
	pending map[uint64]*pendingSub
	subs    map[int64]*pendingSub
	subsMu  sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

type pendingSub struct {
	signature string
	reply     chan subscribeReply
	status    chan SignatureStatus
}

type subscribeReply struct {
	subID int64
	err   error
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig, logger *slog.Logger) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.With(slog.String("component", "ws")),
		pending:  make(map[uint64]*pendingSub),
		subs:     make(map[int64]*pendingSub),
		done:     make(chan struct{}),
	}

	if _, _, err := c.ensureConn(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// ensureConn returns the live connection, dialing a new one if the last was lost.
func (c *WSClientImpl) ensureConn(ctx context.Context) (*websocket.Conn, chan struct{}, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return c.conn, c.lost, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.config.DialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", c.endpoint, err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	c.conn = conn
	c.lost = make(chan struct{})

	c.wg.Add(1)
	go c.readLoop(conn, c.lost)

	return conn, c.lost, nil
}

// Close closes the WebSocket connection and stops background goroutines.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	var err error
	if c.conn != nil {
		c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return err
}

// WaitForSignature subscribes to the signature and blocks until its
// notification arrives. On ctx expiry the subscription is dropped.
func (c *WSClientImpl) WaitForSignature(ctx context.Context, signature string) (SignatureStatus, error) {
	if c.closed.Load() {
		return SignatureStatus{}, ErrClientClosed
	}

	conn, lost, err := c.ensureConn(ctx)
	if err != nil {
		return SignatureStatus{}, err
	}

	reqID := c.requestID.Add(1)
	sub := &pendingSub{
		signature: signature,
		reply:     make(chan subscribeReply, 1),
		status:    make(chan SignatureStatus, 1),
	}
	c.subsMu.Lock()
	c.pending[reqID] = sub
	c.subsMu.Unlock()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params:  []interface{}{signature, map[string]interface{}{"commitment": c.config.Commitment}},
	}
	if err := c.write(conn, req); err != nil {
		c.dropPending(reqID)
		return SignatureStatus{}, fmt.Errorf("write subscribe: %w", err)
	}

	var subID int64
	select {
	case r := <-sub.reply:
		if r.err != nil {
			return SignatureStatus{}, r.err
		}
		subID = r.subID
	case <-lost:
		c.dropPending(reqID)
		return SignatureStatus{}, ErrConnectionLost
	case <-c.done:
		return SignatureStatus{}, ErrClientClosed
	case <-ctx.Done():
		c.dropPending(reqID)
		return SignatureStatus{}, ctx.Err()
	}

	select {
	case status := <-sub.status:
		return status, nil
	case <-lost:
		c.dropSub(subID)
		return SignatureStatus{}, ErrConnectionLost
	case <-c.done:
		return SignatureStatus{}, ErrClientClosed
	case <-ctx.Done():
		c.dropSub(subID)
		c.unsubscribe(conn, subID)
		return SignatureStatus{}, ctx.Err()
	}
}

func (c *WSClientImpl) write(conn *websocket.Conn, v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return conn.WriteJSON(v)
}

func (c *WSClientImpl) unsubscribe(conn *websocket.Conn, subID int64) {
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "signatureUnsubscribe",
		Params:  []interface{}{subID},
	}
	if err := c.write(conn, req); err != nil {
		c.logger.Debug("signature unsubscribe failed", slog.Int64("subscription", subID), slog.Any("error", err))
	}
}

func (c *WSClientImpl) dropPending(reqID uint64) {
	c.subsMu.Lock()
	delete(c.pending, reqID)
	c.subsMu.Unlock()
}

func (c *WSClientImpl) dropSub(subID int64) {
	c.subsMu.Lock()
	delete(c.subs, subID)
	c.subsMu.Unlock()
}

// readLoop reads messages until conn fails or the client closes.
func (c *WSClientImpl) readLoop(conn *websocket.Conn, lost chan struct{}) {
	defer c.wg.Done()
	defer func() {
		c.connMu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.connMu.Unlock()
		conn.Close()
		close(lost)
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.logger.Warn("websocket read failed", slog.Any("error", err))
			}
			return
		}
		c.handleMessage(message)
	}
}

// handleMessage routes subscribe replies and signature notifications.
func (c *WSClientImpl) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Debug("unparseable websocket message", slog.Any("error", err))
		return
	}

	if msg.Method == "signatureNotification" {
		if msg.Params != nil {
			c.handleSignatureNotification(msg.Params)
		}
		return
	}

	if msg.ID == nil {
		return
	}

	c.subsMu.Lock()
	sub, ok := c.pending[*msg.ID]
	if !ok {
		c.subsMu.Unlock()
		return
	}
	delete(c.pending, *msg.ID)

	var reply subscribeReply
	if msg.Error != nil {
		reply.err = msg.Error
	} else if err := json.Unmarshal(msg.Result, &reply.subID); err != nil {
		reply.err = fmt.Errorf("unmarshal subscription id: %w", err)
	} else {
		// registered before the reply is delivered so an immediate
		// notification is not lost
		c.subs[reply.subID] = sub
	}
	c.subsMu.Unlock()

	sub.reply <- reply
}

func (c *WSClientImpl) handleSignatureNotification(params *wsNotificationParams) {
	var value wsSignatureValue
	if err := json.Unmarshal(params.Result.Value, &value); err != nil {
		// receivedSignature notifications carry a bare string
		return
	}

	c.subsMu.Lock()
	sub, ok := c.subs[params.Subscription]
	delete(c.subs, params.Subscription)
	c.subsMu.Unlock()

	if !ok {
		return
	}

	status := SignatureStatus{Signature: sub.signature, Err: value.Err}
	if params.Result.Context != nil {
		status.Slot = params.Result.Context.Slot
	}
	sub.status <- status
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// a dead connection surfaces in readLoop
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsMessage is any server frame: a reply (ID set) or a notification (Method set).
type wsMessage struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      *uint64               `json:"id,omitempty"`
	Method  string                `json:"method,omitempty"`
	Result  json.RawMessage       `json:"result,omitempty"`
	Error   *rpcError             `json:"error,omitempty"`
	Params  *wsNotificationParams `json:"params,omitempty"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext      `json:"context"`
	Value   json.RawMessage `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsSignatureValue struct {
	Err interface{} `json:"err"`
}
