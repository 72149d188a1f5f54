package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/klever-io/klever-connect-sub000/address"
	"github.com/klever-io/klever-connect-sub000/transaction"
	"github.com/klever-io/klever-connect-sub000/types"
)

// wsProvider talks to the node's WebSocket endpoint. Requests and responses
// are correlated by id; server-pushed transaction events are fanned out to
// subscribers.
type wsProvider struct {
	endpoint string
	conn     *websocket.Conn
	timeout  time.Duration

	writeMu sync.Mutex
	closed  atomic.Bool

	nextID  atomic.Uint64
	mu      sync.Mutex
	pending map[uint64]chan *wsMessage
	subs    []chan *TransactionEvent
}

// wsMessage is the single frame shape of the WS API: requests carry method
// and params, responses echo the id, events carry only the event field.
type wsMessage struct {
	ID     uint64           `json:"id,omitempty"`
	Method string           `json:"method,omitempty"`
	Params json.RawMessage  `json:"params,omitempty"`
	Result json.RawMessage  `json:"result,omitempty"`
	Error  *types.NodeError `json:"error,omitempty"`
	Event  *wsEvent         `json:"event,omitempty"`
}

type wsEvent struct {
	Hash   string `json:"hash"`
	Status string `json:"status"`
	Block  uint64 `json:"block,omitempty"`
}

// NewWebSocketProvider dials the node WebSocket endpoint and starts the
// read loop.
func NewWebSocketProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	endpoint := config.endpoint()
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case !strings.HasPrefix(endpoint, "ws://") && !strings.HasPrefix(endpoint, "wss://"):
		endpoint = "ws://" + endpoint
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("dial websocket: %w", err))
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	p := &wsProvider{
		endpoint: endpoint,
		conn:     conn,
		timeout:  timeout,
		pending:  make(map[uint64]chan *wsMessage),
	}
	go p.readLoop()
	return p, nil
}

// readLoop dispatches incoming frames: responses to their waiting caller,
// events to every subscriber. It exits on the first read error, failing all
// pending calls.
func (p *wsProvider) readLoop() {
	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			p.failAll(err)
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		if msg.Event != nil {
			ev := &TransactionEvent{Hash: msg.Event.Hash, Status: msg.Event.Status, Block: msg.Event.Block}
			p.mu.Lock()
			for _, sub := range p.subs {
				select {
				case sub <- ev:
				default: // slow subscriber, drop
				}
			}
			p.mu.Unlock()
			continue
		}

		p.mu.Lock()
		ch, ok := p.pending[msg.ID]
		if ok {
			delete(p.pending, msg.ID)
		}
		p.mu.Unlock()
		if ok {
			ch <- &msg
		}
	}
}

func (p *wsProvider) failAll(err error) {
	p.closed.Store(true)
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.pending {
		delete(p.pending, id)
		close(ch)
	}
	for _, sub := range p.subs {
		close(sub)
	}
	p.subs = nil
}

// call sends one request frame and waits for its response.
func (p *wsProvider) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if p.closed.Load() {
		return nil, NewNetworkError(fmt.Errorf("connection closed"))
	}

	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	id := p.nextID.Add(1)
	ch := make(chan *wsMessage, 1)
	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()

	p.writeMu.Lock()
	err = p.conn.WriteJSON(&wsMessage{ID: id, Method: method, Params: rawParams})
	p.writeMu.Unlock()
	if err != nil {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
		return nil, NewNetworkError(err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	select {
	case <-ctx.Done():
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
		return nil, NewTimeoutError(ctx.Err())
	case msg, ok := <-ch:
		if !ok {
			return nil, NewNetworkError(fmt.Errorf("connection closed"))
		}
		if msg.Error != nil {
			return nil, NewNodeError(msg.Error)
		}
		return msg.Result, nil
	}
}

func (p *wsProvider) GetAccount(ctx context.Context, addr address.Address) (*types.Account, error) {
	result, err := p.call(ctx, "account.get", map[string]string{"address": addr.Bech32()})
	if err != nil {
		return nil, err
	}
	var account types.Account
	if err := json.Unmarshal(result, &account); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode account: %v", err))
	}
	return &account, nil
}

func (p *wsProvider) EstimateFees(ctx context.Context, req *transaction.Request) (*types.FeeEstimate, error) {
	result, err := p.call(ctx, "fees.estimate", req)
	if err != nil {
		return nil, err
	}
	var fees types.FeeEstimate
	if err := json.Unmarshal(result, &fees); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode fee estimate: %v", err))
	}
	return &fees, nil
}

func (p *wsProvider) Broadcast(ctx context.Context, tx *transaction.Transaction) (string, error) {
	txHex, err := tx.Hex()
	if err != nil {
		return "", err
	}
	result, err := p.call(ctx, "tx.broadcast", map[string]string{"tx": txHex})
	if err != nil {
		return "", err
	}
	var br types.BroadcastResult
	if err := json.Unmarshal(result, &br); err != nil {
		return "", NewInvalidResponseError(fmt.Sprintf("decode broadcast result: %v", err))
	}
	return br.TxHash, nil
}

func (p *wsProvider) GetTransaction(ctx context.Context, hash string) (*types.TransactionStatus, error) {
	result, err := p.call(ctx, "tx.get", map[string]string{"hash": hash})
	if err != nil {
		return nil, err
	}
	var status types.TransactionStatus
	if err := json.Unmarshal(result, &status); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode transaction status: %v", err))
	}
	return &status, nil
}

func (p *wsProvider) SubscribeTransactions(ctx context.Context, filter *EventFilter) (<-chan *TransactionEvent, error) {
	params := map[string][]string{}
	if filter != nil {
		for _, a := range filter.Addresses {
			params["addresses"] = append(params["addresses"], a.Bech32())
		}
	}
	if _, err := p.call(ctx, "tx.subscribe", params); err != nil {
		return nil, err
	}

	ch := make(chan *TransactionEvent, 16)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()

	// Tear the subscription down with the caller's context.
	go func() {
		<-ctx.Done()
		p.mu.Lock()
		for i, sub := range p.subs {
			if sub == ch {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				close(ch)
				break
			}
		}
		p.mu.Unlock()
	}()

	return ch, nil
}

func (p *wsProvider) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.conn.Close()
}
