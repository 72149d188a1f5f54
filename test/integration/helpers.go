// Package integration exercises the SDK end to end against an in-process
// node stub: wallet, builder, signing, broadcast and wire decoding working
// together the way a real application drives them.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klever-io/klever-connect-sub000/client"
	"github.com/klever-io/klever-connect-sub000/transaction"
	"github.com/klever-io/klever-connect-sub000/types"
)

// nodeStub is an in-process REST node: fixed accounts and fees, broadcast
// transactions become queryable with status "success".
type nodeStub struct {
	mu       sync.Mutex
	nonces   map[string]uint64
	fees     types.FeeEstimate
	received map[string]*transaction.Transaction
	block    uint64
}

func newNodeStub() *nodeStub {
	return &nodeStub{
		nonces:   make(map[string]uint64),
		fees:     types.FeeEstimate{KAppFee: 500000, BandwidthFee: 100000},
		received: make(map[string]*transaction.Transaction),
		block:    1000,
	}
}

func (n *nodeStub) setNonce(addr string, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonces[addr] = nonce
}

func (n *nodeStub) transactionByHash(hash string) *transaction.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.received[hash]
}

func (n *nodeStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/address/", func(w http.ResponseWriter, r *http.Request) {
		addr := strings.TrimPrefix(r.URL.Path, "/address/")
		n.mu.Lock()
		nonce, ok := n.nonces[addr]
		n.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "cannot find account")
			return
		}
		writeData(w, map[string]interface{}{
			"account": types.Account{Address: addr, Nonce: nonce, Balance: 10_000_000_000},
		})
	})
	mux.HandleFunc("/transaction/estimatefee", func(w http.ResponseWriter, r *http.Request) {
		var req transaction.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Sender == "" {
			writeError(w, http.StatusBadRequest, "malformed fee request")
			return
		}
		writeData(w, n.fees)
	})
	mux.HandleFunc("/transaction/broadcast", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Tx string `json:"tx"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed broadcast")
			return
		}
		tx, err := transaction.FromHex(body.Tx)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("undecodable transaction: %v", err))
			return
		}
		if !tx.IsSigned() {
			writeError(w, http.StatusBadRequest, "transaction not signed")
			return
		}
		hash, err := tx.HashHex()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unhashable transaction: %v", err))
			return
		}
		n.mu.Lock()
		n.received[hash] = tx
		n.mu.Unlock()
		writeData(w, types.BroadcastResult{TxHash: hash})
	})
	mux.HandleFunc("/transaction/", func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, "/transaction/")
		n.mu.Lock()
		_, ok := n.received[hash]
		block := n.block
		n.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeData(w, types.TransactionStatus{Hash: hash, Status: "success", Block: block})
	})
	return mux
}

func writeData(w http.ResponseWriter, data interface{}) {
	raw, _ := json.Marshal(data)
	json.NewEncoder(w).Encode(types.Response{Data: raw, Code: types.CodeSuccessful})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.Response{Error: msg, Code: "internal_issue"})
}

// startNode serves the stub for the duration of the test and returns a
// provider connected to it.
func startNode(t *testing.T) (*nodeStub, client.Provider) {
	t.Helper()
	stub := newNodeStub()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	p, err := client.NewHTTPProvider(&client.Config{
		Endpoint: srv.URL,
		Protocol: client.ProtocolHTTP,
		Timeout:  5,
		Retry:    &client.RetryConfig{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return stub, p
}

// waitForTransaction polls the node until the transaction reports success.
func waitForTransaction(t *testing.T, p client.Provider, hash string) *types.TransactionStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		status, err := p.GetTransaction(ctx, hash)
		if err == nil && status.Status == "success" {
			return status
		}
		select {
		case <-ctx.Done():
			t.Fatalf("transaction %s not confirmed: %v", hash, ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}
