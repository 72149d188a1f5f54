package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/klever-io/klever-connect-sub000/address"
	"github.com/klever-io/klever-connect-sub000/transaction"
)

func testConfig(endpoint string) *Config {
	return &Config{
		Endpoint: endpoint,
		Protocol: ProtocolHTTP,
		Timeout:  5,
		Retry:    &RetryConfig{}, // retries off unless a test opts in
	}
}

func fastRetry(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialDelay:      1,
		MaxDelay:          5,
		BackoffMultiplier: 1.0,
		Retryable:         isRetryableError,
	}
}

func envelope(data interface{}) []byte {
	raw, _ := json.Marshal(data)
	out, _ := json.Marshal(map[string]interface{}{
		"data": json.RawMessage(raw),
		"code": "successful",
	})
	return out
}

func testAddr(t *testing.T, fill byte) address.Address {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = fill
	}
	a, err := address.NewAddressFromBytes(raw)
	if err != nil {
		t.Fatalf("test addr: %v", err)
	}
	return a
}

func signedTransfer(t *testing.T) *transaction.Transaction {
	t.Helper()
	c, err := transaction.NewContract(&transaction.TransferContract{
		ToAddress: testAddr(t, 0x02).Bytes(),
		Amount:    100,
	})
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	tx, err := transaction.New(&transaction.Raw{
		Nonce:        1,
		Sender:       testAddr(t, 0x01).Bytes(),
		Contracts:    []transaction.Contract{c},
		KAppFee:      1,
		BandwidthFee: 1,
		Version:      transaction.DefaultVersion,
		ChainID:      []byte("109"),
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if err := tx.AddSignature(make([]byte, 64)); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tx
}

func TestGetAccount(t *testing.T) {
	addr := testAddr(t, 0x01)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/address/" + addr.Bech32()
		if r.Method != http.MethodGet || r.URL.Path != wantPath {
			t.Errorf("request = %s %s, want GET %s", r.Method, r.URL.Path, wantPath)
		}
		w.Write(envelope(map[string]interface{}{
			"account": map[string]interface{}{
				"address": addr.Bech32(),
				"nonce":   42,
				"balance": 1000000,
			},
		}))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	account, err := p.GetAccount(context.Background(), addr)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if account.Nonce != 42 {
		t.Errorf("nonce = %d, want 42", account.Nonce)
	}
	if account.Balance != 1000000 {
		t.Errorf("balance = %d, want 1000000", account.Balance)
	}
}

func TestGetAccountUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "cannot find account",
			"code":  "internal_issue",
		})
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	_, err = p.GetAccount(context.Background(), testAddr(t, 0x01))
	pe, ok := IsProviderError(err)
	if !ok {
		t.Fatalf("error = %v, want provider error", err)
	}
	if pe.Code != ErrCodeUnknownAccount {
		t.Errorf("code = %d, want %d", pe.Code, ErrCodeUnknownAccount)
	}
}

func TestNodeErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "invalid transaction: nonce too low",
			"code":  "invalid_nonce",
		})
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	_, err = p.EstimateFees(context.Background(), &transaction.Request{})
	ne, ok := IsNodeError(err)
	if !ok {
		t.Fatalf("error = %v, want node error in chain", err)
	}
	if ne.Code != "invalid_nonce" {
		t.Errorf("node code = %q, want invalid_nonce", ne.Code)
	}
	if ne.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", ne.Status)
	}
}

func TestBroadcast(t *testing.T) {
	tx := signedTransfer(t)
	wantHex, err := tx.Hex()
	if err != nil {
		t.Fatalf("tx hex: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/broadcast" {
			t.Errorf("request = %s %s, want POST /transaction/broadcast", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode broadcast body: %v", err)
		}
		if body["tx"] != wantHex {
			t.Errorf("tx field = %q, want encoded transaction", body["tx"])
		}
		w.Write(envelope(map[string]string{"txHash": "deadbeef"}))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	hash, err := p.Broadcast(context.Background(), tx)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if hash != "deadbeef" {
		t.Errorf("hash = %q, want deadbeef", hash)
	}
}

func TestBroadcastRefusesUnsigned(t *testing.T) {
	tx := signedTransfer(t)
	tx.Signatures = nil

	p, err := NewHTTPProvider(testConfig("http://unused.invalid"))
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	if _, err := p.Broadcast(context.Background(), tx); err == nil {
		t.Error("Broadcast accepted an unsigned transaction")
	}
}

func TestEstimateFees(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/estimatefee" {
			t.Errorf("path = %s, want /transaction/estimatefee", r.URL.Path)
		}
		w.Write(envelope(map[string]int64{"kAppFee": 500000, "bandwidthFee": 100000}))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	fees, err := p.EstimateFees(context.Background(), &transaction.Request{Sender: "klv1..."})
	if err != nil {
		t.Fatalf("EstimateFees: %v", err)
	}
	if fees.KAppFee != 500000 || fees.BandwidthFee != 100000 {
		t.Errorf("fees = %+v, want 500000/100000", fees)
	}
}

func TestGetTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/cafe01" {
			t.Errorf("path = %s, want /transaction/cafe01", r.URL.Path)
		}
		w.Write(envelope(map[string]interface{}{
			"hash":     "cafe01",
			"status":   "success",
			"blockNum": 1234,
		}))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	status, err := p.GetTransaction(context.Background(), "cafe01")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if status.Status != "success" || status.Block != 1234 {
		t.Errorf("status = %+v, want success in block 1234", status)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(envelope(map[string]int64{"kAppFee": 1, "bandwidthFee": 1}))
	}))
	defer srv.Close()

	config := testConfig(srv.URL)
	config.Retry = fastRetry(3)
	p, err := NewHTTPProvider(config)
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	if _, err := p.EstimateFees(context.Background(), &transaction.Request{}); err != nil {
		t.Fatalf("EstimateFees after retries: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad request", "code": "bad_request"})
	}))
	defer srv.Close()

	config := testConfig(srv.URL)
	config.Retry = fastRetry(3)
	p, err := NewHTTPProvider(config)
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	if _, err := p.EstimateFees(context.Background(), &transaction.Request{}); err == nil {
		t.Fatal("expected node error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server calls = %d, want 1 (client errors are final)", got)
	}
}

func TestSubscribeNotSupportedOverHTTP(t *testing.T) {
	p, err := NewHTTPProvider(testConfig("http://unused.invalid"))
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	_, err = p.SubscribeTransactions(context.Background(), nil)
	pe, ok := IsProviderError(err)
	if !ok || pe.Code != ErrCodeNotSupported {
		t.Errorf("error = %v, want not-supported provider error", err)
	}
}

func TestDebugLoggingEmits(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(map[string]int64{"kAppFee": 1, "bandwidthFee": 1}))
	}))
	defer srv.Close()

	config := testConfig(srv.URL)
	config.Debug = true
	config.Logger = NewZapLogger(zap.New(core))
	p, err := NewHTTPProvider(config)
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	defer p.Close()

	if _, err := p.EstimateFees(context.Background(), &transaction.Request{}); err != nil {
		t.Fatalf("EstimateFees: %v", err)
	}
	if logs.FilterMessage("api request").Len() != 1 {
		t.Error("request not logged")
	}
	if logs.FilterMessage("api response").Len() != 1 {
		t.Error("response not logged")
	}
}
