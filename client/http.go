package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klever-io/klever-connect-sub000/address"
	"github.com/klever-io/klever-connect-sub000/transaction"
	"github.com/klever-io/klever-connect-sub000/types"
)

// httpProvider talks to the node's public REST API.
type httpProvider struct {
	endpoint string
	client   *http.Client
	logger   Logger
	debug    bool
	retry    *RetryConfig
}

// NewHTTPProvider builds a provider over the node REST API.
func NewHTTPProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	retryConfig := config.Retry
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
		if config.Debug && config.Logger != nil {
			logger := config.Logger
			retryConfig.OnRetry = func(attempt int, err error) {
				logger.Warn("retrying request", "attempt", attempt, "error", err)
			}
		}
	}

	return &httpProvider{
		endpoint: strings.TrimRight(config.endpoint(), "/"),
		client:   &http.Client{Timeout: time.Duration(config.Timeout) * time.Second},
		logger:   config.Logger,
		debug:    config.Debug,
		retry:    retryConfig,
	}, nil
}

func (p *httpProvider) GetAccount(ctx context.Context, addr address.Address) (*types.Account, error) {
	body, err := p.get(ctx, "/address/"+addr.Bech32())
	if err != nil {
		var ne *types.NodeError
		if errors.As(err, &ne) && ne.Status == http.StatusNotFound {
			return nil, NewUnknownAccountError(addr.Bech32())
		}
		return nil, err
	}

	var data types.AccountData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode account: %v", err))
	}
	if data.Account == nil {
		return nil, NewInvalidResponseError("account missing from response")
	}
	return data.Account, nil
}

func (p *httpProvider) EstimateFees(ctx context.Context, req *transaction.Request) (*types.FeeEstimate, error) {
	body, err := p.post(ctx, "/transaction/estimatefee", req)
	if err != nil {
		return nil, err
	}

	var fees types.FeeEstimate
	if err := json.Unmarshal(body, &fees); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode fee estimate: %v", err))
	}
	return &fees, nil
}

func (p *httpProvider) Broadcast(ctx context.Context, tx *transaction.Transaction) (string, error) {
	txHex, err := tx.Hex()
	if err != nil {
		return "", err
	}

	body, err := p.post(ctx, "/transaction/broadcast", map[string]string{"tx": txHex})
	if err != nil {
		return "", err
	}

	var result types.BroadcastResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", NewInvalidResponseError(fmt.Sprintf("decode broadcast result: %v", err))
	}
	if result.TxHash == "" {
		return "", NewInvalidResponseError("broadcast result missing txHash")
	}
	return result.TxHash, nil
}

func (p *httpProvider) GetTransaction(ctx context.Context, hash string) (*types.TransactionStatus, error) {
	body, err := p.get(ctx, "/transaction/"+hash)
	if err != nil {
		return nil, err
	}

	var status types.TransactionStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode transaction status: %v", err))
	}
	return &status, nil
}

func (p *httpProvider) SubscribeTransactions(ctx context.Context, filter *EventFilter) (<-chan *TransactionEvent, error) {
	return nil, NewNotSupportedError("SubscribeTransactions over HTTP; use the WebSocket provider")
}

func (p *httpProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *httpProvider) get(ctx context.Context, path string) (json.RawMessage, error) {
	return p.do(ctx, http.MethodGet, path, nil)
}

func (p *httpProvider) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return p.do(ctx, http.MethodPost, path, body)
}

// do performs one API call with retries, unwraps the response envelope and
// returns its data payload.
func (p *httpProvider) do(ctx context.Context, method, path string, reqBody []byte) (json.RawMessage, error) {
	url := p.endpoint + path
	if p.debug && p.logger != nil {
		p.logger.Debug("api request", "method", method, "url", url, "body", string(reqBody))
	}

	var respBody []byte
	var respStatus int

	call := func() error {
		// A fresh request per attempt: the body reader is consumed by
		// each send.
		var reader io.Reader
		if reqBody != nil {
			reader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if isRetryableHTTPStatus(resp.StatusCode) {
			return fmt.Errorf("http status %d", resp.StatusCode)
		}

		respStatus = resp.StatusCode
		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return nil
	}

	var err error
	if p.retry != nil && p.retry.MaxRetries > 0 {
		err = withRetry(ctx, call, p.retry)
	} else {
		err = call()
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewNetworkError(err)
	}

	if p.debug && p.logger != nil {
		p.logger.Debug("api response", "status", respStatus, "body", string(respBody))
	}

	var envelope types.Response
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("decode envelope: %v", err))
	}
	if envErr := envelope.Err(); envErr != nil {
		ne := envErr.(*types.NodeError)
		ne.Status = respStatus
		return nil, NewNodeError(ne)
	}
	if respStatus != http.StatusOK {
		return nil, NewNodeError(&types.NodeError{Message: http.StatusText(respStatus), Status: respStatus})
	}
	return envelope.Data, nil
}
