// Package types defines the JSON shapes of the node's public REST API: the
// uniform response envelope, the typed node error, and the account and
// broadcast payloads the SDK consumes.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Response is the envelope every node REST endpoint returns: a data payload
// plus an error string and machine-readable code ("successful" on success).
type Response struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// CodeSuccessful is the envelope code of a successful response.
const CodeSuccessful = "successful"

// OK reports whether the envelope carries a successful result.
func (r *Response) OK() bool {
	return r.Error == "" && (r.Code == "" || r.Code == CodeSuccessful)
}

// Err converts a failed envelope into a *NodeError, or nil if successful.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &NodeError{Code: r.Code, Message: r.Error}
}

// NodeError is an error reported by the node itself, as opposed to a
// transport failure: the request arrived, the node refused it.
type NodeError struct {
	Code    string
	Message string
	Status  int // HTTP status, when known
}

func (e *NodeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("node error [%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("node error: %s", e.Message)
}

// AsNodeError unwraps err into a *NodeError if one is in its chain.
func AsNodeError(err error) (*NodeError, bool) {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}

// Account is the node's view of an account, as returned by /address/{addr}.
type Account struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
	Balance int64  `json:"balance"`
}

// AccountData is the wrapper the node places around Account.
type AccountData struct {
	Account *Account `json:"account"`
}

// FeeEstimate is the node's fee schedule answer for a build request.
type FeeEstimate struct {
	KAppFee      int64 `json:"kAppFee"`
	BandwidthFee int64 `json:"bandwidthFee"`
}

// BroadcastResult is the node's answer to a transaction broadcast.
type BroadcastResult struct {
	TxHash string `json:"txHash"`
}

// TransactionStatus is the node's view of a submitted transaction.
type TransactionStatus struct {
	Hash       string `json:"hash"`
	Status     string `json:"status"` // "pending" | "success" | "fail"
	ResultCode int32  `json:"resultCode,omitempty"`
	Block      uint64 `json:"blockNum,omitempty"`
}
