package client

import (
	"errors"
	"fmt"

	"github.com/klever-io/klever-connect-sub000/types"
)

// Error is a provider-originated failure: the network was unreachable, the
// request timed out, or the node refused it. It is a distinct class from
// the builder's structural errors so callers can tell "my input is wrong"
// from "the network is unavailable" and fall back to offline building.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error [%d]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("provider error [%d]: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes.
const (
	ErrCodeNetwork         = 1000
	ErrCodeTimeout         = 1001
	ErrCodeInvalidResponse = 1002
	ErrCodeNode            = 1003
	ErrCodeNotSupported    = 1004
	ErrCodeUnknownAccount  = 1005
)

// IsProviderError unwraps err into a provider *Error if one is in its
// chain.
func IsProviderError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsNodeError unwraps err into the node's own error payload, when the
// failure came from the node rather than the transport.
func IsNodeError(err error) (*types.NodeError, bool) {
	return types.AsNodeError(err)
}

// NewNetworkError wraps a transport-level failure.
func NewNetworkError(err error) *Error {
	return &Error{Code: ErrCodeNetwork, Message: "network error", Err: err}
}

// NewTimeoutError reports an exhausted deadline.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: "request timeout", Err: err}
}

// NewInvalidResponseError reports a response the SDK could not interpret.
func NewInvalidResponseError(message string) *Error {
	return &Error{Code: ErrCodeInvalidResponse, Message: message}
}

// NewNodeError wraps an error reported by the node itself.
func NewNodeError(ne *types.NodeError) *Error {
	return &Error{Code: ErrCodeNode, Message: "node rejected request", Err: ne}
}

// NewNotSupportedError reports an operation the transport cannot perform.
func NewNotSupportedError(operation string) *Error {
	return &Error{Code: ErrCodeNotSupported, Message: fmt.Sprintf("operation not supported: %s", operation)}
}

// NewUnknownAccountError reports an account the node has never seen.
func NewUnknownAccountError(addr string) *Error {
	return &Error{Code: ErrCodeUnknownAccount, Message: fmt.Sprintf("unknown account: %s", addr)}
}
