// Package client implements the network provider the SDK builds and
// submits transactions through: account and nonce lookup, fee estimation,
// broadcast, and transaction event subscription, over HTTP, gRPC or
// WebSocket against a KleverChain node.
//
// The provider is an external collaborator from the transaction core's
// point of view: builder and transaction packages call it through the
// Provider interface and never depend on a concrete transport.
package client

import (
	"context"
	"fmt"

	"github.com/klever-io/klever-connect-sub000/address"
	"github.com/klever-io/klever-connect-sub000/transaction"
	"github.com/klever-io/klever-connect-sub000/types"
)

// Provider is the node-facing contract consumed by the transaction builder.
// All methods honor the deadline and cancellation of their context.
type Provider interface {
	// GetAccount fetches the node's view of an account, including the
	// nonce the next transaction must carry.
	GetAccount(ctx context.Context, addr address.Address) (*types.Account, error)

	// EstimateFees asks the node to price the operations of a build
	// request against its current fee schedule.
	EstimateFees(ctx context.Context, req *transaction.Request) (*types.FeeEstimate, error)

	// Broadcast submits a signed transaction and returns its hash. The
	// transaction's own wire projection refuses unsigned payloads.
	Broadcast(ctx context.Context, tx *transaction.Transaction) (string, error)

	// GetTransaction looks up the status of a submitted transaction.
	GetTransaction(ctx context.Context, hash string) (*types.TransactionStatus, error)

	// SubscribeTransactions streams transaction events matching the
	// filter. Only stream-capable transports support it; the rest return
	// a not-supported error.
	SubscribeTransactions(ctx context.Context, filter *EventFilter) (<-chan *TransactionEvent, error)

	// Close releases the underlying connection, if any.
	Close() error
}

// EventFilter narrows a transaction event subscription.
type EventFilter struct {
	// Addresses limits events to transactions sent by or to these
	// accounts. Empty means all.
	Addresses []address.Address
}

// TransactionEvent is one entry of a transaction event stream.
type TransactionEvent struct {
	Hash   string
	Status string
	Block  uint64
}

// NewProvider builds a provider for the protocol selected in config.
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Protocol {
	case ProtocolHTTP:
		return NewHTTPProvider(config)
	case ProtocolGRPC:
		return NewGRPCProvider(config)
	case ProtocolWebSocket:
		return NewWebSocketProvider(config)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", config.Protocol)
	}
}
