package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/klever-io/klever-connect-sub000/address"
	"github.com/klever-io/klever-connect-sub000/transaction"
	"github.com/klever-io/klever-connect-sub000/types"
	"github.com/klever-io/klever-connect-sub000/wire"
)

// grpcProvider talks to the node's gRPC endpoint. The node service messages
// are plain wire-tagged structs invoked through the connection directly;
// the SDK's own codec replaces generated stubs.
type grpcProvider struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// wireCodec satisfies gRPC's encoding.Codec on top of the wire engine.
type wireCodec struct{}

func (wireCodec) Marshal(v interface{}) ([]byte, error)      { return wire.Marshal(v) }
func (wireCodec) Unmarshal(data []byte, v interface{}) error { return wire.Unmarshal(data, v) }
func (wireCodec) Name() string                               { return "proto" }

// Node service message shapes. Field numbers follow the node's service
// definitions.
type getAccountRequest struct {
	Address []byte `wire:"1"`
}

type getAccountResponse struct {
	Address []byte `wire:"1"`
	Nonce   uint64 `wire:"2"`
	Balance int64  `wire:"3"`
}

type estimateFeesRequest struct {
	Sender    []byte                 `wire:"1"`
	Contracts []transaction.Contract `wire:"2"`
}

type estimateFeesResponse struct {
	KAppFee      int64 `wire:"1"`
	BandwidthFee int64 `wire:"2"`
}

type broadcastRequest struct {
	Tx []byte `wire:"1"`
}

type broadcastResponse struct {
	Hash []byte `wire:"1"`
}

type getTransactionRequest struct {
	Hash []byte `wire:"1"`
}

type getTransactionResponse struct {
	Hash       []byte `wire:"1"`
	Status     string `wire:"2"`
	ResultCode int32  `wire:"3"`
	Block      uint64 `wire:"4"`
}

// NewGRPCProvider builds a provider over the node gRPC endpoint.
func NewGRPCProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	// TODO: wire TLS credentials through Config; insecure is only
	// acceptable against a local or trusted node.
	conn, err := grpc.Dial(config.endpoint(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(wireCodec{})),
	)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("dial gRPC: %w", err))
	}

	return &grpcProvider{conn: conn, timeout: timeout}, nil
}

func (p *grpcProvider) invoke(ctx context.Context, method string, req, resp interface{}) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.conn.Invoke(ctx, method, req, resp); err != nil {
		if ctx.Err() != nil {
			return NewTimeoutError(err)
		}
		return NewNetworkError(err)
	}
	return nil
}

func (p *grpcProvider) GetAccount(ctx context.Context, addr address.Address) (*types.Account, error) {
	var resp getAccountResponse
	err := p.invoke(ctx, "/proto.AddressService/GetAccount", &getAccountRequest{Address: addr.Bytes()}, &resp)
	if err != nil {
		return nil, err
	}
	return &types.Account{
		Address: addr.Bech32(),
		Nonce:   resp.Nonce,
		Balance: resp.Balance,
	}, nil
}

func (p *grpcProvider) EstimateFees(ctx context.Context, req *transaction.Request) (*types.FeeEstimate, error) {
	sender, err := address.NewAddress(req.Sender)
	if err != nil {
		return nil, err
	}
	// The textual request carries typed payloads; re-wrap them into wire
	// envelopes for the binary channel.
	contracts := make([]transaction.Contract, 0, len(req.Contracts))
	for _, rc := range req.Contracts {
		c, err := transaction.NewContract(rc.Payload)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}

	var resp estimateFeesResponse
	err = p.invoke(ctx, "/proto.TransactionService/EstimateFees",
		&estimateFeesRequest{Sender: sender.Bytes(), Contracts: contracts}, &resp)
	if err != nil {
		return nil, err
	}
	return &types.FeeEstimate{KAppFee: resp.KAppFee, BandwidthFee: resp.BandwidthFee}, nil
}

func (p *grpcProvider) Broadcast(ctx context.Context, tx *transaction.Transaction) (string, error) {
	raw, err := tx.Bytes()
	if err != nil {
		return "", err
	}

	var resp broadcastResponse
	err = p.invoke(ctx, "/proto.TransactionService/Broadcast", &broadcastRequest{Tx: raw}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Hash) == 0 {
		return "", NewInvalidResponseError("broadcast result missing hash")
	}
	return hex.EncodeToString(resp.Hash), nil
}

func (p *grpcProvider) GetTransaction(ctx context.Context, hash string) (*types.TransactionStatus, error) {
	rawHash, err := hex.DecodeString(hash)
	if err != nil {
		return nil, fmt.Errorf("decode transaction hash: %w", err)
	}

	var resp getTransactionResponse
	err = p.invoke(ctx, "/proto.TransactionService/GetTransaction", &getTransactionRequest{Hash: rawHash}, &resp)
	if err != nil {
		return nil, err
	}
	return &types.TransactionStatus{
		Hash:       hex.EncodeToString(resp.Hash),
		Status:     resp.Status,
		ResultCode: resp.ResultCode,
		Block:      resp.Block,
	}, nil
}

func (p *grpcProvider) SubscribeTransactions(ctx context.Context, filter *EventFilter) (<-chan *TransactionEvent, error) {
	return nil, NewNotSupportedError("SubscribeTransactions over gRPC; use the WebSocket provider")
}

func (p *grpcProvider) Close() error {
	return p.conn.Close()
}
