// Package builder assembles transactions from high-level operation
// requests. A Builder accumulates sender, nonce, contracts and fees across
// chained calls, then finalizes through one of three strategies:
//
//	Build(ctx)        node-assisted: nonce and fee schedule fetched from
//	                  the provider
//	BuildProto(opts)  fully offline: nonce and fees supplied by the caller
//	BuildRequest()    request-only: a plain JSON request for a node that
//	                  finalizes server-side
//
// Structurally invalid arguments latch an error at the offending call;
// chained calls after that are no-ops and every finalizer reports the
// latched error. Finalizers never mutate accumulated state, so a failed
// node-assisted build can be retried or switched to offline building with
// the same contracts. A Builder is a single mutable accumulator and is not
// safe for concurrent use; use one builder per transaction or serialize
// access externally.
package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/klever-io/klever-connect-sub000/address"
	"github.com/klever-io/klever-connect-sub000/client"
	"github.com/klever-io/klever-connect-sub000/transaction"
)

var (
	// ErrMissingSender is returned by finalizers when no sender was set.
	ErrMissingSender = errors.New("builder: sender not set")

	// ErrNoContracts is returned by finalizers when no operation was added.
	ErrNoContracts = errors.New("builder: no contracts added")

	// ErrNoProvider is returned by Build when the builder has no network
	// provider to source nonce and fees from.
	ErrNoProvider = errors.New("builder: no provider configured")

	// ErrIncompleteOfflineBuild is returned by BuildProto when the nonce
	// or a fee source is missing; offline building carries no fallback.
	ErrIncompleteOfflineBuild = errors.New("builder: offline build requires explicit nonce and fees")
)

// builtContract keeps both representations of an accumulated operation:
// the wire envelope for binary finalizers and the typed payload for the
// request-only path.
type builtContract struct {
	envelope transaction.Contract
	payload  interface{}
}

// Builder is the transaction accumulator. The zero value is not usable;
// construct with New.
type Builder struct {
	provider client.Provider
	network  *client.Network

	sender       address.Address
	hasSender    bool
	nonce        uint64
	hasNonce     bool
	permissionID int32
	chainID      []byte
	data         [][]byte
	contracts    []builtContract
	kdaFee       *transaction.KDAFee

	err error
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// Err returns the first structural error latched by a configuration call,
// or nil. Finalizers return the same error, so checking here is optional.
func (b *Builder) Err() error {
	return b.err
}

// fail latches the first structural error; later calls keep it.
func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Provider attaches the network provider used by Build.
func (b *Builder) Provider(p client.Provider) *Builder {
	b.provider = p
	return b
}

// Network selects the chain whose id the transaction carries when no
// explicit ChainID was set.
func (b *Builder) Network(n *client.Network) *Builder {
	b.network = n
	return b
}

// Sender sets the sending account from its bech32 form.
func (b *Builder) Sender(bech32 string) *Builder {
	if b.err != nil {
		return b
	}
	addr, err := address.NewAddress(bech32)
	if err != nil {
		return b.fail(fmt.Errorf("builder: sender: %w", err))
	}
	return b.SenderAddress(addr)
}

// SenderAddress sets the sending account.
func (b *Builder) SenderAddress(addr address.Address) *Builder {
	if b.err != nil {
		return b
	}
	if addr.IsZero() {
		return b.fail(fmt.Errorf("builder: sender: zero address"))
	}
	b.sender = addr
	b.hasSender = true
	return b
}

// Nonce sets an explicit nonce, required for offline building. Without it,
// Build fetches the account nonce from the provider.
func (b *Builder) Nonce(n uint64) *Builder {
	if b.err != nil {
		return b
	}
	b.nonce = n
	b.hasNonce = true
	return b
}

// PermissionID selects the multi-signature permission the signatures will
// be checked against.
func (b *Builder) PermissionID(id int32) *Builder {
	if b.err != nil {
		return b
	}
	b.permissionID = id
	return b
}

// ChainID overrides the network chain id carried by the transaction.
func (b *Builder) ChainID(id string) *Builder {
	if b.err != nil {
		return b
	}
	if id == "" {
		return b.fail(errors.New("builder: empty chain id"))
	}
	b.chainID = []byte(id)
	return b
}

// Data appends auxiliary payload blobs.
func (b *Builder) Data(blobs ...[]byte) *Builder {
	if b.err != nil {
		return b
	}
	b.data = append(b.data, blobs...)
	return b
}

// KDAFee pays the transaction fee in a non-native asset instead of the
// native kApp/bandwidth pair. The two fee paths are mutually exclusive;
// finalizers reject a transaction with both.
func (b *Builder) KDAFee(assetID string, amount int64) *Builder {
	if b.err != nil {
		return b
	}
	if assetID == "" {
		return b.fail(errors.New("builder: KDA fee: empty asset id"))
	}
	if amount < 0 {
		return b.fail(fmt.Errorf("builder: KDA fee: negative amount %d", amount))
	}
	b.kdaFee = &transaction.KDAFee{KDA: []byte(assetID), Amount: amount}
	return b
}

// Reset clears all accumulated state, including any latched error, for
// builder reuse. Provider and network attachments are kept.
func (b *Builder) Reset() *Builder {
	b.sender = address.Address{}
	b.hasSender = false
	b.nonce = 0
	b.hasNonce = false
	b.permissionID = 0
	b.chainID = nil
	b.data = nil
	b.contracts = nil
	b.kdaFee = nil
	b.err = nil
	return b
}

// add validates and appends one contract envelope.
func (b *Builder) add(payload interface{}) *Builder {
	if b.err != nil {
		return b
	}
	envelope, err := transaction.NewContract(payload)
	if err != nil {
		return b.fail(fmt.Errorf("builder: %w", err))
	}
	b.contracts = append(b.contracts, builtContract{envelope: envelope, payload: payload})
	return b
}

// resolveChainID picks the effective chain id: explicit override, then the
// attached network, then the default network.
func (b *Builder) resolveChainID() []byte {
	if len(b.chainID) > 0 {
		return b.chainID
	}
	if b.network != nil {
		return []byte(b.network.ChainID)
	}
	return []byte(client.TestNet.ChainID)
}

// validateCommon checks the preconditions every finalizer shares.
func (b *Builder) validateCommon() error {
	if b.err != nil {
		return b.err
	}
	if !b.hasSender {
		return ErrMissingSender
	}
	if len(b.contracts) == 0 {
		return ErrNoContracts
	}
	return nil
}

// assemble projects the accumulated state plus the resolved nonce and fees
// into a fresh unsigned transaction. It copies the contract and data lists,
// so the returned transaction never aliases builder state.
func (b *Builder) assemble(nonce uint64, kAppFee, bandwidthFee int64) (*transaction.Transaction, error) {
	contracts := make([]transaction.Contract, len(b.contracts))
	for i, c := range b.contracts {
		contracts[i] = c.envelope
	}
	data := make([][]byte, len(b.data))
	copy(data, b.data)

	raw := &transaction.Raw{
		Nonce:        nonce,
		Sender:       b.sender.Bytes(),
		Contracts:    contracts,
		PermissionID: b.permissionID,
		Data:         data,
		KAppFee:      kAppFee,
		BandwidthFee: bandwidthFee,
		Version:      transaction.DefaultVersion,
		ChainID:      b.resolveChainID(),
		KDAFee:       b.kdaFee,
	}
	return transaction.New(raw)
}

// Build finalizes node-assisted: the nonce (unless set explicitly) comes
// from the provider's account lookup and the fees from its fee schedule.
// Provider failures surface as client errors and leave the builder exactly
// as it was, so the caller can retry or switch to BuildProto.
func (b *Builder) Build(ctx context.Context) (*transaction.Transaction, error) {
	if err := b.validateCommon(); err != nil {
		return nil, err
	}
	if b.provider == nil {
		return nil, ErrNoProvider
	}

	nonce := b.nonce
	if !b.hasNonce {
		account, err := b.provider.GetAccount(ctx, b.sender)
		if err != nil {
			return nil, err
		}
		nonce = account.Nonce
	}

	var kAppFee, bandwidthFee int64
	if b.kdaFee == nil {
		req, err := b.request()
		if err != nil {
			return nil, err
		}
		fees, err := b.provider.EstimateFees(ctx, req)
		if err != nil {
			return nil, err
		}
		kAppFee, bandwidthFee = fees.KAppFee, fees.BandwidthFee
	}

	return b.assemble(nonce, kAppFee, bandwidthFee)
}

// BuildOptions carries the caller-supplied fees for offline building.
type BuildOptions struct {
	KAppFee      int64
	BandwidthFee int64
}

// BuildProto finalizes fully offline, synchronously: the nonce must have
// been set with Nonce and the fees come from opts (or from a KDA fee set on
// the builder). Missing either yields ErrIncompleteOfflineBuild.
func (b *Builder) BuildProto(opts BuildOptions) (*transaction.Transaction, error) {
	if err := b.validateCommon(); err != nil {
		return nil, err
	}
	if !b.hasNonce {
		return nil, fmt.Errorf("%w: nonce not set", ErrIncompleteOfflineBuild)
	}

	hasNative := opts.KAppFee != 0 || opts.BandwidthFee != 0
	if b.kdaFee != nil && hasNative {
		return nil, transaction.ErrAmbiguousFee
	}
	if b.kdaFee == nil && !hasNative {
		return nil, fmt.Errorf("%w: no fee source", ErrIncompleteOfflineBuild)
	}

	return b.assemble(b.nonce, opts.KAppFee, opts.BandwidthFee)
}

// BuildRequest finalizes request-only: a plain structured request carrying
// the accumulated operations without nonce or fees, for a node that fills
// those in server-side. The result is not wire-encoded and not signable.
func (b *Builder) BuildRequest() (*transaction.Request, error) {
	if err := b.validateCommon(); err != nil {
		return nil, err
	}
	return b.request()
}

// request projects the accumulated state into the textual request shape.
func (b *Builder) request() (*transaction.Request, error) {
	req := &transaction.Request{
		Sender:       b.sender.Bech32(),
		PermissionID: b.permissionID,
		ChainID:      string(b.resolveChainID()),
	}
	for _, c := range b.contracts {
		req.Contracts = append(req.Contracts, transaction.RequestContract{
			Type:    c.envelope.Type,
			Payload: c.payload,
		})
	}
	for _, blob := range b.data {
		req.Data = append(req.Data, fmt.Sprintf("%x", blob))
	}
	return req, nil
}
