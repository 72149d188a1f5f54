package transaction

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/klever-io/klever-connect-sub000/address"
	"github.com/klever-io/klever-connect-sub000/wire"
)

// DefaultVersion is the transaction format version emitted by this SDK.
const DefaultVersion uint32 = 1

var (
	// ErrNotSigned is returned by the wire projections of a transaction that
	// carries no signature, so an unauthorized payload can never be handed
	// to a broadcaster by accident.
	ErrNotSigned = errors.New("transaction: not signed")

	// ErrAmbiguousFee is returned when both the native fee pair and a KDA
	// fee are populated; a finalized transaction carries exactly one.
	ErrAmbiguousFee = errors.New("transaction: both native and KDA fee set")

	// ErrNoFee is returned when neither fee representation is populated.
	ErrNoFee = errors.New("transaction: no fee set")

	// ErrNoContracts is returned for a raw transaction with an empty
	// contract list.
	ErrNoContracts = errors.New("transaction: empty contract list")

	// ErrNoSender is returned for a raw transaction without a sender.
	ErrNoSender = errors.New("transaction: sender not set")
)

// KDAFee is the alternate fee payment in a non-native asset, mutually
// exclusive with the native kApp/bandwidth pair.
type KDAFee struct {
	KDA    []byte `wire:"1" json:"kda"`
	Amount int64  `wire:"2" json:"amount"`
}

// Raw is the unsigned transaction payload. Field numbers are the network's;
// the gaps are reserved by the chain and must stay open.
type Raw struct {
	Nonce        uint64     `wire:"1" json:"nonce"`
	Sender       []byte     `wire:"2" json:"sender"`
	Contracts    []Contract `wire:"6" json:"contracts"`
	PermissionID int32      `wire:"7" json:"permissionId,omitempty"`
	Data         [][]byte   `wire:"10" json:"data,omitempty"`
	KAppFee      int64      `wire:"13" json:"kAppFee,omitempty"`
	BandwidthFee int64      `wire:"14" json:"bandwidthFee,omitempty"`
	Version      uint32     `wire:"15" json:"version"`
	ChainID      []byte     `wire:"16" json:"chainId"`
	KDAFee       *KDAFee    `wire:"17" json:"kdaFee,omitempty"`
}

// Validate checks the structural invariants of a finalized raw transaction:
// sender present and well-formed, at least one contract, and exactly one fee
// representation populated.
func (r *Raw) Validate() error {
	if len(r.Sender) == 0 {
		return ErrNoSender
	}
	if len(r.Sender) != address.Bytes {
		return fmt.Errorf("transaction: sender length %d, expected %d", len(r.Sender), address.Bytes)
	}
	if len(r.Contracts) == 0 {
		return ErrNoContracts
	}
	native := r.KAppFee != 0 || r.BandwidthFee != 0
	if r.KDAFee != nil {
		if native {
			return ErrAmbiguousFee
		}
		if r.KDAFee.Amount < 0 {
			return fmt.Errorf("transaction: negative KDA fee amount %d", r.KDAFee.Amount)
		}
		return nil
	}
	if !native {
		return ErrNoFee
	}
	if r.KAppFee < 0 || r.BandwidthFee < 0 {
		return fmt.Errorf("transaction: negative fee (kApp %d, bandwidth %d)", r.KAppFee, r.BandwidthFee)
	}
	return nil
}

// TotalFee returns the fee this transaction pays: the sum of the native
// pair, or the KDA amount when the KDA path is active. The two are mutually
// exclusive per Validate.
func (r *Raw) TotalFee() int64 {
	if r.KDAFee != nil {
		return r.KDAFee.Amount
	}
	return r.KAppFee + r.BandwidthFee
}

// Bytes returns the canonical wire encoding of the raw payload. This is the
// exact byte sequence a signature commits to.
func (r *Raw) Bytes() ([]byte, error) {
	return wire.Marshal(r)
}

// Hash computes the 32-byte blake2b content hash over the canonical raw
// encoding. Signatures are outside the raw record and never hashed.
func (r *Raw) Hash() ([32]byte, error) {
	b, err := wire.Marshal(r)
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(b), nil
}

// Result of a transaction once observed on the ledger.
type Result int32

const (
	ResultSuccess Result = 0
	ResultFailed  Result = 1
)

// ResultCode details why a transaction succeeded or failed. The code space
// is the network's; unrecognized values round-trip numerically.
type ResultCode int32

const (
	CodeOk               ResultCode = 0
	CodeOutOfFunds       ResultCode = 1
	CodeAccountError     ResultCode = 2
	CodeAssetError       ResultCode = 3
	CodeContractInvalid  ResultCode = 4
	CodeContractNotFound ResultCode = 5
	CodeFeeInvalid       ResultCode = 6
	CodeParameterInvalid ResultCode = 7
	CodeAmountInvalid    ResultCode = 8
	CodeDuplicatedNonce  ResultCode = 9
	CodeNonceOutOfRange  ResultCode = 10
	CodeSignatureInvalid ResultCode = 11
	CodePermissionDenied ResultCode = 12
	CodeFail             ResultCode = 99
)

// Receipt is one execution receipt attached by the ledger.
type Receipt struct {
	Data [][]byte `wire:"1" json:"data"`
}

// Signer produces a signature over a transaction content hash. The wallet
// package provides the stock implementation; the transaction model never
// sees key material.
type Signer interface {
	SignHash(hash []byte) ([]byte, error)
}

// Transaction is the signed envelope around Raw. Its lifecycle is one-way:
// signatures are appended, never removed, and a transaction is signed iff at
// least one signature is present. Result, receipts and block are filled by
// the ledger, not by the SDK.
type Transaction struct {
	RawData    *Raw       `wire:"1" json:"rawData"`
	Signatures [][]byte   `wire:"2" json:"signatures,omitempty"`
	Result     Result     `wire:"3" json:"result,omitempty"`
	ResultCode ResultCode `wire:"4" json:"resultCode,omitempty"`
	Receipts   []Receipt  `wire:"5" json:"receipts,omitempty"`
	Block      uint64     `wire:"6" json:"block,omitempty"`
}

// New wraps a validated raw payload into an unsigned transaction.
func New(raw *Raw) (*Transaction, error) {
	if raw == nil {
		return nil, errors.New("transaction: nil raw payload")
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return &Transaction{RawData: raw}, nil
}

// IsSigned reports whether at least one signature is attached.
func (tx *Transaction) IsSigned() bool {
	return len(tx.Signatures) > 0
}

// Hash returns the content hash of the raw payload.
func (tx *Transaction) Hash() ([32]byte, error) {
	if tx.RawData == nil {
		return [32]byte{}, errors.New("transaction: nil raw data")
	}
	return tx.RawData.Hash()
}

// HashHex returns the content hash as lowercase hex, the form the node API
// uses to identify transactions.
func (tx *Transaction) HashHex() (string, error) {
	h, err := tx.Hash()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h[:]), nil
}

// AddSignature appends signatures. Existing signatures are never touched.
func (tx *Transaction) AddSignature(sigs ...[]byte) error {
	for _, sig := range sigs {
		if len(sig) == 0 {
			return errors.New("transaction: empty signature")
		}
		tx.Signatures = append(tx.Signatures, sig)
	}
	return nil
}

// SignWith hashes the raw payload and appends the signer's signature over
// it. Signer errors propagate verbatim; signing is never retried here.
func (tx *Transaction) SignWith(s Signer) error {
	h, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := s.SignHash(h[:])
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return tx.AddSignature(sig)
}

// Bytes returns the wire encoding of the signed envelope, for submission.
// An unsigned transaction is refused with ErrNotSigned.
func (tx *Transaction) Bytes() ([]byte, error) {
	if !tx.IsSigned() {
		return nil, ErrNotSigned
	}
	return wire.Marshal(tx)
}

// Hex returns Bytes as a lowercase hex string.
func (tx *Transaction) Hex() (string, error) {
	b, err := tx.Bytes()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// FromBytes decodes a received transaction envelope.
func FromBytes(data []byte) (*Transaction, error) {
	tx := &Transaction{}
	if err := wire.Unmarshal(data, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// FromHex decodes a hex-encoded transaction envelope.
func FromHex(s string) (*Transaction, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("transaction: decode hex: %w", err)
	}
	return FromBytes(b)
}
