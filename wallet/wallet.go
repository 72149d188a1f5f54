// Package wallet holds key material and implements the transaction signer.
// The signing primitive is ed25519 over the 32-byte transaction content
// hash; the transaction core only ever sees the Wallet through the Signer
// interface and never touches key bytes.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/klever-io/klever-connect-sub000/address"
)

// Wallet is a single-key signing identity.
type Wallet interface {
	// Address returns the account address derived from the public key.
	Address() address.Address

	// SignHash signs a 32-byte content hash. This is the signer contract
	// the transaction model consumes.
	SignHash(hash []byte) ([]byte, error)

	// SignMessage signs an arbitrary message (prefix-free; intended for
	// off-chain proofs, not transactions).
	SignMessage(msg []byte) ([]byte, error)

	// PrivateKeyHex exports the seed as hex. Handle with care.
	PrivateKeyHex() string
}

// simpleWallet is the in-memory implementation.
type simpleWallet struct {
	priv ed25519.PrivateKey
	addr address.Address
}

// NewWallet generates a fresh random key.
func NewWallet() (Wallet, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return fromPrivateKey(priv)
}

// NewWalletFromSeed builds a wallet from a 32-byte ed25519 seed.
func NewWalletFromSeed(seed []byte) (Wallet, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length: expected %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return fromPrivateKey(ed25519.NewKeyFromSeed(seed))
}

// NewWalletFromHex builds a wallet from a hex-encoded 32-byte seed, with or
// without an 0x prefix.
func NewWalletFromHex(seedHex string) (Wallet, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(seedHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	return NewWalletFromSeed(seed)
}

func fromPrivateKey(priv ed25519.PrivateKey) (Wallet, error) {
	pub := priv.Public().(ed25519.PublicKey)
	addr, err := address.NewAddressFromBytes(pub)
	if err != nil {
		return nil, fmt.Errorf("derive address: %w", err)
	}
	return &simpleWallet{priv: priv, addr: addr}, nil
}

func (w *simpleWallet) Address() address.Address {
	return w.addr
}

func (w *simpleWallet) SignHash(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("invalid hash length: expected 32 bytes, got %d", len(hash))
	}
	return ed25519.Sign(w.priv, hash), nil
}

func (w *simpleWallet) SignMessage(msg []byte) ([]byte, error) {
	return ed25519.Sign(w.priv, msg), nil
}

func (w *simpleWallet) PrivateKeyHex() string {
	return hex.EncodeToString(w.priv.Seed())
}
