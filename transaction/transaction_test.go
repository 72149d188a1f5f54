package transaction

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/klever-io/klever-connect-sub000/wire"
)

func addr(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, 32)
}

func decodeRaw(b []byte, r *Raw) error {
	return wire.Unmarshal(b, r)
}

func transferRaw(t *testing.T) *Raw {
	t.Helper()
	contract, err := NewContract(&TransferContract{
		ToAddress: addr(0x02),
		Amount:    1000000,
	})
	if err != nil {
		t.Fatalf("NewContract: %v", err)
	}
	return &Raw{
		Nonce:        42,
		Sender:       addr(0x01),
		Contracts:    []Contract{contract},
		KAppFee:      500000,
		BandwidthFee: 100000,
		Version:      1,
		ChainID:      []byte("108"),
	}
}

// The wire encoding of a known transfer is pinned byte for byte: the ledger
// performs no schema negotiation, so any drift here is a network break.
func TestRawEncodingFixture(t *testing.T) {
	want := "082a" + // nonce 42
		"1220" + strings.Repeat("01", 32) + // sender
		"3228" + // contract envelope, 40 bytes
		"1226" + // parameter, 38 bytes (type 0 omitted)
		"0a20" + strings.Repeat("02", 32) + // to
		"10c0843d" + // amount 1000000
		"68a0c21e" + // kApp fee 500000
		"70a08d06" + // bandwidth fee 100000
		"7801" + // version 1
		"820103313038" // chain id "108"

	raw := transferRaw(t)
	enc, err := raw.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if got := hex.EncodeToString(enc); got != want {
		t.Errorf("encoding drifted:\n got %s\nwant %s", got, want)
	}
}

func TestRawFixtureDecodesBack(t *testing.T) {
	raw := transferRaw(t)
	enc, err := raw.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	var got Raw
	if err := decodeRaw(enc, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Nonce != 42 || got.KAppFee != 500000 || got.BandwidthFee != 100000 {
		t.Errorf("header mismatch: %+v", got)
	}
	if len(got.Contracts) != 1 || got.Contracts[0].Type != TransferType {
		t.Fatalf("contracts mismatch: %+v", got.Contracts)
	}

	payload, err := got.Contracts[0].DecodePayload()
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	transfer := payload.(*TransferContract)
	if transfer.Amount != 1000000 || !bytes.Equal(transfer.ToAddress, addr(0x02)) || len(transfer.AssetID) != 0 {
		t.Errorf("transfer mismatch: %+v", transfer)
	}
}

// A freeze-then-delegate transaction must round-trip with contract order
// preserved exactly.
func TestContractOrderPreserved(t *testing.T) {
	freeze, err := NewContract(&FreezeContract{Amount: 100})
	if err != nil {
		t.Fatal(err)
	}
	delegate, err := NewContract(&DelegateContract{ToAddress: addr(0x03), BucketID: []byte("b1")})
	if err != nil {
		t.Fatal(err)
	}

	raw := &Raw{
		Nonce:     1,
		Sender:    addr(0x01),
		Contracts: []Contract{freeze, delegate},
		KAppFee:   1,
		Version:   1,
		ChainID:   []byte("108"),
	}
	enc, err := raw.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	var got Raw
	if err := decodeRaw(enc, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Contracts) != 2 {
		t.Fatalf("expected 2 contracts, got %d", len(got.Contracts))
	}
	if got.Contracts[0].Type != FreezeType || got.Contracts[1].Type != DelegateType {
		t.Errorf("order not preserved: %v then %v", got.Contracts[0].Type, got.Contracts[1].Type)
	}
}

func TestValidateFeeExclusivity(t *testing.T) {
	base := func() *Raw {
		r := transferRaw(t)
		return r
	}

	tests := []struct {
		name    string
		mutate  func(*Raw)
		wantErr error
	}{
		{name: "native fees only", mutate: func(r *Raw) {}, wantErr: nil},
		{
			name: "kda fee only",
			mutate: func(r *Raw) {
				r.KAppFee, r.BandwidthFee = 0, 0
				r.KDAFee = &KDAFee{KDA: []byte("USDT-a1b2"), Amount: 10}
			},
			wantErr: nil,
		},
		{
			name: "both fee paths",
			mutate: func(r *Raw) {
				r.KDAFee = &KDAFee{KDA: []byte("USDT-a1b2"), Amount: 10}
			},
			wantErr: ErrAmbiguousFee,
		},
		{
			name: "no fee at all",
			mutate: func(r *Raw) {
				r.KAppFee, r.BandwidthFee = 0, 0
			},
			wantErr: ErrNoFee,
		},
		{
			name:    "no contracts",
			mutate:  func(r *Raw) { r.Contracts = nil },
			wantErr: ErrNoContracts,
		},
		{
			name:    "no sender",
			mutate:  func(r *Raw) { r.Sender = nil },
			wantErr: ErrNoSender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(r)
			err := r.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTotalFee(t *testing.T) {
	r := transferRaw(t)
	if got := r.TotalFee(); got != 600000 {
		t.Errorf("TotalFee() = %d, want 600000", got)
	}

	r.KAppFee, r.BandwidthFee = 0, 0
	r.KDAFee = &KDAFee{KDA: []byte("USDT-a1b2"), Amount: 777}
	if got := r.TotalFee(); got != 777 {
		t.Errorf("TotalFee() with KDA fee = %d, want 777", got)
	}
}

type stubSigner struct {
	sig []byte
	err error
}

func (s *stubSigner) SignHash(hash []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sig, nil
}

func TestUnsignedRefusesProjection(t *testing.T) {
	tx, err := New(transferRaw(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tx.IsSigned() {
		t.Error("fresh transaction reports signed")
	}
	if _, err := tx.Bytes(); !errors.Is(err, ErrNotSigned) {
		t.Errorf("Bytes() = %v, want ErrNotSigned", err)
	}
	if _, err := tx.Hex(); !errors.Is(err, ErrNotSigned) {
		t.Errorf("Hex() = %v, want ErrNotSigned", err)
	}
}

func TestSignAndRoundTrip(t *testing.T) {
	tx, err := New(transferRaw(t))
	if err != nil {
		t.Fatal(err)
	}

	if err := tx.SignWith(&stubSigner{sig: []byte("sig-1")}); err != nil {
		t.Fatalf("SignWith: %v", err)
	}
	if !tx.IsSigned() {
		t.Fatal("transaction not signed after SignWith")
	}

	// Signatures append, never replace.
	if err := tx.AddSignature([]byte("sig-2")); err != nil {
		t.Fatal(err)
	}
	if len(tx.Signatures) != 2 || !bytes.Equal(tx.Signatures[0], []byte("sig-1")) {
		t.Errorf("signatures = %q", tx.Signatures)
	}

	enc, err := tx.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	got, err := FromBytes(enc)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got.RawData == nil || got.RawData.Nonce != 42 {
		t.Errorf("raw data lost: %+v", got.RawData)
	}
	if len(got.Signatures) != 2 {
		t.Errorf("signatures lost: %q", got.Signatures)
	}

	reEnc, err := got.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, reEnc) {
		t.Error("re-encoding differs from original")
	}
}

func TestSignerErrorPropagates(t *testing.T) {
	tx, err := New(transferRaw(t))
	if err != nil {
		t.Fatal(err)
	}
	wantErr := errors.New("hsm unavailable")
	if err := tx.SignWith(&stubSigner{err: wantErr}); !errors.Is(err, wantErr) {
		t.Errorf("SignWith error = %v, want %v", err, wantErr)
	}
	if tx.IsSigned() {
		t.Error("failed signing left a signature behind")
	}
}

func TestHashExcludesSignatures(t *testing.T) {
	tx, err := New(transferRaw(t))
	if err != nil {
		t.Fatal(err)
	}
	before, err := tx.Hash()
	if err != nil {
		t.Fatal(err)
	}

	if err := tx.AddSignature([]byte("sig")); err != nil {
		t.Fatal(err)
	}
	after, err := tx.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("content hash changed when a signature was added")
	}
}

func TestNewValidates(t *testing.T) {
	r := transferRaw(t)
	r.Contracts = nil
	if _, err := New(r); !errors.Is(err, ErrNoContracts) {
		t.Errorf("New() = %v, want ErrNoContracts", err)
	}
	if _, err := New(nil); err == nil {
		t.Error("New(nil) succeeded")
	}
}

func TestFromHexRejectsGarbage(t *testing.T) {
	if _, err := FromHex("zz"); err == nil {
		t.Error("expected error for invalid hex")
	}
}
