package utils

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klever-io/klever-connect-sub000/address"
	"github.com/klever-io/klever-connect-sub000/builder"
	"github.com/klever-io/klever-connect-sub000/client"
	"github.com/klever-io/klever-connect-sub000/transaction"
	"github.com/klever-io/klever-connect-sub000/types"
)

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

func TestBatchBuildSequentialNonces(t *testing.T) {
	sender := testAddr(t, 0x01)
	receiver := testAddr(t, 0x02)
	amounts := []int64{100, 200, 300, 400}

	result := BatchBuild(context.Background(), amounts, 10,
		func(amount int64, nonce uint64) (*transaction.Transaction, error) {
			return builder.New().
				SenderAddress(sender).
				Nonce(nonce).
				Transfer(builder.TransferParams{To: receiver.Bech32(), Amount: amount}).
				BuildProto(builder.BuildOptions{KAppFee: 1, BandwidthFee: 1})
		}, nil)

	if result.Failed != 0 {
		t.Fatalf("failed = %d, errors = %v", result.Failed, result.Errors)
	}
	if result.Success != len(amounts) {
		t.Fatalf("success = %d, want %d", result.Success, len(amounts))
	}
	for i, tx := range result.Results {
		if tx.RawData.Nonce != uint64(10+i) {
			t.Errorf("item %d nonce = %d, want %d", i, tx.RawData.Nonce, 10+i)
		}
	}
}

func TestBatchBuildKeepsInputOrder(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	result := BatchBuild(context.Background(), items, 0,
		func(item int, nonce uint64) (*transaction.Transaction, error) {
			return &transaction.Transaction{RawData: &transaction.Raw{Nonce: nonce}}, nil
		}, &BatchConfig{Concurrency: 8})

	for i, tx := range result.Results {
		if tx.RawData.Nonce != uint64(i) {
			t.Errorf("result %d carries nonce %d, order lost", i, tx.RawData.Nonce)
		}
	}
}

func TestBatchBuildCollectsErrors(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	result := BatchBuild(context.Background(), items, 0,
		func(item int, nonce uint64) (*transaction.Transaction, error) {
			if item%2 == 1 {
				return nil, fmt.Errorf("item %d rejected", item)
			}
			return &transaction.Transaction{RawData: &transaction.Raw{Nonce: nonce}}, nil
		}, nil)

	if result.Success != 3 || result.Failed != 2 {
		t.Fatalf("success/failed = %d/%d, want 3/2", result.Success, result.Failed)
	}

	indexes := make([]int, 0, len(result.Errors))
	for _, be := range result.Errors {
		indexes = append(indexes, be.Index)
	}
	sort.Ints(indexes)
	if len(indexes) != 2 || indexes[0] != 1 || indexes[1] != 3 {
		t.Errorf("failed indexes = %v, want [1 3]", indexes)
	}
	// Failed slots stay zero; successful slots are filled.
	if result.Results[1] != nil || result.Results[3] != nil {
		t.Error("failed indexes carry results")
	}
	if result.Results[0] == nil || result.Results[2] == nil || result.Results[4] == nil {
		t.Error("successful indexes missing results")
	}
}

func TestBatchConcurrencyCap(t *testing.T) {
	var inFlight, peak int32
	items := make([]int, 30)

	BatchBuild(context.Background(), items, 0,
		func(item int, nonce uint64) (*transaction.Transaction, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			defer atomic.AddInt32(&inFlight, -1)
			return &transaction.Transaction{}, nil
		}, &BatchConfig{Concurrency: 3})

	if got := atomic.LoadInt32(&peak); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

func TestBatchProgressReporting(t *testing.T) {
	var mu sync.Mutex
	var snapshots []BatchProgress

	items := []int{0, 1, 2, 3}
	BatchBuild(context.Background(), items, 0,
		func(item int, nonce uint64) (*transaction.Transaction, error) {
			if item == 2 {
				return nil, errors.New("boom")
			}
			return &transaction.Transaction{}, nil
		}, &BatchConfig{
			Concurrency: 2,
			OnProgress: func(p BatchProgress) {
				mu.Lock()
				snapshots = append(snapshots, p)
				mu.Unlock()
			},
		})

	if len(snapshots) != len(items) {
		t.Fatalf("progress calls = %d, want %d", len(snapshots), len(items))
	}
	last := snapshots[len(snapshots)-1]
	if last.Completed != 4 || last.Percentage != 100 {
		t.Errorf("final progress = %+v, want completed 4 at 100%%", last)
	}
	if last.Success != 3 || last.Failed != 1 {
		t.Errorf("final tallies = %d/%d, want 3/1", last.Success, last.Failed)
	}
}

// broadcastRecorder counts broadcasts and fails on demand.
type broadcastRecorder struct {
	calls   int32
	failIdx map[string]bool
}

func (b *broadcastRecorder) GetAccount(ctx context.Context, addr address.Address) (*types.Account, error) {
	return nil, errors.New("not implemented")
}

func (b *broadcastRecorder) EstimateFees(ctx context.Context, req *transaction.Request) (*types.FeeEstimate, error) {
	return nil, errors.New("not implemented")
}

func (b *broadcastRecorder) Broadcast(ctx context.Context, tx *transaction.Transaction) (string, error) {
	atomic.AddInt32(&b.calls, 1)
	hash, err := tx.HashHex()
	if err != nil {
		return "", err
	}
	if b.failIdx[hash] {
		return "", errors.New("node rejected")
	}
	return hash, nil
}

func (b *broadcastRecorder) GetTransaction(ctx context.Context, hash string) (*types.TransactionStatus, error) {
	return nil, errors.New("not implemented")
}

func (b *broadcastRecorder) SubscribeTransactions(ctx context.Context, filter *client.EventFilter) (<-chan *client.TransactionEvent, error) {
	return nil, errors.New("not implemented")
}

func (b *broadcastRecorder) Close() error { return nil }

func TestBatchBroadcast(t *testing.T) {
	sender := testAddr(t, 0x01)
	receiver := testAddr(t, 0x02)

	txs := make([]*transaction.Transaction, 3)
	for i := range txs {
		tx, err := builder.New().
			SenderAddress(sender).
			Nonce(uint64(i)).
			Transfer(builder.TransferParams{To: receiver.Bech32(), Amount: int64(i + 1)}).
			BuildProto(builder.BuildOptions{KAppFee: 1, BandwidthFee: 1})
		if err != nil {
			t.Fatalf("build %d: %v", i, err)
		}
		if err := tx.AddSignature(make([]byte, 64)); err != nil {
			t.Fatalf("sign %d: %v", i, err)
		}
		txs[i] = tx
	}

	failHash, err := txs[1].HashHex()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	provider := &broadcastRecorder{failIdx: map[string]bool{failHash: true}}

	result := BatchBroadcast(context.Background(), provider, txs, nil)
	if result.Success != 2 || result.Failed != 1 {
		t.Fatalf("success/failed = %d/%d, want 2/1", result.Success, result.Failed)
	}
	if atomic.LoadInt32(&provider.calls) != 3 {
		t.Errorf("broadcast calls = %d, want 3", provider.calls)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 1 {
		t.Errorf("errors = %v, want the middle item", result.Errors)
	}
	for _, i := range []int{0, 2} {
		want, err := txs[i].HashHex()
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		if result.Results[i] != want {
			t.Errorf("result %d = %q, want own hash", i, result.Results[i])
		}
	}
}
