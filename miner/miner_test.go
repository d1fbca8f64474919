package miner

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	calls atomic.Int64
	err   error
}

func (b *countingBackend) Mine(context.Context) (common.Hash, error) {
	n := b.calls.Add(1)
	return common.BigToHash(big.NewInt(n)), b.err
}

func TestMinerSealsUntilCancelled(t *testing.T) {
	backend := new(countingBackend)
	m := New(backend, Config{Period: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Sealed() >= 3 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Equal(t, uint64(backend.calls.Load()), m.Sealed())
}

func TestMinerStopsOnError(t *testing.T) {
	backend := &countingBackend{err: errors.New("engine is gone")}
	m := New(backend, Config{Period: time.Millisecond})

	err := m.Run(context.Background())
	require.ErrorIs(t, err, backend.err)
	require.Zero(t, m.Sealed())
}

func TestMinerRejectsZeroPeriod(t *testing.T) {
	m := New(new(countingBackend), Config{})
	require.ErrorIs(t, m.Run(context.Background()), errNoPeriod)
}
