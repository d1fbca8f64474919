// Package miner periodically seals the block under construction so the
// simulated chain advances on its own.
package miner

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// Backend is the chain being sealed.
type Backend interface {
	Mine(ctx context.Context) (common.Hash, error)
}

// Config holds the sealing parameters.
type Config struct {
	Period time.Duration // interval between blocks; zero disables sealing
}

// DefaultConfig seals a block every twelve seconds.
var DefaultConfig = Config{Period: 12 * time.Second}

var errNoPeriod = errors.New("miner: sealing period must be positive")

// Miner drives a Backend on a fixed period.
type Miner struct {
	backend Backend
	config  Config
	sealed  atomic.Uint64
}

func New(backend Backend, config Config) *Miner {
	return &Miner{backend: backend, config: config}
}

// Sealed returns the number of blocks sealed so far.
func (m *Miner) Sealed() uint64 { return m.sealed.Load() }

// Run seals a block every period until ctx is done or sealing fails.
func (m *Miner) Run(ctx context.Context) error {
	if m.config.Period <= 0 {
		return errNoPeriod
	}
	ticker := time.NewTicker(m.config.Period)
	defer ticker.Stop()

	log.Info("Started sealing", "period", m.config.Period)
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopped sealing", "sealed", m.sealed.Load())
			return ctx.Err()
		case <-ticker.C:
			hash, err := m.backend.Mine(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Error("Failed to seal block", "err", err)
				return err
			}
			n := m.sealed.Add(1)
			log.Debug("Sealed block", "count", n, "hash", hash)
		}
	}
}
