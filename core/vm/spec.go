package vm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/params/forks"
)

// ActiveFork returns the newest fork active at the given block number and
// timestamp. Time based forks are resolved by the chain config itself.
func ActiveFork(cfg *params.ChainConfig, num uint64, ts uint64) forks.Fork {
	bn := new(big.Int).SetUint64(num)
	switch {
	case cfg.IsShanghai(bn, ts):
		return cfg.LatestFork(ts)
	case cfg.IsLondon(bn):
		switch {
		case cfg.TerminalTotalDifficulty != nil && cfg.TerminalTotalDifficulty.Sign() == 0:
			return forks.Paris
		case cfg.IsGrayGlacier(bn):
			return forks.GrayGlacier
		case cfg.IsArrowGlacier(bn):
			return forks.ArrowGlacier
		}
		return forks.London
	case cfg.IsBerlin(bn):
		return forks.Berlin
	case cfg.IsIstanbul(bn):
		return forks.Istanbul
	case cfg.IsPetersburg(bn):
		return forks.Petersburg
	case cfg.IsConstantinople(bn):
		return forks.Constantinople
	case cfg.IsByzantium(bn):
		return forks.Byzantium
	case cfg.IsEIP158(bn):
		return forks.SpuriousDragon
	case cfg.IsEIP150(bn):
		return forks.TangerineWhistle
	case cfg.IsHomestead(bn):
		return forks.Homestead
	default:
		return forks.Frontier
	}
}
